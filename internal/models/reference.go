package models

import "time"

// Faculty is a fakultas.
type Faculty struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Kode      string    `gorm:"size:16;uniqueIndex;not null" json:"kode"`
	Nama      string    `gorm:"size:255;not null" json:"nama"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Department is a program studi belonging to one faculty.
type Department struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FacultyID uint      `gorm:"not null;index" json:"fakultasId"`
	Kode      string    `gorm:"size:16;uniqueIndex;not null" json:"kode"`
	Nama      string    `gorm:"size:255;not null" json:"nama"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Faculty   Faculty   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Semester is an academic term.
type Semester struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Nama        string    `gorm:"size:64;not null" json:"nama"`
	TahunAjaran string    `gorm:"size:16" json:"tahunAjaran"`
	Aktif       bool      `gorm:"not null;default:false" json:"aktif"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
