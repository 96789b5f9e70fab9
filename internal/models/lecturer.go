package models

import "time"

// Lecturer is the rank-bearing profile of a user with the dosen role. Its id is the user id.
type Lecturer struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Nama      string    `gorm:"size:255;not null" json:"nama"`
	NIP       string    `gorm:"size:32;index" json:"nip"`
	Jabatan   string    `gorm:"size:32" json:"jabatan"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
