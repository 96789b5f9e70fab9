package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// FamilyActivity is the teaching-execution family (pelaksanaan pendidikan).
	FamilyActivity = "pelaksanaan"
	// FamilyEducation is the formal education and diklat family (pendidikan).
	FamilyEducation = "pendidikan"
)

// Submission is one credit-point claim with its scored payload and evidence file.
type Submission struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Family           string         `gorm:"size:32;not null;index" json:"family"`
	Category         string         `gorm:"size:64;not null;index" json:"kategori"`
	OwnerID          uint           `gorm:"not null;index" json:"dosenId"`
	SemesterID       *uint          `gorm:"index" json:"semesterId"`
	Fields           datatypes.JSON `json:"fields"`
	Score            float64        `gorm:"not null" json:"nilaiPak"`
	RankAtSubmission string         `gorm:"size:32" json:"rankAtSubmission"`
	EvidenceFile     string         `gorm:"size:255;not null" json:"filePath"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	Owner            Lecturer       `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"dosen"`
	Semester         *Semester      `gorm:"foreignKey:SemesterID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"semester,omitempty"`
}

// TableName keeps both families in one table.
func (Submission) TableName() string {
	return "credit_submissions"
}
