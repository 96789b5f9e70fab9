package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/sidupak-api/internal/models"
)

// SubmissionListQuery describes query string filters for listing credit submissions.
type SubmissionListQuery struct {
	Page       int    `query:"page" validate:"omitempty,min=1"`
	Limit      int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Kategori   string `query:"kategori"`
	SemesterID *uint  `query:"semesterId" validate:"omitempty,gt=0"`
	DosenID    *uint  `query:"dosenId" validate:"omitempty,gt=0"`
	SortBy     string `query:"sortBy" validate:"omitempty,oneof=createdAt updatedAt nilaiPak kategori id"`
	Order      string `query:"order" validate:"omitempty,oneof=asc desc ASC DESC"`
}

// SubmissionResponse is returned to API clients when viewing credit submissions.
type SubmissionResponse struct {
	ID               uint            `json:"id"`
	Kategori         string          `json:"kategori"`
	DosenID          uint            `json:"dosenId"`
	SemesterID       *uint           `json:"semesterId"`
	NilaiPak         float64         `json:"nilaiPak"`
	RankAtSubmission string          `json:"rankAtSubmission,omitempty"`
	FilePath         string          `json:"filePath"`
	Fields           json.RawMessage `json:"fields"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	Dosen            *LecturerLite   `json:"dosen,omitempty"`
	Semester         *SemesterLite   `json:"semester,omitempty"`
}

// LecturerLite summarizes the owning lecturer.
type LecturerLite struct {
	ID   uint   `json:"id"`
	Nama string `json:"nama"`
}

// SemesterLite summarizes the referenced semester.
type SemesterLite struct {
	ID   uint   `json:"id"`
	Nama string `json:"nama"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	fields := json.RawMessage(model.Fields)
	if len(fields) == 0 {
		fields = json.RawMessage(`{}`)
	}

	response := SubmissionResponse{
		ID:               model.ID,
		Kategori:         model.Category,
		DosenID:          model.OwnerID,
		SemesterID:       model.SemesterID,
		NilaiPak:         model.Score,
		RankAtSubmission: model.RankAtSubmission,
		FilePath:         model.EvidenceFile,
		Fields:           fields,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}

	if model.Owner.ID != 0 {
		response.Dosen = &LecturerLite{ID: model.Owner.ID, Nama: model.Owner.Nama}
	}

	if model.Semester != nil && model.Semester.ID != 0 {
		response.Semester = &SemesterLite{ID: model.Semester.ID, Nama: model.Semester.Nama}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
