package credit

import (
	"errors"
	"strings"
)

// ErrUnrecognizedCategory indicates a category outside the closed set of a family.
var ErrUnrecognizedCategory = errors.New("unrecognized category")

// Category identifies one kind of credited activity.
type Category string

// Teaching-execution categories (pelaksanaan pendidikan).
const (
	CategoryTeaching             Category = "PERKULIAHAN"
	CategorySeminarSupervision   Category = "BIMBINGAN_SEMINAR"
	CategoryFieldworkSupervision Category = "BIMBINGAN_KKN"
	CategoryThesisSupervision    Category = "BIMBINGAN_TUGAS_AKHIR"
	CategoryFinalExamExaminer    Category = "PENGUJI_UJIAN_AKHIR"
	CategoryStudentMentoring     Category = "PEMBINA_KEGIATAN_MHS"
	CategoryProgramDevelopment   Category = "PENGEMBANGAN_PROGRAM"
	CategoryTeachingMaterial     Category = "BAHAN_PENGAJARAN"
	CategoryScholarlyOration     Category = "ORASI_ILMIAH"
	CategoryStructuralPosition   Category = "JABATAN_STRUKTURAL"
	CategoryLecturerMentoring    Category = "BIMBING_DOSEN"
	CategoryDatasering           Category = "DATA_SERING"
	CategorySelfDevelopment      Category = "PENGEMBANGAN_DIRI"
)

// Education categories (pendidikan).
const (
	CategoryFormalEducation Category = "Pendidikan Formal"
	CategoryTraining        Category = "Diklat"
)

// ActivityCategories lists every teaching-execution category in display order.
func ActivityCategories() []Category {
	return []Category{
		CategoryTeaching,
		CategorySeminarSupervision,
		CategoryFieldworkSupervision,
		CategoryThesisSupervision,
		CategoryFinalExamExaminer,
		CategoryStudentMentoring,
		CategoryProgramDevelopment,
		CategoryTeachingMaterial,
		CategoryScholarlyOration,
		CategoryStructuralPosition,
		CategoryLecturerMentoring,
		CategoryDatasering,
		CategorySelfDevelopment,
	}
}

// EducationCategories lists the education categories.
func EducationCategories() []Category {
	return []Category{CategoryFormalEducation, CategoryTraining}
}

// ParseCategory matches raw against the provided set, ignoring surrounding whitespace.
func ParseCategory(raw string, allowed []Category) (Category, error) {
	trimmed := strings.TrimSpace(raw)
	for _, candidate := range allowed {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	return "", ErrUnrecognizedCategory
}
