package credit

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Score computes the credit value (nilai PAK) of validated fields. It is a pure function of
// its arguments.
func Score(category Category, fields Fields, rank Rank) (float64, error) {
	if fields == nil {
		return 0, fmt.Errorf("score %s: %w", category, ErrUnrecognizedCategory)
	}
	if fields.Category() != category {
		return 0, fmt.Errorf("fields of %s scored as %s: %w", fields.Category(), category, ErrUnrecognizedCategory)
	}
	return fields.points(rank), nil
}

// TeachingPoints scores taught units: the first ten units earn the full rate, the rest half.
// Assistant experts earn half of the regular rates.
func TeachingPoints(sks float64, classes int, rank Rank) float64 {
	units := sks * float64(classes)
	head := math.Min(10, units)
	rest := math.Max(0, units-10)
	if rank == RankAssistantExpert {
		return head*0.5 + rest*0.25
	}
	return head*1 + rest*0.5
}

// SelfDevelopmentPoints scores training hours on a staircase, evaluated top-down.
func SelfDevelopmentPoints(hours float64) float64 {
	switch {
	case hours > 960:
		return 15
	case hours >= 641:
		return 9
	case hours >= 481:
		return 6
	case hours >= 161:
		return 3
	case hours >= 81:
		return 2
	case hours >= 30:
		return 1
	case hours >= 10:
		return 0.5
	default:
		return 0
	}
}

var structuralPositionPoints = map[string]float64{
	"Rektor":                 6,
	"Wakil Rektor":           5,
	"Ketua Sekolah":          4,
	"Pembantu Ketua Sekolah": 4,
	"Direktur Akademi":       4,
	"Pembantu Direktur":      3,
	"Sekretaris Jurusan":     3,
}

// StructuralPositionPoints looks up a structural office; unknown offices score 0.
func StructuralPositionPoints(position string) float64 {
	return structuralPositionPoints[position]
}

// FormalEducationPoints scores a degree level string. Master's degrees score 150 and
// doctorates 200; "s2"/"s3" count when they appear as a standalone word.
func FormalEducationPoints(level string) float64 {
	normalized := strings.ToLower(strings.TrimSpace(level))
	tokens := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	hasToken := func(want string) bool {
		for _, token := range tokens {
			if token == want {
				return true
			}
		}
		return false
	}

	switch {
	case normalized == "s2":
		return 150
	case hasToken("s3") || strings.Contains(normalized, "doktor"):
		return 200
	case hasToken("s2") || strings.Contains(normalized, "magister"):
		return 150
	default:
		return 0
	}
}

// TrainingPoints is the flat value of any diklat.
const TrainingPoints = 3.0
