package credit

import "strings"

// Rank is a lecturer's functional academic rank (jabatan fungsional).
type Rank string

const (
	RankAssistantExpert Rank = "ASISTEN_AHLI"
	RankLecturer        Rank = "LEKTOR"
	RankSeniorLecturer  Rank = "LEKTOR_KEPALA"
	RankProfessor       Rank = "GURU_BESAR"
)

var rankLabels = map[Rank]string{
	RankAssistantExpert: "Asisten Ahli",
	RankLecturer:        "Lektor",
	RankSeniorLecturer:  "Lektor Kepala",
	RankProfessor:       "Guru Besar",
}

// Ranks returns the four-level ladder, lowest first.
func Ranks() []Rank {
	return []Rank{RankAssistantExpert, RankLecturer, RankSeniorLecturer, RankProfessor}
}

// Label returns the human readable rank name.
func (r Rank) Label() string {
	return rankLabels[r]
}

// ParseRank accepts either the stored code ("LEKTOR_KEPALA") or the label ("Lektor Kepala").
func ParseRank(raw string) (Rank, bool) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(raw, "_", " ")), "_"))
	for _, rank := range Ranks() {
		if string(rank) == normalized {
			return rank, true
		}
	}
	return "", false
}
