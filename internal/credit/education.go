package credit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormalEducation is a completed degree (Pendidikan Formal).
type FormalEducation struct {
	Kegiatan        string `json:"kegiatan,omitempty"`
	Jenjang         string `json:"jenjang"`
	Prodi           string `json:"prodi"`
	Fakultas        string `json:"fakultas"`
	PerguruanTinggi string `json:"perguruanTinggi"`
	LulusTahun      int    `json:"lulusTahun"`
}

func (*FormalEducation) Category() Category { return CategoryFormalEducation }

func (*FormalEducation) References() References { return References{} }

func (f *FormalEducation) points(Rank) float64 { return FormalEducationPoints(f.Jenjang) }

// Training is a completed diklat.
type Training struct {
	Kegiatan       string     `json:"kegiatan,omitempty"`
	JenisDiklat    string     `json:"jenisDiklat"`
	NamaDiklat     string     `json:"namaDiklat"`
	Penyelenggara  string     `json:"penyelenggara"`
	Peran          string     `json:"peran"`
	Tingkatan      string     `json:"tingkatan"`
	JumlahJam      float64    `json:"jumlahJam"`
	NoSertifikat   string     `json:"noSertifikat,omitempty"`
	TglSertifikat  *time.Time `json:"tglSertifikat,omitempty"`
	Tempat         string     `json:"tempat,omitempty"`
	TanggalMulai   time.Time  `json:"tanggalMulai"`
	TanggalSelesai time.Time  `json:"tanggalSelesai"`
}

func (*Training) Category() Category { return CategoryTraining }

func (*Training) References() References { return References{} }

func (*Training) points(Rank) float64 { return TrainingPoints }

var trainingLevels = []string{"LOKAL", "REGIONAL", "NASIONAL", "INTERNASIONAL"}

var (
	formalEducationRequired = []string{"jenjang", "prodi", "fakultas", "perguruanTinggi", "lulusTahun"}
	trainingRequired        = []string{"jenisDiklat", "namaDiklat", "penyelenggara", "peran", "tingkatan", "jumlahJam", "tanggalMulai", "tanggalSelesai"}
)

// EducationValidator checks formal education and diklat payloads with a required-field
// sweep: all missing names are collected into one error before any value is parsed.
type EducationValidator struct {
	now func() time.Time
}

// NewEducationValidator builds the education payload validator.
func NewEducationValidator() *EducationValidator {
	return &EducationValidator{now: time.Now}
}

// Categories lists the education categories.
func (v *EducationValidator) Categories() []Category {
	return EducationCategories()
}

// Validate checks payload for one education category.
func (v *EducationValidator) Validate(category Category, payload Payload) (Fields, error) {
	switch category {
	case CategoryFormalEducation:
		return v.formalEducation(payload)
	case CategoryTraining:
		return v.training(payload)
	default:
		return nil, fmt.Errorf("%q: %w", category, ErrUnrecognizedCategory)
	}
}

func (v *EducationValidator) formalEducation(payload Payload) (Fields, error) {
	if err := sweepRequired(payload, formalEducationRequired, "incomplete formal education data"); err != nil {
		return nil, err
	}

	verr := NewValidationError("invalid formal education data")
	year, err := strconv.Atoi(payload.Get("lulusTahun"))
	switch {
	case err != nil:
		verr.Add("lulusTahun", "must be a whole number")
	case year < 1900 || year > v.now().Year():
		verr.Add("lulusTahun", fmt.Sprintf("must be between 1900 and %d", v.now().Year()))
	}
	if !verr.Empty() {
		return nil, verr
	}

	return &FormalEducation{
		Kegiatan:        payload.Get("kegiatan"),
		Jenjang:         payload.Get("jenjang"),
		Prodi:           payload.Get("prodi"),
		Fakultas:        payload.Get("fakultas"),
		PerguruanTinggi: payload.Get("perguruanTinggi"),
		LulusTahun:      year,
	}, nil
}

func (v *EducationValidator) training(payload Payload) (Fields, error) {
	if err := sweepRequired(payload, trainingRequired, "incomplete training data"); err != nil {
		return nil, err
	}

	verr := NewValidationError("invalid training data")
	out := &Training{
		Kegiatan:      payload.Get("kegiatan"),
		JenisDiklat:   payload.Get("jenisDiklat"),
		NamaDiklat:    payload.Get("namaDiklat"),
		Penyelenggara: payload.Get("penyelenggara"),
		Peran:         payload.Get("peran"),
		Tingkatan:     strings.ToUpper(payload.Get("tingkatan")),
		NoSertifikat:  payload.Get("noSertifikat"),
		Tempat:        payload.Get("tempat"),
	}

	if !containsString(trainingLevels, out.Tingkatan) {
		verr.Add("tingkatan", "must be one of "+strings.Join(trainingLevels, " "))
	}

	hours, err := strconv.ParseFloat(payload.Get("jumlahJam"), 64)
	if err != nil || !isFinite(hours) || hours <= 0 {
		verr.Add("jumlahJam", "must be a positive number")
	}
	out.JumlahJam = hours

	if out.TanggalMulai, err = parseDate(payload.Get("tanggalMulai")); err != nil {
		verr.Add("tanggalMulai", "must be a date (YYYY-MM-DD)")
	}
	if out.TanggalSelesai, err = parseDate(payload.Get("tanggalSelesai")); err != nil {
		verr.Add("tanggalSelesai", "must be a date (YYYY-MM-DD)")
	}
	if !verr.Has("tanggalMulai") && !verr.Has("tanggalSelesai") && out.TanggalSelesai.Before(out.TanggalMulai) {
		verr.Add("tanggalSelesai", "must not be before tanggalMulai")
	}

	if raw := payload.Get("tglSertifikat"); raw != "" {
		issued, err := parseDate(raw)
		if err != nil {
			verr.Add("tglSertifikat", "must be a date (YYYY-MM-DD)")
		} else {
			out.TglSertifikat = &issued
		}
	}

	if !verr.Empty() {
		return nil, verr
	}
	return out, nil
}

func sweepRequired(payload Payload, required []string, message string) error {
	missing := make([]string, 0)
	for _, name := range required {
		if payload.Get(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	verr := NewValidationError(message + ": " + strings.Join(missing, ", "))
	for _, name := range missing {
		verr.Add(name, "is required")
	}
	return verr
}

func parseDate(value string) (time.Time, error) {
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, value)
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
