package credit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry()
	require.NoError(t, err)
	return registry
}

func payloadOf(values map[string]string) Payload {
	payload := Payload{}
	for key, value := range values {
		payload[key] = []string{value}
	}
	return payload
}

func TestRegistryCoversEveryActivityCategory(t *testing.T) {
	registry := newTestRegistry(t)
	for _, category := range registry.Categories() {
		_, ok := activitySchemas[category]
		require.True(t, ok, "missing schema for %s", category)
	}
	require.Len(t, activitySchemas, len(ActivityCategories()))
}

func TestRegistryRejectsUnknownCategory(t *testing.T) {
	registry := newTestRegistry(t)
	_, err := registry.Validate(Category("PUBLIKASI"), Payload{})
	require.ErrorIs(t, err, ErrUnrecognizedCategory)
}

func TestRegistryCoercesNumericStrings(t *testing.T) {
	registry := newTestRegistry(t)
	fields, err := registry.Validate(CategoryTeaching, payloadOf(map[string]string{
		"semesterId":  "3",
		"prodiId":     "4",
		"fakultasId":  "1",
		"mataKuliah":  "Basis Data",
		"sks":         " 3 ",
		"jumlahKelas": "2",
	}))
	require.NoError(t, err)

	teaching, ok := fields.(*Teaching)
	require.True(t, ok)
	require.Equal(t, uint(3), teaching.SemesterID)
	require.Equal(t, 3.0, teaching.SKS)
	require.Equal(t, 2, teaching.JumlahKelas)
	require.Equal(t, 6.0, teaching.TotalSKS)
	require.Equal(t, References{SemesterID: 3, FacultyID: 1, DepartmentID: 4}, teaching.References())
}

func TestRegistryReportsEveryViolation(t *testing.T) {
	registry := newTestRegistry(t)
	_, err := registry.Validate(CategoryThesisSupervision, payloadOf(map[string]string{
		"semesterId":      "abc",
		"jenisTugasAkhir": "Makalah",
		"peran":           "Pembimbing Utama",
		"jumlahMhs":       "0",
	}))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.ElementsMatch(t, []string{"namaKegiatan", "semesterId", "jenisTugasAkhir", "jumlahMhs"}, verr.FieldNames())
	require.Equal(t, []string{"must be a whole number"}, verr.Fields["semesterId"])
	require.Equal(t, []string{"is required"}, verr.Fields["namaKegiatan"])
}

func TestRegistryTeachingMaterialBranches(t *testing.T) {
	registry := newTestRegistry(t)

	t.Run("textbook requires publisher", func(t *testing.T) {
		_, err := registry.Validate(CategoryTeachingMaterial, payloadOf(map[string]string{
			"jenisProduk":   "Buku Ajar",
			"semesterId":    "1",
			"judul":         "Pemrograman Go",
			"tglTerbit":     "2024-02-01",
			"jumlahHalaman": "210",
		}))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, []string{"penerbit"}, verr.FieldNames())
	})

	t.Run("textbook accepted with optional isbn absent", func(t *testing.T) {
		fields, err := registry.Validate(CategoryTeachingMaterial, payloadOf(map[string]string{
			"jenisProduk":   "Buku Ajar",
			"semesterId":    "1",
			"judul":         "Pemrograman Go",
			"tglTerbit":     "2024-02-01",
			"penerbit":      "Penerbit Kampus",
			"jumlahHalaman": "210",
		}))
		require.NoError(t, err)
		require.IsType(t, &Textbook{}, fields)
	})

	t.Run("module does not need publisher", func(t *testing.T) {
		fields, err := registry.Validate(CategoryTeachingMaterial, payloadOf(map[string]string{
			"jenisProduk":   "Modul",
			"semesterId":    "1",
			"judul":         "Modul Praktikum Jaringan",
			"jumlahHalaman": "40",
			"prodiId":       "2",
			"fakultasId":    "1",
			"mataKuliah":    "Jaringan Komputer",
		}))
		require.NoError(t, err)
		material, ok := fields.(*TeachingMaterial)
		require.True(t, ok)
		require.Equal(t, "Modul", material.JenisProduk)
	})

	t.Run("module requires prodi", func(t *testing.T) {
		_, err := registry.Validate(CategoryTeachingMaterial, payloadOf(map[string]string{
			"jenisProduk":   "Modul",
			"semesterId":    "1",
			"judul":         "Modul Praktikum Jaringan",
			"jumlahHalaman": "40",
			"fakultasId":    "1",
			"mataKuliah":    "Jaringan Komputer",
		}))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, []string{"prodiId"}, verr.FieldNames())
	})

	t.Run("unknown product type", func(t *testing.T) {
		_, err := registry.Validate(CategoryTeachingMaterial, payloadOf(map[string]string{
			"jenisProduk": "Poster",
		}))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.True(t, verr.Has("jenisProduk"))
	})
}

func TestRegistryEnumsAndDates(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Validate(CategoryScholarlyOration, payloadOf(map[string]string{
		"semesterId":    "1",
		"judulMakalah":  "Komputasi Awan",
		"namaPertemuan": "Dies Natalis",
		"tingkat":       "Galaksi",
		"penyelenggara": "Universitas",
		"tanggal":       "kemarin",
	}))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.ElementsMatch(t, []string{"tingkat", "tanggal"}, verr.FieldNames())

	fields, err := registry.Validate(CategoryLecturerMentoring, payloadOf(map[string]string{
		"semesterId":        "1",
		"prodiId":           "2",
		"tglMulai":          "2024-01-01",
		"tglSelesai":        "2024-06-30T00:00:00Z",
		"jenisBimbingan":    "Pencangkokan",
		"jabatanFungsional": "Lektor Kepala",
		"dosenPembimbing":   "Dr. Sari",
		"bidangKeahlian":    "Kecerdasan Buatan",
	}))
	require.NoError(t, err)
	mentoring := fields.(*LecturerMentoring)
	require.Equal(t, string(RankSeniorLecturer), mentoring.JabatanFungsional)
}

func TestRegistryRejectsNonFiniteNumbers(t *testing.T) {
	registry := newTestRegistry(t)

	for _, value := range []string{"Inf", "+Infinity", "-Inf", "NaN"} {
		t.Run("sks "+value, func(t *testing.T) {
			_, err := registry.Validate(CategoryTeaching, payloadOf(map[string]string{
				"semesterId":  "3",
				"prodiId":     "4",
				"fakultasId":  "1",
				"mataKuliah":  "Basis Data",
				"sks":         value,
				"jumlahKelas": "2",
			}))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.True(t, verr.Has("sks"))
		})
	}

	_, err := registry.Validate(CategorySelfDevelopment, payloadOf(map[string]string{
		"lamaJam": "Inf",
	}))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{"must be a finite number"}, verr.Fields["lamaJam"])
}
