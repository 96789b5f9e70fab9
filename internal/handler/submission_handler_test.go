package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sidupak-api/internal/credit"
	"github.com/noah-isme/sidupak-api/internal/handler"
	"github.com/noah-isme/sidupak-api/internal/models"
	"github.com/noah-isme/sidupak-api/internal/repository"
	"github.com/noah-isme/sidupak-api/internal/service"
	"github.com/noah-isme/sidupak-api/internal/storage"
)

const samplePDF = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF"

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Meta    map[string]float64  `json:"meta"`
	Details map[string][]string `json:"details"`
}

type submissionData struct {
	ID       uint    `json:"id"`
	Kategori string  `json:"kategori"`
	DosenID  uint    `json:"dosenId"`
	NilaiPak float64 `json:"nilaiPak"`
	FilePath string  `json:"filePath"`
}

type handlerFixture struct {
	app        *fiber.App
	db         *gorm.DB
	fs         afero.Fs
	semester   models.Semester
	faculty    models.Faculty
	department models.Department
}

func newHandlerFixture(t *testing.T, maxUpload int64) *handlerFixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Lecturer{}, &models.Faculty{}, &models.Department{}, &models.Semester{}, &models.Submission{}, &models.AuditLog{}))

	require.NoError(t, db.Create(&models.Lecturer{ID: 10, Nama: "Dr. Ani", Jabatan: "Lektor"}).Error)
	require.NoError(t, db.Create(&models.Lecturer{ID: 11, Nama: "Budi", Jabatan: "Asisten Ahli"}).Error)

	fixture := &handlerFixture{db: db, fs: afero.NewMemMapFs()}
	fixture.semester = models.Semester{Nama: "Genap 2024/2025", Aktif: true}
	require.NoError(t, db.Create(&fixture.semester).Error)
	fixture.faculty = models.Faculty{Kode: "FT", Nama: "Teknik"}
	require.NoError(t, db.Create(&fixture.faculty).Error)
	fixture.department = models.Department{FacultyID: fixture.faculty.ID, Kode: "TI", Nama: "Teknik Informatika"}
	require.NoError(t, db.Create(&fixture.department).Error)

	store, err := storage.NewFSStore(fixture.fs, "uploads/pelaksanaan-pendidikan")
	require.NoError(t, err)

	registry, err := credit.NewRegistry()
	require.NoError(t, err)

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := service.NewSubmissionService(service.SubmissionDependencies{
		Family:      models.FamilyActivity,
		Rules:       registry,
		Store:       store,
		Submissions: repository.NewSubmissionRepository(db),
		Lecturers:   repository.NewLecturerRepository(db),
		References:  repository.NewReferenceRepository(db),
		Audit:       service.NewAuditService(repository.NewAuditLogRepository(db), validate, logger),
		Validator:   validate,
	}, logger)

	app := fiber.New()
	group := app.Group("/api/v1/activities", func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			parsed, _ := strconv.ParseUint(id, 10, 64)
			c.Locals("user_id", uint(parsed))
		}
		c.Locals("user_role", c.Get("X-Test-Role"))
		return c.Next()
	})
	handler.NewSubmissionHandler(svc, maxUpload, logger).Register(group, nil)
	fixture.app = app

	return fixture
}

func (f *handlerFixture) teachingForm() map[string]string {
	return map[string]string{
		"kategori":    "PERKULIAHAN",
		"semesterId":  fmt.Sprint(f.semester.ID),
		"fakultasId":  fmt.Sprint(f.faculty.ID),
		"prodiId":     fmt.Sprint(f.department.ID),
		"mataKuliah":  "Algoritma",
		"sks":         "2",
		"jumlahKelas": "6",
	}
}

func multipartBody(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func (f *handlerFixture) do(t *testing.T, method, path string, body io.Reader, contentType string, userID uint, role string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(userID), 10))
	}
	req.Header.Set("X-Test-Role", role)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (f *handlerFixture) create(t *testing.T, userID uint, fields map[string]string) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, fields, "sk-mengajar.pdf", []byte(samplePDF))
	return f.do(t, http.MethodPost, "/api/v1/activities", body, contentType, userID, "dosen")
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestSubmissionHandlerCreateAndStreamEvidence(t *testing.T) {
	fixture := newHandlerFixture(t, 0)

	resp := fixture.create(t, 10, fixture.teachingForm())
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	payload := decodeEnvelope(t, resp)
	require.True(t, payload.Success)

	var created submissionData
	require.NoError(t, json.Unmarshal(payload.Data, &created))
	require.Equal(t, "PERKULIAHAN", created.Kategori)
	require.Equal(t, uint(10), created.DosenID)
	require.Equal(t, 11.0, created.NilaiPak)

	path := fmt.Sprintf("/api/v1/activities/%d/file?download=true", created.ID)
	resp = fixture.do(t, http.MethodGet, path, nil, "", 10, "dosen")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Disposition"), "attachment;"))
	require.Contains(t, resp.Header.Get("Cache-Control"), "no-cache")
	content, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, samplePDF, string(content))

	resp = fixture.do(t, http.MethodGet, fmt.Sprintf("/api/v1/activities/%d/preview", created.ID), nil, "", 1, "validator")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Disposition"), "inline;"))
	require.Equal(t, "private, max-age=3600", resp.Header.Get("Cache-Control"))
}

func TestSubmissionHandlerReportsFieldErrors(t *testing.T) {
	fixture := newHandlerFixture(t, 0)

	body, contentType := multipartBody(t, map[string]string{
		"kategori":   "PERKULIAHAN",
		"semesterId": fmt.Sprint(fixture.semester.ID),
		"sks":        "dua",
	}, "", nil)
	resp := fixture.do(t, http.MethodPost, "/api/v1/activities", body, contentType, 10, "dosen")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.False(t, payload.Success)
	require.Contains(t, payload.Details, "file")
	require.Contains(t, payload.Details, "sks")
	require.Contains(t, payload.Details, "mataKuliah")

	var count int64
	require.NoError(t, fixture.db.Model(&models.Submission{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSubmissionHandlerUploadBoundary(t *testing.T) {
	fixture := newHandlerFixture(t, 64)

	body, contentType := multipartBody(t, fixture.teachingForm(), "notes.pdf", []byte("just some plain text"))
	resp := fixture.do(t, http.MethodPost, "/api/v1/activities", body, contentType, 10, "dosen")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	large := []byte(samplePDF + strings.Repeat(" ", 128))
	body, contentType = multipartBody(t, fixture.teachingForm(), "big.pdf", large)
	resp = fixture.do(t, http.MethodPost, "/api/v1/activities", body, contentType, 10, "dosen")
	require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)

	resp = fixture.do(t, http.MethodPost, "/api/v1/activities", strings.NewReader(`{"kategori":"PERKULIAHAN"}`), "application/json", 10, "dosen")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	entries, err := afero.ReadDir(fixture.fs, "uploads/pelaksanaan-pendidikan")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSubmissionHandlerUnknownCategory(t *testing.T) {
	fixture := newHandlerFixture(t, 0)

	form := fixture.teachingForm()
	form["kategori"] = "PENELITIAN"
	resp := fixture.create(t, 10, form)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSubmissionHandlerOwnershipAndRoles(t *testing.T) {
	fixture := newHandlerFixture(t, 0)

	resp := fixture.create(t, 10, fixture.teachingForm())
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created submissionData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &created))
	itemPath := fmt.Sprintf("/api/v1/activities/%d", created.ID)

	resp = fixture.do(t, http.MethodGet, itemPath, nil, "", 11, "dosen")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = fixture.do(t, http.MethodGet, itemPath, nil, "", 2, "validator")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = fixture.do(t, http.MethodDelete, itemPath, nil, "", 2, "validator")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	body, contentType := multipartBody(t, fixture.teachingForm(), "x.pdf", []byte(samplePDF))
	resp = fixture.do(t, http.MethodPost, "/api/v1/activities", body, contentType, 1, "admin")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = fixture.do(t, http.MethodGet, "/api/v1/activities", nil, "", 0, "dosen")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = fixture.do(t, http.MethodGet, "/api/v1/activities/abc", nil, "", 10, "dosen")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = fixture.do(t, http.MethodDelete, itemPath, nil, "", 10, "dosen")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = fixture.do(t, http.MethodGet, itemPath, nil, "", 10, "dosen")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	entries, err := afero.ReadDir(fixture.fs, "uploads/pelaksanaan-pendidikan")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSubmissionHandlerListAndUpdate(t *testing.T) {
	fixture := newHandlerFixture(t, 0)

	for i := 0; i < 3; i++ {
		resp := fixture.create(t, 10, fixture.teachingForm())
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}
	resp := fixture.create(t, 11, fixture.teachingForm())
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = fixture.do(t, http.MethodGet, "/api/v1/activities?page=1&limit=2&sortBy=id&order=asc", nil, "", 10, "dosen")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	payload := decodeEnvelope(t, resp)
	var items []submissionData
	require.NoError(t, json.Unmarshal(payload.Data, &items))
	require.Len(t, items, 2)
	require.Less(t, items[0].ID, items[1].ID)
	require.Equal(t, map[string]float64{"page": 1, "limit": 2, "total": 3, "totalPages": 2}, payload.Meta)

	resp = fixture.do(t, http.MethodGet, "/api/v1/activities?dosenId=11", nil, "", 1, "admin")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	payload = decodeEnvelope(t, resp)
	require.Equal(t, float64(1), payload.Meta["total"])

	resp = fixture.do(t, http.MethodGet, "/api/v1/activities?limit=500", nil, "", 10, "dosen")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	form := fixture.teachingForm()
	form["jumlahKelas"] = "12"
	body, contentType := multipartBody(t, form, "", nil)
	resp = fixture.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/activities/%d", items[0].ID), body, contentType, 10, "dosen")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var updated submissionData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &updated))
	require.Equal(t, 17.0, updated.NilaiPak)
	require.Equal(t, items[0].FilePath, updated.FilePath)

	form["kategori"] = "SEMINAR"
	body, contentType = multipartBody(t, form, "", nil)
	resp = fixture.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/activities/%d", items[0].ID), body, contentType, 10, "dosen")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Contains(t, decodeEnvelope(t, resp).Details, "kategori")
}
