package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sidupak-api/internal/credit"
	"github.com/noah-isme/sidupak-api/internal/dto"
	"github.com/noah-isme/sidupak-api/internal/models"
	"github.com/noah-isme/sidupak-api/internal/repository"
	"github.com/noah-isme/sidupak-api/internal/storage"
)

const evidenceDir = "uploads/pelaksanaan-pendidikan"

var (
	lecturerA   = Actor{ID: 10, Role: credit.RoleLecturer}
	lecturerB   = Actor{ID: 11, Role: credit.RoleLecturer}
	unranked    = Actor{ID: 12, Role: credit.RoleLecturer}
	adminActor  = Actor{ID: 1, Role: credit.RoleAdmin}
	validatorAc = Actor{ID: 2, Role: credit.RoleValidator}
)

type recordingPublisher struct {
	events []SubmissionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event SubmissionEvent) error {
	p.events = append(p.events, event)
	return nil
}

type recordingInvalidator struct {
	owners []uint
}

func (r *recordingInvalidator) Invalidate(_ context.Context, ownerID uint) {
	r.owners = append(r.owners, ownerID)
}

type failingCreateRepo struct {
	repository.SubmissionRepository
}

func (f failingCreateRepo) Create(context.Context, *models.Submission) error {
	return errors.New("database unavailable")
}

type failingUpdateRepo struct {
	repository.SubmissionRepository
}

func (f failingUpdateRepo) Update(context.Context, *models.Submission) error {
	return errors.New("database unavailable")
}

type submissionFixture struct {
	db          *gorm.DB
	fs          afero.Fs
	store       *storage.FSStore
	submissions repository.SubmissionRepository
	events      *recordingPublisher
	summary     *recordingInvalidator
	semester    models.Semester
	faculty     models.Faculty
	department  models.Department
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func ptrUint(v uint) *uint {
	return &v
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Lecturer{}, &models.Faculty{}, &models.Department{}, &models.Semester{}, &models.Submission{}, &models.AuditLog{}))

	require.NoError(t, db.Create(&models.Lecturer{ID: lecturerA.ID, Nama: "Dr. Ani", Jabatan: string(credit.RankLecturer)}).Error)
	require.NoError(t, db.Create(&models.Lecturer{ID: lecturerB.ID, Nama: "Budi", Jabatan: string(credit.RankAssistantExpert)}).Error)
	require.NoError(t, db.Create(&models.Lecturer{ID: unranked.ID, Nama: "Citra"}).Error)

	fixture := &submissionFixture{
		db:      db,
		fs:      afero.NewMemMapFs(),
		events:  &recordingPublisher{},
		summary: &recordingInvalidator{},
	}
	fixture.semester = models.Semester{Nama: "Ganjil 2024/2025", Aktif: true}
	require.NoError(t, db.Create(&fixture.semester).Error)
	fixture.faculty = models.Faculty{Kode: "FT", Nama: "Teknik"}
	require.NoError(t, db.Create(&fixture.faculty).Error)
	fixture.department = models.Department{FacultyID: fixture.faculty.ID, Kode: "TI", Nama: "Teknik Informatika"}
	require.NoError(t, db.Create(&fixture.department).Error)

	fixture.store, err = storage.NewFSStore(fixture.fs, evidenceDir)
	require.NoError(t, err)
	fixture.submissions = repository.NewSubmissionRepository(db)

	return fixture
}

func (f *submissionFixture) service(t *testing.T, family string, rules credit.Validator, submissions repository.SubmissionRepository) SubmissionService {
	t.Helper()
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewSubmissionService(SubmissionDependencies{
		Family:      family,
		Rules:       rules,
		Store:       f.store,
		Submissions: submissions,
		Lecturers:   repository.NewLecturerRepository(f.db),
		References:  repository.NewReferenceRepository(f.db),
		Audit:       NewAuditService(repository.NewAuditLogRepository(f.db), validate, testLogger()),
		Events:      f.events,
		Summary:     f.summary,
		Validator:   validate,
	}, testLogger())
}

func (f *submissionFixture) activityService(t *testing.T) SubmissionService {
	t.Helper()
	registry, err := credit.NewRegistry()
	require.NoError(t, err)
	return f.service(t, models.FamilyActivity, registry, f.submissions)
}

func (f *submissionFixture) teachingPayload(sks, classes string) credit.Payload {
	return credit.Payload{
		"semesterId":  {fmt.Sprint(f.semester.ID)},
		"prodiId":     {fmt.Sprint(f.department.ID)},
		"fakultasId":  {fmt.Sprint(f.faculty.ID)},
		"mataKuliah":  {"Basis <b>Data</b>"},
		"sks":         {sks},
		"jumlahKelas": {classes},
	}
}

func (f *submissionFixture) evidenceFiles(t *testing.T) []string {
	t.Helper()
	entries, err := afero.ReadDir(f.fs, evidenceDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func pdfEvidence(name string) *Evidence {
	return &Evidence{OriginalName: name, Content: []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF")}
}

func TestSubmissionServiceCreateScoresAndStoresEvidence(t *testing.T) {
	fixture := newSubmissionFixture(t)
	svc := fixture.activityService(t)

	created, err := svc.Create(context.Background(), lecturerA, "PERKULIAHAN", fixture.teachingPayload("2", "6"), pdfEvidence("SK Mengajar.PDF"))
	require.NoError(t, err)

	require.NotZero(t, created.ID)
	require.Equal(t, 11.0, created.NilaiPak)
	require.Equal(t, string(credit.RankLecturer), created.RankAtSubmission)
	require.Equal(t, lecturerA.ID, created.DosenID)
	require.Equal(t, fixture.semester.ID, *created.SemesterID)
	require.NotNil(t, created.Dosen)
	require.Equal(t, "Dr. Ani", created.Dosen.Nama)
	require.Contains(t, string(created.Fields), `"mataKuliah":"Basis Data"`)
	require.True(t, strings.HasSuffix(created.FilePath, ".pdf"))
	require.Equal(t, []string{created.FilePath}, fixture.evidenceFiles(t))

	require.Len(t, fixture.events.events, 1)
	require.Equal(t, EventSubmissionCreated, fixture.events.events[0].Type)
	require.Equal(t, []uint{lecturerA.ID}, fixture.summary.owners)

	var audits []models.AuditLog
	require.NoError(t, fixture.db.Find(&audits).Error)
	require.Len(t, audits, 1)
	require.Equal(t, "submission.created", audits[0].Action)
	require.Equal(t, created.ID, *audits[0].EntityID)
}

func TestSubmissionServiceOwnershipRoundTrip(t *testing.T) {
	fixture := newSubmissionFixture(t)
	svc := fixture.activityService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, lecturerA, "PERKULIAHAN", fixture.teachingPayload("1", "10"), pdfEvidence("a.pdf"))
	require.NoError(t, err)

	_, err = svc.Get(ctx, lecturerA, created.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, adminActor, created.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, validatorAc, created.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, lecturerB, created.ID)
	require.ErrorIs(t, err, ErrForbidden)
	require.ErrorIs(t, svc.Delete(ctx, lecturerB, created.ID), ErrForbidden)
	require.ErrorIs(t, svc.Delete(ctx, validatorAc, created.ID), ErrForbidden)

	stream, err := svc.OpenEvidence(ctx, validatorAc, created.ID)
	require.NoError(t, err)
	content, err := io.ReadAll(stream.Reader)
	require.NoError(t, err)
	require.NoError(t, stream.Reader.Close())
	require.True(t, strings.HasPrefix(string(content), "%PDF-"))

	require.NoError(t, svc.Delete(ctx, lecturerA, created.ID))
	require.Empty(t, fixture.evidenceFiles(t))

	_, err = svc.Get(ctx, lecturerA, created.ID)
	require.ErrorIs(t, err, ErrSubmissionNotFound)

	other, err := svc.Create(ctx, lecturerA, "PERKULIAHAN", fixture.teachingPayload("1", "10"), pdfEvidence("b.pdf"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, adminActor, other.ID))
}

func TestSubmissionServiceCreateRemovesEvidenceWhenPersistFails(t *testing.T) {
	fixture := newSubmissionFixture(t)
	registry, err := credit.NewRegistry()
	require.NoError(t, err)
	svc := fixture.service(t, models.FamilyActivity, registry, failingCreateRepo{fixture.submissions})

	_, err = svc.Create(context.Background(), lecturerA, "PERKULIAHAN", fixture.teachingPayload("2", "2"), pdfEvidence("a.pdf"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "database unavailable")

	require.Empty(t, fixture.evidenceFiles(t))
	require.Empty(t, fixture.events.events)

	var count int64
	require.NoError(t, fixture.db.Model(&models.Submission{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSubmissionServiceDeleteToleratesMissingEvidence(t *testing.T) {
	fixture := newSubmissionFixture(t)
	svc := fixture.activityService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, lecturerA, "PERKULIAHAN", fixture.teachingPayload("2", "2"), pdfEvidence("a.pdf"))
	require.NoError(t, err)
	require.NoError(t, fixture.fs.Remove(filepath.Join(evidenceDir, created.FilePath)))

	_, err = svc.OpenEvidence(ctx, lecturerA, created.ID)
	require.ErrorIs(t, err, ErrEvidenceMissing)

	require.NoError(t, svc.Delete(ctx, lecturerA, created.ID))
	_, err = svc.Get(ctx, adminActor, created.ID)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmissionServiceCreateReportsEveryViolation(t *testing.T) {
	fixture := newSubmissionFixture(t)
	svc := fixture.activityService(t)

	otherFaculty := models.Faculty{Kode: "FE", Nama: "Ekonomi"}
	require.NoError(t, fixture.db.Create(&otherFaculty).Error)

	payload := fixture.teachingPayload("2", "2")
	payload["semesterId"] = []string{"999"}
	payload["fakultasId"] = []string{fmt.Sprint(otherFaculty.ID)}
	payload["sks"] = []string{"dua"}

	_, err := svc.Create(context.Background(), lecturerA, "PERKULIAHAN", payload, nil)
	var verr *credit.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{"file", "sks"}, verr.FieldNames())
	require.Empty(t, fixture.evidenceFiles(t))

	payload["sks"] = []string{"2"}
	_, err = svc.Create(context.Background(), lecturerA, "PERKULIAHAN", payload, nil)
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{"file", "prodiId", "semesterId"}, verr.FieldNames())
}

func TestSubmissionServiceCreateRequiresRankedLecturer(t *testing.T) {
	fixture := newSubmissionFixture(t)
	svc := fixture.activityService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, unranked, "PERKULIAHAN", fixture.teachingPayload("2", "2"), pdfEvidence("a.pdf"))
	require.ErrorIs(t, err, ErrLecturerNotFound)

	_, err = svc.Create(ctx, Actor{ID: 404, Role: credit.RoleLecturer}, "PERKULIAHAN", fixture.teachingPayload("2", "2"), pdfEvidence("a.pdf"))
	require.ErrorIs(t, err, ErrLecturerNotFound)

	_, err = svc.Create(ctx, lecturerA, "PUBLIKASI", fixture.teachingPayload("2", "2"), pdfEvidence("a.pdf"))
	require.ErrorIs(t, err, credit.ErrUnrecognizedCategory)

	_, err = svc.Create(ctx, adminActor, "PERKULIAHAN", fixture.teachingPayload("2", "2"), pdfEvidence("a.pdf"))
	require.ErrorIs(t, err, ErrForbidden)
	require.Empty(t, fixture.evidenceFiles(t))
}

func TestSubmissionServiceUpdateReplacesEvidenceAndRescores(t *testing.T) {
	fixture := newSubmissionFixture(t)
	svc := fixture.activityService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, lecturerB, "PERKULIAHAN", fixture.teachingPayload("1", "10"), pdfEvidence("a.pdf"))
	require.NoError(t, err)
	require.Equal(t, 5.0, created.NilaiPak)

	_, err = svc.Update(ctx, lecturerB, created.ID, "ORASI_ILMIAH", fixture.teachingPayload("1", "11"), nil)
	var verr *credit.ValidationError
	require.ErrorAs(t, err, &verr)
	require.True(t, verr.Has("kategori"))

	_, err = svc.Update(ctx, validatorAc, created.ID, "", fixture.teachingPayload("1", "11"), nil)
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, lecturerB, created.ID, "PERKULIAHAN", fixture.teachingPayload("1", "11"), pdfEvidence("b.pdf"))
	require.NoError(t, err)
	require.Equal(t, 5.25, updated.NilaiPak)
	require.NotEqual(t, created.FilePath, updated.FilePath)
	require.Equal(t, []string{updated.FilePath}, fixture.evidenceFiles(t))

	require.NoError(t, fixture.db.Model(&models.Lecturer{}).Where("id = ?", lecturerB.ID).Update("jabatan", string(credit.RankLecturer)).Error)
	rescored, err := svc.Update(ctx, adminActor, created.ID, "", fixture.teachingPayload("1", "11"), nil)
	require.NoError(t, err)
	require.Equal(t, 10.5, rescored.NilaiPak)
	require.Equal(t, string(credit.RankLecturer), rescored.RankAtSubmission)
	require.Equal(t, updated.FilePath, rescored.FilePath)
}

func TestSubmissionServiceUpdateKeepsOriginalWhenPersistFails(t *testing.T) {
	fixture := newSubmissionFixture(t)
	ctx := context.Background()

	created, err := fixture.activityService(t).Create(ctx, lecturerA, "PERKULIAHAN", fixture.teachingPayload("2", "6"), pdfEvidence("a.pdf"))
	require.NoError(t, err)

	registry, err := credit.NewRegistry()
	require.NoError(t, err)
	svc := fixture.service(t, models.FamilyActivity, registry, failingUpdateRepo{fixture.submissions})

	_, err = svc.Update(ctx, lecturerA, created.ID, "PERKULIAHAN", fixture.teachingPayload("1", "11"), pdfEvidence("b.pdf"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "database unavailable")
	require.Equal(t, []string{created.FilePath}, fixture.evidenceFiles(t))

	stored, err := svc.Get(ctx, lecturerA, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.FilePath, stored.FilePath)
	require.Equal(t, created.NilaiPak, stored.NilaiPak)
	require.JSONEq(t, string(created.Fields), string(stored.Fields))
}

func TestSubmissionServiceCreateRejectsNonFiniteNumbers(t *testing.T) {
	fixture := newSubmissionFixture(t)
	svc := fixture.activityService(t)

	for _, sks := range []string{"Inf", "+Infinity"} {
		_, err := svc.Create(context.Background(), lecturerA, "PERKULIAHAN", fixture.teachingPayload(sks, "2"), pdfEvidence("a.pdf"))
		var verr *credit.ValidationError
		require.ErrorAs(t, err, &verr, sks)
		require.True(t, verr.Has("sks"))
	}
	require.Empty(t, fixture.evidenceFiles(t))
}

func TestSubmissionServiceListScopesLecturers(t *testing.T) {
	fixture := newSubmissionFixture(t)
	svc := fixture.activityService(t)
	ctx := context.Background()

	for _, actor := range []Actor{lecturerA, lecturerA, lecturerB} {
		_, err := svc.Create(ctx, actor, "PERKULIAHAN", fixture.teachingPayload("1", "2"), pdfEvidence("a.pdf"))
		require.NoError(t, err)
	}

	own, meta, err := svc.List(ctx, lecturerB, dto.SubmissionListQuery{DosenID: ptrUint(lecturerA.ID)})
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, dto.PaginationMeta{Page: 1, Limit: 10, Total: 1, TotalPages: 1}, meta)

	all, meta, err := svc.List(ctx, validatorAc, dto.SubmissionListQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, int64(3), meta.Total)
	require.Equal(t, 2, meta.TotalPages)

	filtered, _, err := svc.List(ctx, adminActor, dto.SubmissionListQuery{DosenID: ptrUint(lecturerA.ID), SortBy: "id", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	require.Less(t, filtered[0].ID, filtered[1].ID)

	_, _, err = svc.List(ctx, adminActor, dto.SubmissionListQuery{Kategori: "Diklat"})
	var verr *credit.ValidationError
	require.ErrorAs(t, err, &verr)
	require.True(t, verr.Has("kategori"))

	_, _, err = svc.List(ctx, adminActor, dto.SubmissionListQuery{Limit: 500})
	require.ErrorAs(t, err, &verr)
	require.True(t, verr.Has("limit"))

	_, _, err = svc.List(ctx, Actor{ID: 5, Role: ""}, dto.SubmissionListQuery{})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSubmissionServiceEducationFamily(t *testing.T) {
	fixture := newSubmissionFixture(t)
	svc := fixture.service(t, models.FamilyEducation, credit.NewEducationValidator(), fixture.submissions)
	activities := fixture.activityService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, lecturerA, "Diklat", credit.Payload{"jenisDiklat": {"Teknis"}}, pdfEvidence("sertifikat.pdf"))
	var verr *credit.ValidationError
	require.ErrorAs(t, err, &verr)
	require.True(t, strings.HasPrefix(verr.Error(), "incomplete training data: "))
	require.True(t, verr.Has("namaDiklat"))

	created, err := svc.Create(ctx, lecturerA, "Pendidikan Formal", credit.Payload{
		"jenjang":         {"S3 Ilmu Komputer"},
		"prodi":           {"Ilmu Komputer"},
		"fakultas":        {"Ilmu Komputer"},
		"perguruanTinggi": {"Universitas Gadjah Mada"},
		"lulusTahun":      {"2019"},
	}, pdfEvidence("ijazah.pdf"))
	require.NoError(t, err)
	require.Equal(t, 200.0, created.NilaiPak)
	require.Nil(t, created.SemesterID)

	_, err = activities.Get(ctx, adminActor, created.ID)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
