package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/sidupak-api/internal/credit"
	"github.com/noah-isme/sidupak-api/internal/dto"
	"github.com/noah-isme/sidupak-api/internal/models"
	"github.com/noah-isme/sidupak-api/internal/observability"
	"github.com/noah-isme/sidupak-api/internal/repository"
	"github.com/noah-isme/sidupak-api/internal/storage"
)

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrLecturerNotFound indicates the caller has no rank-bearing lecturer profile.
	ErrLecturerNotFound = errors.New("lecturer profile not found")
	// ErrForbidden indicates the caller may not perform the operation on the submission.
	ErrForbidden = errors.New("access to submission denied")
	// ErrEvidenceMissing indicates a stored submission whose evidence file is gone.
	ErrEvidenceMissing = errors.New("evidence file not found")
)

// Actor is the authenticated caller.
type Actor struct {
	ID   uint
	Role credit.Role
}

// EvidenceStream is an opened evidence file ready to be sent to the client.
type EvidenceStream struct {
	Reader   io.ReadCloser
	FileName string
}

// SubmissionService runs the credit submission lifecycle of one family.
type SubmissionService interface {
	Family() string
	Create(ctx context.Context, actor Actor, category string, payload credit.Payload, evidence *Evidence) (dto.SubmissionResponse, error)
	List(ctx context.Context, actor Actor, query dto.SubmissionListQuery) ([]dto.SubmissionResponse, dto.PaginationMeta, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error)
	Update(ctx context.Context, actor Actor, id uint, category string, payload credit.Payload, evidence *Evidence) (dto.SubmissionResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	OpenEvidence(ctx context.Context, actor Actor, id uint) (EvidenceStream, error)
}

// SubmissionDependencies groups the collaborators of a SubmissionService.
type SubmissionDependencies struct {
	Family      string
	Rules       credit.Validator
	Store       storage.EvidenceStore
	Submissions repository.SubmissionRepository
	Lecturers   repository.LecturerRepository
	References  repository.ReferenceRepository
	Audit       AuditRecorder
	Events      EventPublisher
	Summary     SummaryInvalidator
	Validator   *validator.Validate
}

type submissionService struct {
	family      string
	rules       credit.Validator
	store       storage.EvidenceStore
	submissions repository.SubmissionRepository
	lecturers   repository.LecturerRepository
	references  repository.ReferenceRepository
	audit       AuditRecorder
	events      EventPublisher
	summary     SummaryInvalidator
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService for deps.Family.
func NewSubmissionService(deps SubmissionDependencies, logger zerolog.Logger) SubmissionService {
	validate := deps.Validator
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &submissionService{
		family:      deps.Family,
		rules:       deps.Rules,
		store:       deps.Store,
		submissions: deps.Submissions,
		lecturers:   deps.Lecturers,
		references:  deps.References,
		audit:       deps.Audit,
		events:      deps.Events,
		summary:     deps.Summary,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Str("family", deps.Family).Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/sidupak-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) Family() string {
	return s.family
}

func (s *submissionService) Create(ctx context.Context, actor Actor, category string, payload credit.Payload, evidence *Evidence) (result dto.SubmissionResponse, err error) {
	ctx, span := s.start(ctx, "submissions.create", actor, attribute.String("submission.category", category))
	defer func() { s.finish(span, "create", err) }()

	if actor.Role != credit.RoleLecturer {
		return dto.SubmissionResponse{}, ErrForbidden
	}

	rank, err := s.rankOf(ctx, actor.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	kind := credit.Category(strings.TrimSpace(category))
	fields, err := s.validate(ctx, kind, payload, evidence == nil)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	score, err := credit.Score(kind, fields, rank)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("encode submission fields: %w", err)
	}

	name := storage.GenerateName(evidence.OriginalName)
	if err := s.store.Write(ctx, name, evidence.Reader(), evidence.Size()); err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("store evidence: %w", err)
	}

	submission := models.Submission{
		Family:           s.family,
		Category:         string(kind),
		OwnerID:          actor.ID,
		SemesterID:       optionalID(fields.References().SemesterID),
		Fields:           datatypes.JSON(encoded),
		Score:            score,
		RankAtSubmission: string(rank),
		EvidenceFile:     name,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		s.removeEvidence(ctx, name, "rollback")
		return dto.SubmissionResponse{}, fmt.Errorf("persist submission: %w", err)
	}

	created, err := s.submissions.GetByID(ctx, s.family, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionCreditScore().WithLabelValues(s.family, created.Category).Observe(created.Score)
	s.afterChange(ctx, actor, EventSubmissionCreated, created)
	s.logger.Info().
		Uint("submission_id", created.ID).
		Uint("dosen_id", created.OwnerID).
		Str("category", created.Category).
		Float64("score", created.Score).
		Msg("submission created")

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) List(ctx context.Context, actor Actor, query dto.SubmissionListQuery) (result []dto.SubmissionResponse, meta dto.PaginationMeta, err error) {
	ctx, span := s.start(ctx, "submissions.list", actor)
	defer func() { s.finish(span, "list", err) }()

	if err := s.validator.Struct(query); err != nil {
		return nil, dto.PaginationMeta{}, fromValidatorErrors("invalid list query", err)
	}

	category := strings.TrimSpace(query.Kategori)
	if category != "" && !s.knowsCategory(credit.Category(category)) {
		verr := credit.NewValidationError("invalid list query")
		verr.Add("kategori", "is not a known category")
		return nil, dto.PaginationMeta{}, verr
	}

	filter := repository.SubmissionFilter{
		Family:     s.family,
		Category:   category,
		SemesterID: query.SemesterID,
		Page:       maxInt(query.Page, 1),
		PageSize:   query.Limit,
		SortBy:     query.SortBy,
		SortDesc:   !strings.EqualFold(query.Order, "asc"),
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	if filter.SortBy == "" {
		filter.SortBy = "createdAt"
	}

	switch {
	case credit.SeesAllOwners(actor.Role):
		filter.OwnerID = query.DosenID
	case actor.Role == credit.RoleLecturer && actor.ID != 0:
		owner := actor.ID
		filter.OwnerID = &owner
	default:
		return nil, dto.PaginationMeta{}, ErrForbidden
	}

	submissions, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}

	return dto.NewSubmissionResponseSlice(submissions), dto.NewPaginationMeta(filter.Page, filter.PageSize, total), nil
}

func (s *submissionService) Get(ctx context.Context, actor Actor, id uint) (result dto.SubmissionResponse, err error) {
	ctx, span := s.start(ctx, "submissions.get", actor, attribute.Int64("submission.id", int64(id)))
	defer func() { s.finish(span, "get", err) }()

	submission, err := s.authorize(ctx, actor, id, credit.AccessRead)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Update(ctx context.Context, actor Actor, id uint, category string, payload credit.Payload, evidence *Evidence) (result dto.SubmissionResponse, err error) {
	ctx, span := s.start(ctx, "submissions.update", actor, attribute.Int64("submission.id", int64(id)))
	defer func() { s.finish(span, "update", err) }()

	submission, err := s.authorize(ctx, actor, id, credit.AccessModify)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if requested := strings.TrimSpace(category); requested != "" && requested != submission.Category {
		verr := credit.NewValidationError("category cannot be changed")
		verr.Add("kategori", "cannot be changed")
		return dto.SubmissionResponse{}, verr
	}

	rank, err := s.rankOf(ctx, submission.OwnerID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	kind := credit.Category(submission.Category)
	fields, err := s.validate(ctx, kind, payload, false)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	score, err := credit.Score(kind, fields, rank)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("encode submission fields: %w", err)
	}

	previousFile := submission.EvidenceFile
	if evidence != nil {
		name := storage.GenerateName(evidence.OriginalName)
		if err := s.store.Write(ctx, name, evidence.Reader(), evidence.Size()); err != nil {
			return dto.SubmissionResponse{}, fmt.Errorf("store evidence: %w", err)
		}
		submission.EvidenceFile = name
	}

	submission.Fields = datatypes.JSON(encoded)
	submission.SemesterID = optionalID(fields.References().SemesterID)
	submission.Semester = nil
	submission.Score = score
	submission.RankAtSubmission = string(rank)

	if err := s.submissions.Update(ctx, &submission); err != nil {
		if submission.EvidenceFile != previousFile {
			s.removeEvidence(ctx, submission.EvidenceFile, "rollback")
		}
		return dto.SubmissionResponse{}, fmt.Errorf("persist submission: %w", err)
	}

	if submission.EvidenceFile != previousFile {
		s.removeEvidence(ctx, previousFile, "replaced")
	}

	updated, err := s.submissions.GetByID(ctx, s.family, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionCreditScore().WithLabelValues(s.family, updated.Category).Observe(updated.Score)
	s.afterChange(ctx, actor, EventSubmissionUpdated, updated)
	s.logger.Info().
		Uint("submission_id", updated.ID).
		Float64("score", updated.Score).
		Bool("evidence_replaced", evidence != nil).
		Msg("submission updated")

	return dto.NewSubmissionResponse(updated), nil
}

func (s *submissionService) Delete(ctx context.Context, actor Actor, id uint) (err error) {
	ctx, span := s.start(ctx, "submissions.delete", actor, attribute.Int64("submission.id", int64(id)))
	defer func() { s.finish(span, "delete", err) }()

	submission, err := s.authorize(ctx, actor, id, credit.AccessModify)
	if err != nil {
		return err
	}

	if err := s.submissions.Delete(ctx, submission.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}

	s.removeEvidence(ctx, submission.EvidenceFile, "deleted")
	s.afterChange(ctx, actor, EventSubmissionDeleted, submission)
	s.logger.Info().Uint("submission_id", submission.ID).Msg("submission deleted")

	return nil
}

func (s *submissionService) OpenEvidence(ctx context.Context, actor Actor, id uint) (result EvidenceStream, err error) {
	ctx, span := s.start(ctx, "submissions.evidence", actor, attribute.Int64("submission.id", int64(id)))
	defer func() { s.finish(span, "evidence", err) }()

	submission, err := s.authorize(ctx, actor, id, credit.AccessRead)
	if err != nil {
		return EvidenceStream{}, err
	}

	reader, err := s.store.Open(ctx, submission.EvidenceFile)
	if err != nil {
		if errors.Is(err, storage.ErrEvidenceNotExist) {
			s.logger.Error().
				Str("anomaly", "evidence_missing").
				Uint("submission_id", submission.ID).
				Str("file", submission.EvidenceFile).
				Msg("submission exists but its evidence file is missing")
			return EvidenceStream{}, ErrEvidenceMissing
		}
		return EvidenceStream{}, err
	}

	return EvidenceStream{Reader: reader, FileName: submission.EvidenceFile}, nil
}

func (s *submissionService) authorize(ctx context.Context, actor Actor, id uint, access credit.Access) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, s.family, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	if !credit.CanAccess(actor.Role, actor.ID, submission.OwnerID, access) {
		return models.Submission{}, ErrForbidden
	}

	return submission, nil
}

func (s *submissionService) rankOf(ctx context.Context, lecturerID uint) (credit.Rank, error) {
	lecturer, err := s.lecturers.GetByID(ctx, lecturerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrLecturerNotFound
		}
		return "", err
	}

	rank, ok := credit.ParseRank(lecturer.Jabatan)
	if !ok {
		return "", fmt.Errorf("%w: no functional rank on profile %d", ErrLecturerNotFound, lecturerID)
	}
	return rank, nil
}

// validate runs the family rules, the evidence presence check and the reference checks,
// returning every violation in one ValidationError.
func (s *submissionService) validate(ctx context.Context, kind credit.Category, payload credit.Payload, evidenceMissing bool) (credit.Fields, error) {
	fields, err := s.rules.Validate(kind, s.sanitize(payload))

	var verr *credit.ValidationError
	switch {
	case err == nil:
		verr = credit.NewValidationError(fmt.Sprintf("invalid %s submission", kind))
	case errors.As(err, &verr):
	default:
		return nil, err
	}

	if evidenceMissing {
		verr.Add("file", "is required")
	}

	if fields != nil {
		refErrors, err := s.checkReferences(ctx, fields.References())
		if err != nil {
			return nil, err
		}
		verr.Merge(refErrors)
	}

	if !verr.Empty() {
		return nil, verr
	}
	return fields, nil
}

func (s *submissionService) checkReferences(ctx context.Context, refs credit.References) (*credit.ValidationError, error) {
	verr := credit.NewValidationError("")
	if s.references == nil {
		return verr, nil
	}

	if refs.SemesterID != 0 {
		ok, err := s.references.SemesterExists(ctx, refs.SemesterID)
		if err != nil {
			return nil, err
		}
		if !ok {
			verr.Add("semesterId", "does not exist")
		}
	}

	facultyKnown := refs.FacultyID == 0
	if refs.FacultyID != 0 {
		ok, err := s.references.FacultyExists(ctx, refs.FacultyID)
		if err != nil {
			return nil, err
		}
		if !ok {
			verr.Add("fakultasId", "does not exist")
		}
		facultyKnown = ok
	}

	if refs.DepartmentID != 0 {
		department, err := s.references.GetDepartment(ctx, refs.DepartmentID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			verr.Add("prodiId", "does not exist")
		case err != nil:
			return nil, err
		case refs.FacultyID != 0 && facultyKnown && department.FacultyID != refs.FacultyID:
			verr.Add("prodiId", "does not belong to fakultasId")
		}
	}

	return verr, nil
}

func (s *submissionService) sanitize(payload credit.Payload) credit.Payload {
	clean := make(credit.Payload, len(payload))
	for key, values := range payload {
		cleaned := make([]string, 0, len(values))
		for _, value := range values {
			cleaned = append(cleaned, strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value))))
		}
		clean[key] = cleaned
	}
	return clean
}

func (s *submissionService) knowsCategory(category credit.Category) bool {
	for _, known := range s.rules.Categories() {
		if known == category {
			return true
		}
	}
	return false
}

func (s *submissionService) removeEvidence(ctx context.Context, name, reason string) {
	if err := s.store.DeleteIfExists(context.WithoutCancel(ctx), name); err != nil {
		s.logger.Warn().Err(err).Str("file", name).Str("reason", reason).Msg("failed to remove evidence file")
		return
	}
	observability.EvidenceCleanup().WithLabelValues(s.family, reason).Inc()
}

func (s *submissionService) afterChange(ctx context.Context, actor Actor, eventType string, submission models.Submission) {
	if s.summary != nil {
		s.summary.Invalidate(ctx, submission.OwnerID)
	}

	if s.audit != nil {
		id := submission.ID
		if _, err := s.audit.Record(ctx, AuditEntry{
			ActorID:    actor.ID,
			ActorRole:  string(actor.Role),
			Action:     "submission." + eventType,
			EntityType: "credit_submission",
			EntityID:   &id,
			Metadata: map[string]interface{}{
				"family":   submission.Family,
				"kategori": submission.Category,
				"nilaiPak": submission.Score,
				"dosenId":  submission.OwnerID,
			},
		}); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", id).Msg("failed to record audit entry")
		}
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, SubmissionEvent{
			Type:         eventType,
			SubmissionID: submission.ID,
			Family:       submission.Family,
			Category:     submission.Category,
			OwnerID:      submission.OwnerID,
			Score:        submission.Score,
			At:           s.now().UTC(),
		}); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish submission event")
		}
	}
}

func (s *submissionService) start(ctx context.Context, name string, actor Actor, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("submission.family", s.family),
		attribute.Int64("actor.id", int64(actor.ID)),
		attribute.String("actor.role", string(actor.Role)),
	)
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *submissionService) finish(span trace.Span, operation string, err error) {
	defer span.End()

	outcome := "success"
	var verr *credit.ValidationError
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, operation)
	case errors.As(err, &verr),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrSubmissionNotFound),
		errors.Is(err, ErrLecturerNotFound),
		errors.Is(err, credit.ErrUnrecognizedCategory):
		outcome = "rejected"
		span.SetStatus(codes.Error, err.Error())
	default:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+" failed")
	}

	observability.SubmissionOperations().WithLabelValues(s.family, operation, outcome).Inc()
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
