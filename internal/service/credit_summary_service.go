package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sidupak-api/internal/credit"
	"github.com/noah-isme/sidupak-api/internal/dto"
	"github.com/noah-isme/sidupak-api/internal/observability"
	"github.com/noah-isme/sidupak-api/internal/repository"
)

// SummaryInvalidator drops cached summaries after a lecturer's submissions changed.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context, ownerID uint)
}

// CreditSummaryService totals the credit points of a lecturer.
type CreditSummaryService interface {
	SummaryInvalidator
	GetSummary(ctx context.Context, actor Actor, dosenID *uint) (dto.CreditSummaryResponse, bool, error)
}

type creditSummaryService struct {
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewCreditSummaryService builds the summary aggregator. cache may be nil.
func NewCreditSummaryService(submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) CreditSummaryService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &creditSummaryService{
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "credit_summary_service").Logger(),
	}
}

func summaryCacheKey(ownerID uint) string {
	return fmt.Sprintf("credit:summary:%d", ownerID)
}

func (s *creditSummaryService) GetSummary(ctx context.Context, actor Actor, dosenID *uint) (dto.CreditSummaryResponse, bool, error) {
	ownerID, err := summaryOwner(actor, dosenID)
	if err != nil {
		return dto.CreditSummaryResponse{}, false, err
	}

	cacheKey := summaryCacheKey(ownerID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.CreditSummaryResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.SummaryCache().WithLabelValues("hit").Inc()
				s.logger.Debug().Uint("dosen_id", ownerID).Msg("credit summary cache hit")
				return response, true, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read credit summary cache")
		}
		observability.SummaryCache().WithLabelValues("miss").Inc()
	}

	totals, err := s.submissions.TotalsByOwner(ctx, ownerID)
	if err != nil {
		return dto.CreditSummaryResponse{}, false, err
	}

	response := buildSummary(ownerID, totals)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store credit summary cache")
			}
		}
	}

	return response, false, nil
}

func (s *creditSummaryService) Invalidate(ctx context.Context, ownerID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, summaryCacheKey(ownerID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("dosen_id", ownerID).Msg("failed to invalidate credit summary cache")
	}
}

func summaryOwner(actor Actor, dosenID *uint) (uint, error) {
	switch {
	case actor.Role == credit.RoleLecturer:
		if actor.ID == 0 {
			return 0, ErrForbidden
		}
		return actor.ID, nil
	case credit.SeesAllOwners(actor.Role):
		if dosenID == nil || *dosenID == 0 {
			verr := credit.NewValidationError("dosenId is required")
			verr.Add("dosenId", "is required")
			return 0, verr
		}
		return *dosenID, nil
	default:
		return 0, ErrForbidden
	}
}

func buildSummary(ownerID uint, totals []repository.CategoryTotal) dto.CreditSummaryResponse {
	response := dto.CreditSummaryResponse{DosenID: ownerID, Families: []dto.FamilySummary{}}
	index := map[string]int{}

	for _, row := range totals {
		position, ok := index[row.Family]
		if !ok {
			response.Families = append(response.Families, dto.FamilySummary{Family: row.Family, Categories: []dto.CategorySummary{}})
			position = len(response.Families) - 1
			index[row.Family] = position
		}

		family := &response.Families[position]
		family.Categories = append(family.Categories, dto.CategorySummary{
			Kategori: row.Category,
			TotalPak: row.Total,
			Count:    row.Count,
		})
		family.TotalPak += row.Total
		family.Count += row.Count
		response.TotalPak += row.Total
		response.TotalCount += row.Count
	}

	return response
}
