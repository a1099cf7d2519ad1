package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/scholarship-api/internal/dto"
	"github.com/noah-isme/scholarship-api/internal/eligibility"
	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/internal/observability"
	"github.com/noah-isme/scholarship-api/internal/repository"
)

// MatchingService answers eligibility and recommendation queries for students.
type MatchingService interface {
	CheckEligibility(ctx context.Context, studentID, scholarshipID uint, now time.Time) (dto.EligibilityResponse, error)
	RecommendForStudent(ctx context.Context, studentID uint, now time.Time) (dto.RecommendationListResponse, error)
}

// MatchingConfig tunes recommendation listing.
type MatchingConfig struct {
	CacheTTL time.Duration
	Limit    int
}

type matchingService struct {
	students     repository.StudentRepository
	scholarships repository.ScholarshipRepository
	cache        *redis.Client
	config       MatchingConfig
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewMatchingService builds the matching service. A nil cache disables caching.
func NewMatchingService(students repository.StudentRepository, scholarships repository.ScholarshipRepository, cache *redis.Client, cfg MatchingConfig, logger zerolog.Logger) MatchingService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 20
	}

	return &matchingService{
		students:     students,
		scholarships: scholarships,
		cache:        cache,
		config:       cfg,
		logger:       logger.With().Str("component", "matching_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/scholarship-api/internal/service/matching"),
	}
}

// Recommend ranks scholarships for a student by match score, earlier deadline
// first on ties, then lower ID.
func Recommend(student models.Student, scholarships []models.Scholarship) []dto.RecommendationResponse {
	ranked := eligibility.Rank(student, scholarships)
	recommendations := make([]dto.RecommendationResponse, 0, len(ranked))
	for _, item := range ranked {
		recommendations = append(recommendations, dto.RecommendationResponse{
			ScholarshipID:        item.Scholarship.ID,
			Title:                item.Scholarship.Title,
			Score:                item.Score,
			ApplicationDeadline:  item.Scholarship.ApplicationDeadline,
			AmountPerBeneficiary: item.Scholarship.AmountPerBeneficiary,
			RemainingAwards:      item.Scholarship.RemainingAwards(),
			Reasons:              []eligibility.Reason{},
		})
	}
	return recommendations
}

func (s *matchingService) CheckEligibility(ctx context.Context, studentID, scholarshipID uint, now time.Time) (dto.EligibilityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "matching.check_eligibility", trace.WithAttributes(
		attribute.Int64("student.id", int64(studentID)),
		attribute.Int64("scholarship.id", int64(scholarshipID)),
	))
	defer span.End()

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return dto.EligibilityResponse{}, err
	}
	scholarship, err := s.scholarships.GetByID(ctx, scholarshipID)
	if err != nil {
		return dto.EligibilityResponse{}, notFoundOr(err, ErrScholarshipNotFound)
	}

	result := eligibility.Evaluate(student, scholarship, now)
	for _, reason := range result.Reasons {
		observability.EligibilityFailures().WithLabelValues(string(reason)).Inc()
	}

	return dto.EligibilityResponse{
		ScholarshipID:     scholarship.ID,
		StudentID:         student.ID,
		Eligible:          result.Eligible,
		Reasons:           result.Reasons,
		RequiredDocuments: result.RequiredDocuments,
		Score:             eligibility.Score(student, scholarship),
		ScoreVersion:      eligibility.ScoreVersion,
	}, nil
}

func (s *matchingService) RecommendForStudent(ctx context.Context, studentID uint, now time.Time) (dto.RecommendationListResponse, error) {
	cacheKey := fmt.Sprintf("recommendations:%s:student:%d", eligibility.ScoreVersion, studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.RecommendationListResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.RecommendationCache().WithLabelValues("hit").Inc()
				s.logger.Debug().Uint("student_id", studentID).Msg("recommendation cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read recommendation cache")
		}
		observability.RecommendationCache().WithLabelValues("miss").Inc()
	}

	ctx, span := s.tracer.Start(ctx, "matching.recommend", trace.WithAttributes(attribute.Int64("student.id", int64(studentID))))
	defer span.End()

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return dto.RecommendationListResponse{}, err
	}

	open, err := s.scholarships.ListOpen(ctx, now)
	if err != nil {
		span.RecordError(err)
		return dto.RecommendationListResponse{}, fmt.Errorf("list open scholarships: %w", err)
	}

	byID := make(map[uint]models.Scholarship, len(open))
	for _, scholarship := range open {
		byID[scholarship.ID] = scholarship
	}

	items := Recommend(student, open)
	if len(items) > s.config.Limit {
		items = items[:s.config.Limit]
	}
	for i := range items {
		result := eligibility.Evaluate(student, byID[items[i].ScholarshipID], now)
		items[i].Eligible = result.Eligible
		items[i].Reasons = result.Reasons
	}

	ttl := cacheTTL(open, now, s.config.CacheTTL)
	response := dto.RecommendationListResponse{
		StudentID:    studentID,
		ScoreVersion: eligibility.ScoreVersion,
		Items:        items,
		GeneratedAt:  now,
		ValidUntil:   now.Add(ttl),
	}

	if s.cache != nil && ttl > 0 {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store recommendation cache")
			}
		}
	}

	return response, nil
}

// cacheTTL shortens ttl so a cached listing expires no later than the first
// deadline among the open scholarships it was built from.
func cacheTTL(open []models.Scholarship, now time.Time, ttl time.Duration) time.Duration {
	for _, scholarship := range open {
		if untilDeadline := scholarship.ApplicationDeadline.Sub(now); untilDeadline < ttl {
			ttl = untilDeadline
		}
	}
	if ttl < 0 {
		return 0
	}
	return ttl
}

func (s *matchingService) loadStudent(ctx context.Context, id uint) (models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return models.Student{}, notFoundOr(err, ErrStudentNotFound)
	}
	return student, nil
}
