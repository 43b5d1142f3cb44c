package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sdmteam/cvconnect-backend/internal/models"
	"github.com/sdmteam/cvconnect-backend/internal/pkg/apperror"
	"github.com/sdmteam/cvconnect-backend/internal/repository"
	"github.com/sdmteam/cvconnect-backend/internal/validation"
)

type FeedbackRepo interface {
	Create(ctx context.Context, fb *models.Feedback) error
	GetByRequestAndPIN(ctx context.Context, requestID string, pinID uuid.UUID) (*models.Feedback, error)
	AverageRating(ctx context.Context, ratedUserID uuid.UUID) (float64, int, error)
	List(ctx context.Context, f repository.FeedbackFilter) ([]models.Feedback, error)
	Stats(ctx context.Context, ratedUserID uuid.UUID) (*models.FeedbackStats, error)
	CommunityRatings(ctx context.Context) ([]models.ServiceTypeRating, error)
	RequestIDsWithFeedback(ctx context.Context, pinID uuid.UUID, requestIDs []string) (map[string]bool, error)
}

type RequestRepoForFeedback interface {
	GetByID(ctx context.Context, id string) (*models.Request, error)
	List(ctx context.Context, f repository.ListFilter) ([]models.Request, error)
}

type FeedbackService struct {
	repo     FeedbackRepo
	requests RequestRepoForFeedback
}

func NewFeedbackService(repo FeedbackRepo, requests RequestRepoForFeedback) *FeedbackService {
	return &FeedbackService{repo: repo, requests: requests}
}

// ratedParty определяет оцениваемую сторону заявки: если назначение сделал
// представитель CSR, оценивается он; иначе — назначенный волонтёр.
// Заявка без обеих сторон не подлежит оценке.
func ratedParty(req *models.Request) (uuid.UUID, string, bool) {
	if req.AssignedByID != nil {
		return *req.AssignedByID, models.RatedRoleCSRRep, true
	}
	if req.AssignedToID != nil {
		return *req.AssignedToID, models.RatedRoleCV, true
	}
	return uuid.UUID{}, "", false
}

// SubmitFeedback создаёт отзыв PIN о выполненной заявке.
// Ошибки типизированы: не найдена, не автор, не completed, нет оцениваемой
// стороны, дубликат.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, pinID uuid.UUID, requestID string, rating int, comment *string) (*models.Feedback, error) {
	if err := validation.ValidateRating(rating); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if comment != nil {
		if err := validation.ValidateLength("комментарий", *comment, 0, validation.MaxCommentLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if err == repository.ErrRequestNotFound {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, fmt.Errorf("feedback service: заявка: %w", err)
	}
	if req.RequestedByID != pinID {
		return nil, apperror.ErrForbidden
	}
	if req.Status != models.RequestStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeConflict, "отзыв можно оставить только по выполненной заявке")
	}

	ratedID, ratedRole, ok := ratedParty(req)
	if !ok {
		return nil, apperror.ErrNoRatedParty
	}

	fb := &models.Feedback{
		ID:            uuid.New(),
		RequestID:     requestID,
		PINID:         pinID,
		RatedUserID:   ratedID,
		RatedUserRole: ratedRole,
		Rating:        rating,
		Comment:       comment,
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		if err == repository.ErrFeedbackExists {
			return nil, apperror.ErrFeedbackExists
		}
		return nil, fmt.Errorf("feedback service: создание: %w", err)
	}
	return fb, nil
}

// BulkFeedbackItem элемент пакетной отправки отзывов.
type BulkFeedbackItem struct {
	RequestID string  `json:"request_id"`
	Rating    int     `json:"rating"`
	Comment   *string `json:"comment,omitempty"`
}

// BulkFeedbackFailure причина отказа по одной заявке пакета.
type BulkFeedbackFailure struct {
	RequestID string `json:"request_id"`
	Reason    string `json:"reason"`
}

// BulkFeedbackResult итог пакетной отправки: сколько принято
// и пофайловые причины отказов.
type BulkFeedbackResult struct {
	Submitted int                   `json:"submitted"`
	Failures  []BulkFeedbackFailure `json:"failures"`
}

// BulkSubmitFeedback отправляет пакет отзывов с частичным успехом:
// отказ по одной заявке не откатывает остальные.
func (s *FeedbackService) BulkSubmitFeedback(ctx context.Context, pinID uuid.UUID, items []BulkFeedbackItem) (*BulkFeedbackResult, error) {
	result := &BulkFeedbackResult{Failures: []BulkFeedbackFailure{}}
	for _, item := range items {
		if _, err := s.SubmitFeedback(ctx, pinID, item.RequestID, item.Rating, item.Comment); err != nil {
			reason := err.Error()
			if appErr, ok := err.(*apperror.AppError); ok {
				reason = appErr.Message
			}
			result.Failures = append(result.Failures, BulkFeedbackFailure{RequestID: item.RequestID, Reason: reason})
			continue
		}
		result.Submitted++
	}
	return result, nil
}

// EligibleRequest выполненная заявка PIN с признаком уже оставленного отзыва.
type EligibleRequest struct {
	Request     models.Request `json:"request"`
	HasFeedback bool           `json:"has_feedback"`
}

// EligibleRequests возвращает выполненные заявки PIN, подлежащие оценке.
// Пустой serviceType означает все типы услуг.
func (s *FeedbackService) EligibleRequests(ctx context.Context, pinID uuid.UUID, serviceType string) ([]EligibleRequest, error) {
	requests, err := s.requests.List(ctx, repository.ListFilter{
		Statuses:      []string{models.RequestStatusCompleted},
		RequestedByID: &pinID,
		ServiceType:   serviceType,
	})
	if err != nil {
		return nil, fmt.Errorf("feedback service: выполненные заявки: %w", err)
	}

	ids := make([]string, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ID)
	}
	seen, err := s.repo.RequestIDsWithFeedback(ctx, pinID, ids)
	if err != nil {
		return nil, fmt.Errorf("feedback service: оставленные отзывы: %w", err)
	}

	eligible := make([]EligibleRequest, 0, len(requests))
	for _, r := range requests {
		if _, _, ok := ratedParty(&r); !ok {
			continue
		}
		eligible = append(eligible, EligibleRequest{Request: r, HasFeedback: seen[r.ID]})
	}
	return eligible, nil
}

// CanLeaveFeedback сообщает, может ли PIN оставить отзыв по заявке.
func (s *FeedbackService) CanLeaveFeedback(ctx context.Context, pinID uuid.UUID, requestID string) (bool, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if err == repository.ErrRequestNotFound {
			return false, nil
		}
		return false, fmt.Errorf("feedback service: заявка: %w", err)
	}
	if req.RequestedByID != pinID || req.Status != models.RequestStatusCompleted {
		return false, nil
	}
	if _, _, ok := ratedParty(req); !ok {
		return false, nil
	}
	if _, err := s.repo.GetByRequestAndPIN(ctx, requestID, pinID); err == nil {
		return false, nil
	} else if err != repository.ErrFeedbackNotFound {
		return false, fmt.Errorf("feedback service: проверка отзыва: %w", err)
	}
	return true, nil
}

// AverageRating возвращает среднюю оценку и число отзывов о пользователе.
// Без отзывов — (0, 0).
func (s *FeedbackService) AverageRating(ctx context.Context, ratedUserID uuid.UUID) (float64, int, error) {
	return s.repo.AverageRating(ctx, ratedUserID)
}

// History возвращает историю отзывов по фильтру.
func (s *FeedbackService) History(ctx context.Context, f repository.FeedbackFilter) ([]models.Feedback, error) {
	if f.MinRating > 0 {
		if err := validation.ValidateRating(f.MinRating); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if f.MaxRating > 0 {
		if err := validation.ValidateRating(f.MaxRating); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	return s.repo.List(ctx, f)
}

// Stats возвращает агрегированную статистику отзывов о пользователе.
func (s *FeedbackService) Stats(ctx context.Context, ratedUserID uuid.UUID) (*models.FeedbackStats, error) {
	return s.repo.Stats(ctx, ratedUserID)
}

// CommunityRatings возвращает средние оценки по типам услуг.
func (s *FeedbackService) CommunityRatings(ctx context.Context) ([]models.ServiceTypeRating, error) {
	return s.repo.CommunityRatings(ctx)
}
