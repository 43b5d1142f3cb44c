package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sdmteam/cvconnect-backend/internal/authz"
	"github.com/sdmteam/cvconnect-backend/internal/models"
	"github.com/sdmteam/cvconnect-backend/internal/pkg/apperror"
	"github.com/sdmteam/cvconnect-backend/internal/repository"
	"github.com/sdmteam/cvconnect-backend/internal/validation"
)

type RequestRepo interface {
	Create(ctx context.Context, req *models.Request) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
	List(ctx context.Context, f repository.ListFilter) ([]models.Request, error)
	Update(ctx context.Context, req *models.Request) error
	Accept(ctx context.Context, requestID string, cvID uuid.UUID, now time.Time) (bool, error)
	Reject(ctx context.Context, requestID string) (bool, error)
	Complete(ctx context.Context, requestID string, cvID uuid.UUID, completedAt time.Time) (bool, error)
	Cancel(ctx context.Context, requestID string, pinID uuid.UUID, cancelledAt time.Time) (bool, error)
	MarkLateOverdue(ctx context.Context, now time.Time) (int64, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type CategoryRepoForRequest interface {
	GetByID(ctx context.Context, id int64) (*models.Category, error)
}

// CompletionNotifier уведомляет автора заявки о её завершении.
// Реализуется ws-хабом; в тестах подменяется заглушкой либо nil.
type CompletionNotifier interface {
	NotifyCompleted(requestID string, pinID uuid.UUID)
}

// RequestInput входные поля заявки при создании и обновлении.
type RequestInput struct {
	Title          string
	Description    string
	ServiceType    string
	Location       string
	Urgency        string
	SkillsRequired *string
	StartDate      time.Time
	EndDate        time.Time
	CategoryID     *int64
}

type RequestService struct {
	repo       RequestRepo
	categories CategoryRepoForRequest
	notifier   CompletionNotifier

	// completionOffset прибавляется к моменту завершения заявки
	// при записи completed_date. По умолчанию нулевой.
	completionOffset time.Duration
	now              func() time.Time
}

func NewRequestService(repo RequestRepo, categories CategoryRepoForRequest, notifier CompletionNotifier, completionOffset time.Duration) *RequestService {
	return &RequestService{
		repo:             repo,
		categories:       categories,
		notifier:         notifier,
		completionOffset: completionOffset,
		now:              time.Now,
	}
}

// CreateRequest создаёт заявку от имени PIN. Новая заявка всегда pending.
func (s *RequestService) CreateRequest(ctx context.Context, actor authz.Actor, in RequestInput) (*models.Request, error) {
	if !authz.Can(actor, authz.ActionCreateRequest, nil) {
		return nil, apperror.ErrForbidden
	}
	if err := validation.ValidateRequestInput(in.Title, in.Description, in.ServiceType, in.Location, in.Urgency, in.StartDate, in.EndDate); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *in.CategoryID); err != nil {
			if err == repository.ErrCategoryNotFound {
				return nil, apperror.ErrCategoryNotFound
			}
			return nil, fmt.Errorf("request service: категория: %w", err)
		}
	}

	req := &models.Request{
		RequestedByID:  actor.ID,
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		ServiceType:    strings.TrimSpace(in.ServiceType),
		Location:       strings.TrimSpace(in.Location),
		Urgency:        in.Urgency,
		SkillsRequired: in.SkillsRequired,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Status:         models.RequestStatusPending,
		CategoryID:     in.CategoryID,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("request service: создание: %w", err)
	}
	return req, nil
}

// GetRequest возвращает заявку с действительным статусом.
func (s *RequestService) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrRequestNotFound {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, fmt.Errorf("request service: получение: %w", err)
	}
	models.ApplyEffectiveStatus(req, s.now())
	return req, nil
}

// RequestListFilter параметры выдачи списков заявок.
// Status фильтрует по действительному, а не хранимому статусу.
type RequestListFilter struct {
	Status        string
	RequestedByID *uuid.UUID
	AssignedToID  *uuid.UUID
	CategoryID    *int64
	Uncategorized bool
	ServiceType   string
	Location      string
	Search        string
	Limit         int
	Offset        int
}

// storedStatusesFor расширяет запрошенный действительный статус до набора
// хранимых статусов, из которых он может получиться при пересчёте:
// late видна и как хранимая late, и как просроченная active;
// expired — как хранимая expired и как просроченная pending.
func storedStatusesFor(effective string) []string {
	switch effective {
	case models.RequestStatusLate:
		return []string{models.RequestStatusLate, models.RequestStatusActive}
	case models.RequestStatusExpired:
		return []string{models.RequestStatusExpired, models.RequestStatusPending}
	case "":
		return nil
	default:
		return []string{effective}
	}
}

// ListRequests возвращает заявки по фильтру, пересчитав статусы на момент
// вызова. Фильтр по статусу применяется уже к действительному статусу.
func (s *RequestService) ListRequests(ctx context.Context, f RequestListFilter) ([]models.Request, error) {
	if f.Status != "" {
		if err := validation.ValidateRequestStatus(f.Status); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	requests, err := s.repo.List(ctx, repository.ListFilter{
		Statuses:      storedStatusesFor(f.Status),
		RequestedByID: f.RequestedByID,
		AssignedToID:  f.AssignedToID,
		CategoryID:    f.CategoryID,
		Uncategorized: f.Uncategorized,
		ServiceType:   f.ServiceType,
		Location:      f.Location,
		Search:        f.Search,
		Limit:         f.Limit,
		Offset:        f.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("request service: список: %w", err)
	}

	now := s.now()
	result := make([]models.Request, 0, len(requests))
	for _, r := range requests {
		models.ApplyEffectiveStatus(&r, now)
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

// UpdateRequest обновляет заявку её автора. Разрешено только пока
// заявка не взята в работу.
func (s *RequestService) UpdateRequest(ctx context.Context, actor authz.Actor, id string, in RequestInput) (*models.Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrRequestNotFound {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, fmt.Errorf("request service: получение: %w", err)
	}
	if !authz.Can(actor, authz.ActionUpdateRequest, req) {
		return nil, apperror.ErrForbidden
	}
	if models.EffectiveStatus(req, s.now()) != models.RequestStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "редактировать можно только ожидающую заявку")
	}
	if err := validation.ValidateRequestInput(in.Title, in.Description, in.ServiceType, in.Location, in.Urgency, in.StartDate, in.EndDate); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *in.CategoryID); err != nil {
			if err == repository.ErrCategoryNotFound {
				return nil, apperror.ErrCategoryNotFound
			}
			return nil, fmt.Errorf("request service: категория: %w", err)
		}
	}

	req.Title = strings.TrimSpace(in.Title)
	req.Description = strings.TrimSpace(in.Description)
	req.ServiceType = strings.TrimSpace(in.ServiceType)
	req.Location = strings.TrimSpace(in.Location)
	req.Urgency = in.Urgency
	req.SkillsRequired = in.SkillsRequired
	req.StartDate = in.StartDate
	req.EndDate = in.EndDate
	req.CategoryID = in.CategoryID

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("request service: обновление: %w", err)
	}
	return req, nil
}

// Accept принимает заявку волонтёром. false — бизнес-отказ:
// заявка не pending, просрочена или не существует.
func (s *RequestService) Accept(ctx context.Context, actor authz.Actor, requestID string) (bool, error) {
	if !authz.Can(actor, authz.ActionAcceptRequest, nil) {
		return false, apperror.ErrForbidden
	}
	ok, err := s.repo.Accept(ctx, requestID, actor.ID, s.now())
	if err != nil {
		return false, fmt.Errorf("request service: принятие: %w", err)
	}
	return ok, nil
}

// Reject отклоняет pending-заявку: строка удаляется.
func (s *RequestService) Reject(ctx context.Context, actor authz.Actor, requestID string) (bool, error) {
	if !authz.Can(actor, authz.ActionRejectRequest, nil) {
		return false, apperror.ErrForbidden
	}
	ok, err := s.repo.Reject(ctx, requestID)
	if err != nil {
		return false, fmt.Errorf("request service: отклонение: %w", err)
	}
	return ok, nil
}

// Complete отмечает заявку выполненной назначенным волонтёром.
// completed_date получает сдвиг completionOffset от момента вызова.
func (s *RequestService) Complete(ctx context.Context, actor authz.Actor, requestID string) (bool, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if err == repository.ErrRequestNotFound {
			return false, nil
		}
		return false, fmt.Errorf("request service: получение: %w", err)
	}
	if !authz.Can(actor, authz.ActionCompleteRequest, req) {
		return false, apperror.ErrForbidden
	}

	completedAt := s.now().Add(s.completionOffset)
	ok, err := s.repo.Complete(ctx, requestID, actor.ID, completedAt)
	if err != nil {
		return false, fmt.Errorf("request service: завершение: %w", err)
	}
	if ok && s.notifier != nil {
		s.notifier.NotifyCompleted(requestID, req.RequestedByID)
	}
	return ok, nil
}

// Cancel отменяет заявку её автора. Блокируется только для выполненных
// и уже отменённых.
func (s *RequestService) Cancel(ctx context.Context, actor authz.Actor, requestID string) (bool, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if err == repository.ErrRequestNotFound {
			return false, nil
		}
		return false, fmt.Errorf("request service: получение: %w", err)
	}
	if !authz.Can(actor, authz.ActionCancelRequest, req) {
		return false, apperror.ErrForbidden
	}

	ok, err := s.repo.Cancel(ctx, requestID, actor.ID, s.now())
	if err != nil {
		return false, fmt.Errorf("request service: отмена: %w", err)
	}
	return ok, nil
}

// SweepResult итог административного прохода по просроченным заявкам.
type SweepResult struct {
	MarkedLate int64 `json:"marked_late"`
	Expired    int64 `json:"expired"`
}

// SweepOverdue фиксирует просрочку в хранимом состоянии: просроченные
// pending и ранее помеченные late переводятся в expired, затем просроченные
// active помечаются late. Порядок важен: заявка, ставшая late в этом проходе,
// получает expired только следующим sweep'ом — это единственный путь,
// которым late-заявка становится expired.
func (s *RequestService) SweepOverdue(ctx context.Context, actor authz.Actor) (*SweepResult, error) {
	if !authz.Can(actor, authz.ActionSweepOverdue, nil) {
		return nil, apperror.ErrForbidden
	}

	now := s.now()
	expired, err := s.repo.ExpireOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("request service: sweep expired: %w", err)
	}
	late, err := s.repo.MarkLateOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("request service: sweep late: %w", err)
	}
	return &SweepResult{MarkedLate: late, Expired: expired}, nil
}
