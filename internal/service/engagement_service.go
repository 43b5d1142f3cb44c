package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sdmteam/cvconnect-backend/internal/models"
	"github.com/sdmteam/cvconnect-backend/internal/repository"
)

type EngagementRepo interface {
	RecordView(ctx context.Context, requestID string, cvID uuid.UUID) (bool, error)
	AddInterest(ctx context.Context, requestID string, cvID uuid.UUID) (bool, error)
	AddShortlist(ctx context.Context, requestID string, csrRepID uuid.UUID) (bool, error)
	RemoveShortlist(ctx context.Context, requestID string, csrRepID uuid.UUID) (bool, error)
	ListShortlisted(ctx context.Context, csrRepID uuid.UUID) ([]models.Request, error)
	ListInterested(ctx context.Context, requestID string) ([]models.User, error)
}

type RequestRepoForEngagement interface {
	GetByID(ctx context.Context, id string) (*models.Request, error)
}

// EngagementService учитывает просмотры, интересы и шортлисты заявок.
type EngagementService struct {
	repo     EngagementRepo
	requests RequestRepoForEngagement
}

func NewEngagementService(repo EngagementRepo, requests RequestRepoForEngagement) *EngagementService {
	return &EngagementService{repo: repo, requests: requests}
}

// exists проверяет существование заявки; отсутствие — бизнес-отказ.
func (s *EngagementService) exists(ctx context.Context, requestID string) (bool, error) {
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		if err == repository.ErrRequestNotFound {
			return false, nil
		}
		return false, fmt.Errorf("engagement service: заявка: %w", err)
	}
	return true, nil
}

// RecordView фиксирует просмотр заявки волонтёром. Первый просмотр
// увеличивает view_count, повторные — нет.
func (s *EngagementService) RecordView(ctx context.Context, requestID string, cvID uuid.UUID) (bool, error) {
	ok, err := s.exists(ctx, requestID)
	if err != nil || !ok {
		return false, err
	}
	if _, err := s.repo.RecordView(ctx, requestID, cvID); err != nil {
		return false, fmt.Errorf("engagement service: просмотр: %w", err)
	}
	return true, nil
}

// AddInterest фиксирует интерес волонтёра к заявке.
// Повторный вызов — no-op, возвращает false.
func (s *EngagementService) AddInterest(ctx context.Context, requestID string, cvID uuid.UUID) (bool, error) {
	ok, err := s.exists(ctx, requestID)
	if err != nil || !ok {
		return false, err
	}
	added, err := s.repo.AddInterest(ctx, requestID, cvID)
	if err != nil {
		return false, fmt.Errorf("engagement service: интерес: %w", err)
	}
	return added, nil
}

// AddShortlist добавляет заявку в шортлист представителя.
func (s *EngagementService) AddShortlist(ctx context.Context, requestID string, csrRepID uuid.UUID) (bool, error) {
	ok, err := s.exists(ctx, requestID)
	if err != nil || !ok {
		return false, err
	}
	added, err := s.repo.AddShortlist(ctx, requestID, csrRepID)
	if err != nil {
		return false, fmt.Errorf("engagement service: шортлист: %w", err)
	}
	return added, nil
}

// RemoveShortlist убирает заявку из шортлиста.
// Счётчик shortlist_count при этом не уменьшается.
func (s *EngagementService) RemoveShortlist(ctx context.Context, requestID string, csrRepID uuid.UUID) (bool, error) {
	removed, err := s.repo.RemoveShortlist(ctx, requestID, csrRepID)
	if err != nil {
		return false, fmt.Errorf("engagement service: удаление из шортлиста: %w", err)
	}
	return removed, nil
}

// ListShortlisted возвращает шортлист представителя.
func (s *EngagementService) ListShortlisted(ctx context.Context, csrRepID uuid.UUID) ([]models.Request, error) {
	return s.repo.ListShortlisted(ctx, csrRepID)
}

// ListInterested возвращает волонтёров, проявивших интерес к заявке.
func (s *EngagementService) ListInterested(ctx context.Context, requestID string) ([]models.User, error) {
	return s.repo.ListInterested(ctx, requestID)
}
