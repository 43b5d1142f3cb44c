package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sdmteam/cvconnect-backend/internal/models"
	"github.com/sdmteam/cvconnect-backend/internal/repository"
)

// Вес совпадения по навыку и бонус за совпадение локации.
const (
	skillMatchWeight   = 10
	locationMatchBonus = 1
)

type MatchingRequestRepo interface {
	GetByID(ctx context.Context, id string) (*models.Request, error)
	List(ctx context.Context, f repository.ListFilter) ([]models.Request, error)
	Assign(ctx context.Context, requestID string, cvID, assignedByID uuid.UUID, now time.Time) (bool, error)
	GetMatchesByRequest(ctx context.Context, requestID string) ([]models.Match, error)
}

type MatchingUserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListActiveVolunteers(ctx context.Context) ([]models.User, error)
}

// AssignmentNotifier рассылает уведомление о назначении.
// Реализуется ws-хабом; в тестах подменяется заглушкой.
type AssignmentNotifier interface {
	NotifyAssigned(requestID string, cvID uuid.UUID)
}

type MatchingService struct {
	requests MatchingRequestRepo
	users    MatchingUserRepo
	notifier AssignmentNotifier
	now      func() time.Time
}

func NewMatchingService(requests MatchingRequestRepo, users MatchingUserRepo, notifier AssignmentNotifier) *MatchingService {
	return &MatchingService{
		requests: requests,
		users:    users,
		notifier: notifier,
		now:      time.Now,
	}
}

// NormalizeSkills разбирает свободный текст навыков в канонический вид:
// разделители — запятая и точка с запятой, каждый навык приводится
// к нижнему регистру и обрезается, пустые отбрасываются.
func NormalizeSkills(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	skills := make([]string, 0, len(fields))
	for _, f := range fields {
		s := strings.ToLower(strings.TrimSpace(f))
		if s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// MatchScore считает балл совпадения волонтёра с заявкой:
// 10 за каждый общий навык плюс 1 за совпадение локации без учёта регистра.
func MatchScore(req *models.Request, cv *models.User) int {
	required := map[string]bool{}
	if req.SkillsRequired != nil {
		for _, s := range NormalizeSkills(*req.SkillsRequired) {
			required[s] = true
		}
	}

	score := 0
	if cv.Skills != nil {
		seen := map[string]bool{}
		for _, s := range NormalizeSkills(*cv.Skills) {
			if required[s] && !seen[s] {
				score += skillMatchWeight
				seen[s] = true
			}
		}
	}

	if cv.Location != nil && strings.EqualFold(strings.TrimSpace(*cv.Location), strings.TrimSpace(req.Location)) {
		score += locationMatchBonus
	}
	return score
}

// RankCandidates возвращает активных волонтёров, отсортированных по баллу
// совпадения по убыванию. Сортировка стабильная: при равных баллах
// сохраняется исходный порядок. Кандидаты с нулевым баллом не отбрасываются.
func (s *MatchingService) RankCandidates(ctx context.Context, requestID string) ([]models.RankedCandidate, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("matching service: заявка не найдена: %w", err)
	}

	volunteers, err := s.users.ListActiveVolunteers(ctx)
	if err != nil {
		return nil, fmt.Errorf("matching service: список волонтёров: %w", err)
	}

	ranked := make([]models.RankedCandidate, 0, len(volunteers))
	for _, cv := range volunteers {
		ranked = append(ranked, models.RankedCandidate{User: cv, Score: MatchScore(req, &cv)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// FindCandidates возвращает подходящих кандидатов: активных волонтёров
// с ненулевым баллом — общие навыки или совпадающая локация.
func (s *MatchingService) FindCandidates(ctx context.Context, requestID string) ([]models.RankedCandidate, error) {
	ranked, err := s.RankCandidates(ctx, requestID)
	if err != nil {
		return nil, err
	}
	candidates := make([]models.RankedCandidate, 0, len(ranked))
	for _, c := range ranked {
		if c.Score > 0 {
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

// OpenRequests возвращает заявки, доступные для подбора: хранимый статус
// pending и срок не истёк на момент вызова.
func (s *MatchingService) OpenRequests(ctx context.Context) ([]models.Request, error) {
	requests, err := s.requests.List(ctx, repository.ListFilter{
		Statuses: []string{models.RequestStatusPending},
	})
	if err != nil {
		return nil, fmt.Errorf("matching service: открытые заявки: %w", err)
	}

	now := s.now()
	open := make([]models.Request, 0, len(requests))
	for _, r := range requests {
		if models.EffectiveStatus(&r, now) == models.RequestStatusPending {
			open = append(open, r)
		}
	}
	return open, nil
}

// UnassignedRequests возвращает заявки без закреплённого исполнителя.
func (s *MatchingService) UnassignedRequests(ctx context.Context) ([]models.Request, error) {
	requests, err := s.requests.List(ctx, repository.ListFilter{Unassigned: true})
	if err != nil {
		return nil, fmt.Errorf("matching service: заявки без исполнителя: %w", err)
	}

	now := s.now()
	for i := range requests {
		models.ApplyEffectiveStatus(&requests[i], now)
	}
	return requests, nil
}

// Assign закрепляет волонтёра за заявкой от имени представителя.
// Возвращает false без ошибки, если заявка уже не pending, просрочена
// или волонтёр не найден/неактивен — бизнес-отказ, а не сбой.
func (s *MatchingService) Assign(ctx context.Context, requestID string, cvID, assignedByID uuid.UUID) (bool, error) {
	cv, err := s.users.GetByID(ctx, cvID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return false, nil
		}
		return false, fmt.Errorf("matching service: волонтёр: %w", err)
	}
	if cv.Role != models.RoleCV || !cv.IsActive {
		return false, nil
	}

	matched, err := s.requests.Assign(ctx, requestID, cvID, assignedByID, s.now())
	if err != nil {
		return false, fmt.Errorf("matching service: назначение: %w", err)
	}
	if matched && s.notifier != nil {
		s.notifier.NotifyAssigned(requestID, cvID)
	}
	return matched, nil
}

// MatchHistory возвращает записи подбора по заявке.
func (s *MatchingService) MatchHistory(ctx context.Context, requestID string) ([]models.Match, error) {
	return s.requests.GetMatchesByRequest(ctx, requestID)
}
