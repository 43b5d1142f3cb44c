package models

import "time"

// EffectiveStatus вычисляет действительный статус заявки на момент now,
// не изменяя хранимое состояние. Все читающие пути обязаны применять эту
// функцию, чтобы просроченная заявка никогда не отдавалась как pending/active.
//
// Правила:
//   - терминальные статусы (completed, expired, cancelled) не пересчитываются;
//   - pending с прошедшим end_date считается expired — принять её уже нельзя;
//   - active с прошедшим end_date считается late — исполнитель ещё может
//     завершить работу; в expired её переводит только административный sweep.
func EffectiveStatus(r *Request, now time.Time) string {
	switch r.Status {
	case RequestStatusCompleted, RequestStatusExpired, RequestStatusCancelled:
		return r.Status
	}

	if !now.After(r.EndDate) {
		return r.Status
	}

	switch r.Status {
	case RequestStatusPending:
		return RequestStatusExpired
	case RequestStatusActive:
		return RequestStatusLate
	}

	return r.Status
}

// ApplyEffectiveStatus проставляет действительный статус заявке in-place.
// Используется сервисным слоем перед выдачей наружу.
func ApplyEffectiveStatus(r *Request, now time.Time) {
	r.Status = EffectiveStatus(r, now)
}

// IsCompletable сообщает, можно ли отметить заявку выполненной:
// действительный статус active или late и назначен исполнитель.
func IsCompletable(r *Request, now time.Time) bool {
	if r.AssignedToID == nil {
		return false
	}
	eff := EffectiveStatus(r, now)
	return eff == RequestStatusActive || eff == RequestStatusLate
}
