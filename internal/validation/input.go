package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sdmteam/cvconnect-backend/internal/models"
)

// Константы валидации
const (
	MinUsernameLength           = 3
	MaxUsernameLength           = 30
	MinPasswordLength           = 6
	MinFullNameLength           = 2
	MaxFullNameLength           = 100
	MinRequestTitleLength       = 3
	MaxRequestTitleLength       = 200
	MinRequestDescriptionLength = 5
	MaxRequestDescriptionLength = 5000
	MaxServiceTypeLength        = 100
	MaxLocationLength           = 100
	MaxSkillsLength             = 500
	MinCategoryNameLength       = 2
	MaxCategoryNameLength       = 100
	MaxCategoryDescLength       = 1000
	MaxCommentLength            = 2000
	MinRating                   = 1
	MaxRating                   = 5
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}
	return ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength)
}

// ValidatePassword проверяет пароль.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("пароль должен быть не менее %d символов", MinPasswordLength)
	}
	return nil
}

// ValidateRole проверяет, что роль входит в список допустимых.
func ValidateRole(role string) error {
	if !models.ValidRoles[role] {
		return fmt.Errorf("недопустимая роль: %s", role)
	}
	return nil
}

// ValidateUrgency проверяет уровень срочности заявки.
func ValidateUrgency(urgency string) error {
	if !models.ValidUrgencies[urgency] {
		return fmt.Errorf("недопустимая срочность: %s", urgency)
	}
	return nil
}

// ValidateRequestStatus проверяет статус заявки для фильтров.
func ValidateRequestStatus(status string) error {
	if !models.ValidRequestStatuses[status] {
		return fmt.Errorf("недопустимый статус: %s", status)
	}
	return nil
}

// ValidateRating проверяет оценку отзыва.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("оценка должна быть от %d до %d", MinRating, MaxRating)
	}
	return nil
}

// ValidateDateRange проверяет, что дата окончания не раньше даты начала.
func ValidateDateRange(start, end time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("дата окончания не может быть раньше даты начала")
	}
	return nil
}

// ValidateRequestInput проверяет поля заявки при создании и обновлении.
func ValidateRequestInput(title, description, serviceType, location, urgency string, start, end time.Time) error {
	if err := ValidateLength("заголовок", strings.TrimSpace(title), MinRequestTitleLength, MaxRequestTitleLength); err != nil {
		return err
	}
	if err := ValidateLength("описание", strings.TrimSpace(description), MinRequestDescriptionLength, MaxRequestDescriptionLength); err != nil {
		return err
	}
	if err := ValidateLength("тип услуги", strings.TrimSpace(serviceType), 1, MaxServiceTypeLength); err != nil {
		return err
	}
	if err := ValidateLength("локация", strings.TrimSpace(location), 1, MaxLocationLength); err != nil {
		return err
	}
	if err := ValidateUrgency(urgency); err != nil {
		return err
	}
	return ValidateDateRange(start, end)
}

// ValidateCategoryName проверяет имя категории.
func ValidateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("имя категории обязательно")
	}
	return ValidateLength("имя категории", name, MinCategoryNameLength, MaxCategoryNameLength)
}
