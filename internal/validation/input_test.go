package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sdmteam/cvconnect-backend/internal/models"
)

func TestValidateRole(t *testing.T) {
	for _, role := range []string{models.RolePIN, models.RoleCV, models.RoleCSRRep, models.RoleAdmin, models.RolePM} {
		assert.NoError(t, ValidateRole(role), role)
	}
	assert.Error(t, ValidateRole("boss"))
	assert.Error(t, ValidateRole(""))
}

func TestValidateUrgency(t *testing.T) {
	assert.NoError(t, ValidateUrgency(models.UrgencyLow))
	assert.NoError(t, ValidateUrgency(models.UrgencyHigh))
	assert.Error(t, ValidateUrgency("urgent"))
}

func TestValidateRequestStatus(t *testing.T) {
	assert.NoError(t, ValidateRequestStatus(models.RequestStatusLate))
	assert.Error(t, ValidateRequestStatus("open"))
}

func TestValidateDateRange(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateDateRange(start, start.Add(time.Hour)))
	// Совпадающие даты допустимы.
	assert.NoError(t, ValidateDateRange(start, start))
	assert.Error(t, ValidateDateRange(start, start.Add(-time.Hour)))
}

func TestValidateLengthCountsRunes(t *testing.T) {
	assert.NoError(t, ValidateLength("имя", "Аня", 3, 10))
	assert.Error(t, ValidateLength("имя", "Ая", 3, 10))
}
