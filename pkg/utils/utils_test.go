package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTokenManagerRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, nil)
	id := uuid.New()

	token, err := m.CreateToken(id)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.NotNil(t, claims.IssuedAt)
}

func TestTokenManagerErrors(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired := NewTokenManager("secret", time.Hour, past)
	token, err := expired.CreateToken(uuid.New())
	require.NoError(t, err)

	m := NewTokenManager("secret", time.Hour, nil)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	assert.Equal(t, http.StatusUnauthorized, TranslateError(err).StatusCode)
	assert.Contains(t, TranslateError(err).Message, "expired")

	other := NewTokenManager("other-secret", time.Hour, nil)
	token, err = other.CreateToken(uuid.New())
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, "Invalid token. Please log in again!", TranslateError(err).Message)

	_, err = m.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, TranslateError(err).StatusCode)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		code        int
		operational bool
		message     string
	}{
		{"app error", ErrForbidden, http.StatusForbidden, true, ErrForbidden.Message},
		{"wrapped app error", fmt.Errorf("ctx: %w", ErrNoDocument), http.StatusNotFound, true, ErrNoDocument.Message},
		{"cast", &CastError{Field: "id", Value: "abc"}, http.StatusBadRequest, true, "Invalid id: abc."},
		{"validation", NewValidationError("name is required", "price is required"), http.StatusBadRequest, true,
			"Invalid input data. name is required. price is required"},
		{"duplicate", gorm.ErrDuplicatedKey, http.StatusBadRequest, true, "Duplicate field value. Please use another value!"},
		{"sqlite duplicate", errors.New("UNIQUE constraint failed: reviews.user_id, reviews.tour_id"), http.StatusBadRequest, true,
			"Duplicate field value. Please use another value!"},
		{"not found", gorm.ErrRecordNotFound, http.StatusNotFound, true, ErrNoDocument.Message},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, false, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateError(tt.err)
			assert.Equal(t, tt.code, got.StatusCode)
			assert.Equal(t, tt.operational, got.IsOperational)
			assert.Equal(t, tt.message, got.Message)
		})
	}
}

func TestAppErrorStatus(t *testing.T) {
	assert.Equal(t, "fail", NewAppError("x", http.StatusNotFound).Status())
	assert.Equal(t, "error", NewAppError("x", http.StatusInternalServerError).Status())
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Name  string  `json:"name" validate:"required,min=3"`
		Email string  `json:"email" validate:"required,email"`
		Score float64 `json:"score" validate:"gte=1,lte=5"`
	}

	err := ValidateStruct(payload{Name: "ab", Email: "nope", Score: 9})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.ElementsMatch(t, []string{
		"name must have at least 3 characters",
		"email must be a valid email",
		"score must be 5 or below",
	}, valErr.Messages)

	assert.NoError(t, ValidateStruct(payload{Name: "abc", Email: "a@b.co", Score: 3}))
}

func TestHashing(t *testing.T) {
	BcryptCost = 4
	hash, err := HashPassword("pass1234")
	require.NoError(t, err)
	assert.NoError(t, ComparePasswords(hash, "pass1234"))
	assert.Error(t, ComparePasswords(hash, "wrong"))

	token, err := GenerateSecureToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Len(t, HashToken(token), 64)
	assert.Equal(t, HashToken(token), HashToken(token))

	_, err = GenerateSecureToken(0)
	assert.Error(t, err)
}
