package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughWrapped(t *testing.T) {
	original := NewInvalidState("case already open", map[string]any{"contract_id": "C-1"})
	wrapped := fmt.Errorf("open case: %w", original)

	de := ToDomainError(wrapped)
	require.NotNil(t, de)
	assert.Equal(t, CodeInvalidState, de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Equal(t, "C-1", de.Details["contract_id"])
}

func TestToDomainError_UnknownBecomesInternal(t *testing.T) {
	de := ToDomainError(errors.New("boom"))
	require.NotNil(t, de)
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestStoreUnavailableUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreUnavailable(cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeStoreUnavailable))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.Equal(t, "store unavailable: connection refused", err.Error())
}

func TestNewNotFoundMessage(t *testing.T) {
	err := NewNotFound("contract", nil)
	de := ToDomainError(err)
	assert.Equal(t, "contract not found", de.Message)
	assert.NotNil(t, de.Details)
}
