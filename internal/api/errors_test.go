package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scanner_backend/internal/feature/marketdata/domain"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("%w: bad interval", domain.ErrInvalidRequest)))
	assert.Equal(t, http.StatusBadGateway, StatusFor(fmt.Errorf("%w: timeout", domain.ErrProvider)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("unexpected")))
}

func TestAsOf(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 15, 9, 30, 12, 345, time.FixedZone("EST", -5*3600))
	assert.Equal(t, "2025-01-15T14:30:12Z", AsOf("", now))
	assert.Equal(t, "2024-12-31T00:00:00Z", AsOf("2024-12-31T00:00:00Z", now))
}
