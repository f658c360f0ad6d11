package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanner_backend/internal/feature/marketdata/domain"
	"scanner_backend/internal/feature/marketdata/domain/entity"
)

func TestHistoryUsecase_GetHistory(t *testing.T) {
	t.Parallel()

	series := entity.BarSeries{bar("2025-01-15T14:30:00Z", 2, 1, 1.5, 10)}

	tests := []struct {
		name    string
		query   HistoryQuery
		fetch   func(context.Context, []string, string, string, bool) (map[string]entity.BarSeries, error)
		wantLen int
		wantErr error
	}{
		{
			name:  "success",
			query: HistoryQuery{Ticker: " aapl ", Interval: "1m", Period: "1d"},
			fetch: func(_ context.Context, tickers []string, _, _ string, _ bool) (map[string]entity.BarSeries, error) {
				assert.Equal(t, []string{"AAPL"}, tickers)
				return map[string]entity.BarSeries{"AAPL": series}, nil
			},
			wantLen: 1,
		},
		{
			name:  "no data is empty, not error",
			query: HistoryQuery{Ticker: "NONE", Interval: "5m", Period: "5d"},
			fetch: func(context.Context, []string, string, string, bool) (map[string]entity.BarSeries, error) {
				return map[string]entity.BarSeries{}, nil
			},
		},
		{
			name:    "unsupported interval",
			query:   HistoryQuery{Ticker: "AAPL", Interval: "1d", Period: "1d"},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "missing ticker",
			query:   HistoryQuery{Interval: "1m", Period: "1d"},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:  "provider failure",
			query: HistoryQuery{Ticker: "AAPL", Interval: "1m", Period: "1d"},
			fetch: func(context.Context, []string, string, string, bool) (map[string]entity.BarSeries, error) {
				return nil, errors.New("upstream down")
			},
			wantErr: domain.ErrProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := &mockBarSource{FetchBarsFunc: tt.fetch}
			uc := NewHistoryUsecase(NewBarFetcher(src), nil)

			got, info, err := uc.GetHistory(context.Background(), tt.query)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.wantLen)
			assert.Equal(t, "live", info.Source)
		})
	}
}
