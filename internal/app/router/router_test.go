package router_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanner_backend/internal/app/router"
	mdhandler "scanner_backend/internal/feature/marketdata/transport/handler"
	scanhandler "scanner_backend/internal/feature/scanner/transport/handler"
	screenhandler "scanner_backend/internal/feature/screener/transport/handler"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestNewRouter_Routes(t *testing.T) {
	t.Parallel()

	r := router.NewRouter(
		mdhandler.NewMarketDataHandler(nil, nil),
		screenhandler.NewScreenerHandler(nil),
		scanhandler.NewScannerHandler(nil),
		"redis",
	)

	registered := map[string]bool{}
	for _, ri := range r.Routes() {
		registered[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"HEAD /health",
		"OPTIONS /health",
		"GET /history",
		"POST /quotes",
		"POST /screener",
		"POST /scan/day-gainers",
		"POST /scan/hod-vwap-momentum",
		"POST /scan/hod-breakouts",
		"POST /scan/vwap-breakouts",
		"POST /scan/volume-spikes",
		"POST /scan/hod-vwap-approach",
		"POST /scan/hod-approach",
		"POST /scan/vwap-approach",
	} {
		assert.True(t, registered[want], want)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","cache":"redis"}`, w.Body.String())
}
