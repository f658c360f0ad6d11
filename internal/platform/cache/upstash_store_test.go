package cache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newUpstashServer はUpstash REST APIを模したテストサーバーを起動します。
func newUpstashServer(t *testing.T, token string) *httptest.Server {
	t.Helper()

	var mu sync.Mutex
	data := map[string]string{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		var args []string
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad command"}`))
			return
		}

		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch args[0] {
		case "GET":
			v, ok := data[args[1]]
			if !ok {
				_, _ = w.Write([]byte(`{"result":null}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"result": v})
		case "SET":
			if len(args) != 5 || args[3] != "EX" {
				_, _ = w.Write([]byte(`{"error":"ERR syntax error"}`))
				return
			}
			data[args[1]] = args[2]
			_, _ = w.Write([]byte(`{"result":"OK"}`))
		case "DEL":
			delete(data, args[1])
			_, _ = w.Write([]byte(`{"result":1}`))
		}
	}))
}

// TestUpstashStore_RoundTrip はSET/GET/DELがREST経由で動作することを検証します。
func TestUpstashStore_RoundTrip(t *testing.T) {
	t.Parallel()

	server := newUpstashServer(t, "token")
	defer server.Close()

	s := NewUpstashStore(server.URL+"/", "token", server.Client())
	ctx := context.Background()

	_, err := s.Get(ctx, "md:k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "md:k", []byte(`{"a":1}`), 300*time.Second))
	b, err := s.Get(ctx, "md:k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(b))

	require.NoError(t, s.Delete(ctx, "md:k"))
	_, err = s.Get(ctx, "md:k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, "upstash", s.Name())
}

// TestUpstashStore_Unauthorized は認証エラーがエラーとして返ることを検証します。
func TestUpstashStore_Unauthorized(t *testing.T) {
	t.Parallel()

	server := newUpstashServer(t, "token")
	defer server.Close()

	s := NewUpstashStore(server.URL, "wrong", server.Client())
	_, err := s.Get(context.Background(), "md:k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}
