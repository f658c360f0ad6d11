package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// UpstashStore is a Store that talks to Upstash Redis over its REST API.
// Each command is POSTed to the base URL as a JSON array, authenticated with a bearer token.
type UpstashStore struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ Store = (*UpstashStore)(nil)

// upstashResponse is the envelope returned for every REST command.
type upstashResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error,omitempty"`
}

// NewUpstashStore creates a REST-backed store. The client should carry a timeout.
func NewUpstashStore(baseURL, token string, client *http.Client) *UpstashStore {
	return &UpstashStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

// Get runs GET key.
func (s *UpstashStore) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := s.do(ctx, "GET", key)
	if err != nil {
		return nil, err
	}
	if len(res.Result) == 0 || string(res.Result) == "null" {
		return nil, ErrMiss
	}
	var v string
	if err := json.Unmarshal(res.Result, &v); err != nil {
		return nil, fmt.Errorf("upstash GET: unexpected result %s", res.Result)
	}
	if v == "" {
		return nil, ErrMiss
	}
	return []byte(v), nil
}

// Set runs SET key value EX seconds.
func (s *UpstashStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	secs := int64(ttl / time.Second)
	if secs <= 0 {
		secs = 1
	}
	_, err := s.do(ctx, "SET", key, string(value), "EX", strconv.FormatInt(secs, 10))
	return err
}

// Delete runs DEL key.
func (s *UpstashStore) Delete(ctx context.Context, key string) error {
	_, err := s.do(ctx, "DEL", key)
	return err
}

// Name returns "upstash".
func (s *UpstashStore) Name() string { return "upstash" }

func (s *UpstashStore) do(ctx context.Context, args ...string) (*upstashResponse, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	var out upstashResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("upstash decode: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("upstash %s: %s", args[0], out.Error)
	}
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("upstash http %d", res.StatusCode)
	}
	return &out, nil
}
