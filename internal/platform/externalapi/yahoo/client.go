package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"scanner_backend/internal/feature/marketdata/domain/entity"
	"scanner_backend/internal/feature/marketdata/usecase"
	"scanner_backend/internal/platform/externalapi/yahoo/dto"
	"scanner_backend/internal/shared/ratelimiter"
)

// StatusError は 4xx/5xx 応答を表します。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("yahoo http %d: %s", e.StatusCode, e.Body)
}

// Client は Yahoo Finance から株価データを取得する MarketDataProvider 実装です。
type Client struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

// Client が MarketDataProvider を実装していることをコンパイル時に検証します。
var _ usecase.MarketDataProvider = (*Client)(nil)

// NewClient は指定された設定・HTTPクライアント・レートリミッターで Client を生成します。
// limiter が nil の場合は無制限になります。
func NewClient(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *Client {
	return &Client{cfg: cfg.withDefaults(), client: client, limiter: limiter}
}

// FetchScreener は定義済みスクリーナー（q.ID 指定時）またはカスタム条件でクォート一覧を取得します。
func (c *Client) FetchScreener(ctx context.Context, q entity.ScreenerQuery) ([]entity.RawQuote, error) {
	var body dto.ScreenerResponse
	if q.IsCustom() {
		region := q.Region
		if region == "" {
			region = "us"
		}
		req := dto.CustomScreenerRequest{
			Size:      q.Count,
			SortField: "percentchange",
			SortType:  "DESC",
			QuoteType: "EQUITY",
			Query: dto.ScreenerOperand{Operator: "and", Operands: []any{
				dto.ScreenerOperand{Operator: "gte", Operands: []any{"intradayprice", q.MinPrice}},
				dto.ScreenerOperand{Operator: "gte", Operands: []any{"dayvolume", q.MinVolume}},
				dto.ScreenerOperand{Operator: "eq", Operands: []any{"region", region}},
			}},
		}
		if err := c.doJSON(ctx, http.MethodPost, "/v1/finance/screener", url.Values{"formatted": {"false"}}, req, &body); err != nil {
			return nil, err
		}
	} else {
		v := url.Values{}
		v.Set("scrIds", q.ID)
		v.Set("count", strconv.Itoa(q.Count))
		v.Set("formatted", "false")
		if err := c.doJSON(ctx, http.MethodGet, "/v1/finance/screener/predefined/saved", v, nil, &body); err != nil {
			return nil, err
		}
	}
	if e := body.Finance.Error; e != nil {
		return nil, fmt.Errorf("yahoo screener: %s", e.Description)
	}

	var out []entity.RawQuote
	for _, r := range body.Finance.Result {
		for _, m := range r.Quotes {
			out = append(out, entity.RawQuote(m))
		}
	}
	return out, nil
}

// FetchBars は銘柄ごとのチャートを並列に取得します。
// 同時実行数は MaxConcurrency で制限し、1銘柄でも失敗すれば全体をエラーにします。
// データの無い銘柄（404 や空のチャート）はマップに含めません。
func (c *Client) FetchBars(ctx context.Context, tickers []string, interval, period string, prepost bool) (map[string]entity.BarSeries, error) {
	out := make(map[string]entity.BarSeries, len(tickers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)
	for _, ticker := range tickers {
		if ticker == "" {
			continue
		}
		g.Go(func() error {
			bars, err := c.fetchChart(gctx, ticker, interval, period, prepost)
			if err != nil {
				return fmt.Errorf("%s: %w", ticker, err)
			}
			if len(bars) == 0 {
				slog.Debug("no bars returned", "ticker", ticker, "interval", interval, "period", period)
				return nil
			}
			mu.Lock()
			out[ticker] = bars
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchQuotes は BatchSize 件ずつ順番にクォートを取得します。
func (c *Client) FetchQuotes(ctx context.Context, tickers []string) ([]entity.RawQuote, error) {
	var out []entity.RawQuote
	for _, batch := range usecase.Chunk(tickers, usecase.BatchSize) {
		if len(batch) == 0 {
			continue
		}
		var body dto.QuoteResponse
		v := url.Values{"symbols": {strings.Join(batch, ",")}}
		if err := c.doJSON(ctx, http.MethodGet, "/v7/finance/quote", v, nil, &body); err != nil {
			return nil, err
		}
		if e := body.QuoteResponse.Error; e != nil {
			return nil, fmt.Errorf("yahoo quote: %s", e.Description)
		}
		for _, m := range body.QuoteResponse.Result {
			out = append(out, entity.RawQuote(m))
		}
	}
	return out, nil
}

func (c *Client) fetchChart(ctx context.Context, ticker, interval, period string, prepost bool) (entity.BarSeries, error) {
	v := url.Values{}
	v.Set("interval", interval)
	v.Set("range", period)
	v.Set("includePrePost", strconv.FormatBool(prepost))

	var body dto.ChartResponse
	err := c.doJSON(ctx, http.MethodGet, "/v8/finance/chart/"+url.PathEscape(ticker), v, nil, &body)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if e := body.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, nil
		}
		return nil, fmt.Errorf("yahoo chart: %s", e.Description)
	}
	if len(body.Chart.Result) == 0 {
		return nil, nil
	}
	return toBars(body.Chart.Result[0]), nil
}

// toBars はチャート配列をバー列に変換します。
// OHLC のいずれかが欠損しているバーと High < Low のバーは捨て、欠損・負の出来高は 0 とします。
func toBars(res dto.ChartResult) entity.BarSeries {
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	q := res.Indicators.Quote[0]
	bars := make(entity.BarSeries, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		o, ok1 := at(q.Open, i)
		h, ok2 := at(q.High, i)
		l, ok3 := at(q.Low, i)
		cl, ok4 := at(q.Close, i)
		if !ok1 || !ok2 || !ok3 || !ok4 || h < l {
			continue
		}
		var vol int64
		if v, ok := at(q.Volume, i); ok && v > 0 {
			vol = int64(v)
		}
		bars = append(bars, entity.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: vol,
		})
	}
	slices.SortStableFunc(bars, func(a, b entity.Bar) int { return a.Time.Compare(b.Time) })
	return bars
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	v := *vals[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// doJSON はレート制限を待ってからリクエストを送り、JSONレスポンスを out にデコードします。
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("yahoo fetch: %w", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	if res.StatusCode >= 400 {
		return &StatusError{StatusCode: res.StatusCode, Body: truncate(string(body), 200)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
