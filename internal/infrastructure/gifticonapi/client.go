package gifticonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"gifticon-wallet/internal/domain/gifticon"
	otelinfra "gifticon-wallet/internal/infrastructure/observability/otel"
)

const (
	pathAvailable = "/api/available-gifticons"
	pathUsed      = "/api/used-gifticons"

	// エラーレスポンスの本文は先頭だけ読む
	maxErrorBody = 64 << 10
)

// TokenSource アクセストークンの取得元
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client ギフティコンAPIのHTTPクライアント
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	location   *time.Location
	logger     *otelinfra.Logger
	metrics    *otelinfra.Metrics
	tracer     trace.Tracer
}

// Option Clientの設定
type Option func(*Client)

// WithHTTPClient HTTPクライアントを差し替える
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSource リクエストに付与するアクセストークンの取得元を指定する
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLocation オフセットのない日時を解釈するタイムゾーンを指定する
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.location = loc
		}
	}
}

// NewClient 新しいClientを作成
func NewClient(baseURL string, timeout time.Duration, logger *otelinfra.Logger, metrics *otelinfra.Metrics, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		location:   time.Local,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer("gifticon-api-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ gifticon.Gateway = (*Client)(nil)

// FetchAvailable 使用可能なギフティコンを取得
func (c *Client) FetchAvailable(ctx context.Context, q gifticon.AvailableQuery) (*gifticon.Page, error) {
	params := pageParams(q.Size, q.Cursor, q.Type, q.Sort)
	if q.Scope != "" {
		params.Set("scope", q.Scope.String())
	}

	var payload pagePayload
	if err := c.do(ctx, "fetch_available", http.MethodGet, pathAvailable, params, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toPage(c.location, false)
}

// FetchUsed 使用済みギフティコンを取得
func (c *Client) FetchUsed(ctx context.Context, q gifticon.UsedQuery) (*gifticon.Page, error) {
	params := pageParams(q.Size, q.Cursor, q.Type, q.Sort)

	var payload pagePayload
	if err := c.do(ctx, "fetch_used", http.MethodGet, pathUsed, params, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toPage(c.location, true)
}

// MarkProductUsed 商品型ギフティコンを使用完了にする
func (c *Client) MarkProductUsed(ctx context.Context, id int64) error {
	path := fmt.Sprintf("%s/%d/use", pathAvailable, id)
	return c.do(ctx, "mark_used", http.MethodPost, path, nil, nil, nil)
}

// UseAmount 金額型ギフティコンの残高を使用する
func (c *Client) UseAmount(ctx context.Context, id int64, amount int64) error {
	path := fmt.Sprintf("%s/%d/usage-history", pathAvailable, id)
	return c.do(ctx, "use_amount", http.MethodPost, path, nil, useAmountPayload{UsageAmount: amount}, nil)
}

func pageParams(size int, cursor string, gifticonType gifticon.GifticonType, sort gifticon.Sort) url.Values {
	params := url.Values{}
	params.Set("size", strconv.Itoa(size))
	if cursor != "" {
		params.Set("page", cursor)
	}
	if gifticonType != "" {
		params.Set("type", gifticonType.String())
	}
	if sort != "" {
		params.Set("sort", sort.String())
	}
	return params
}

// do リクエストを送信し、失敗を3つの形態に分類する。
// outがnilでなければ2xxの本文をデコードする
func (c *Client) do(ctx context.Context, endpoint, method, path string, params url.Values, body, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "GifticonAPI."+endpoint, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", target),
	)

	start := time.Now()
	status, err := c.send(ctx, method, target, body, out)
	c.metrics.RecordAPICall(ctx, endpoint, status, time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		c.logger.Warn(ctx, "Gifticon API call failed", map[string]interface{}{
			"endpoint":    endpoint,
			"method":      method,
			"status_code": status,
			"error":       err.Error(),
		})
		return err
	}

	c.logger.Debug(ctx, "Gifticon API call completed", map[string]interface{}{
		"endpoint":    endpoint,
		"method":      method,
		"status_code": status,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func (c *Client) send(ctx context.Context, method, target string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, &gifticon.GatewayError{Shape: gifticon.FailureRequest, Err: fmt.Errorf("failed to encode body: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, &gifticon.GatewayError{Shape: gifticon.FailureRequest, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return 0, &gifticon.GatewayError{Shape: gifticon.FailureRequest, Err: fmt.Errorf("failed to load access token: %w", err)}
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// 呼び出し側の取り消しはレスポンス待ちの失敗とは区別する
		if errors.Is(err, context.Canceled) {
			return 0, &gifticon.GatewayError{Shape: gifticon.FailureRequest, Err: err}
		}
		return 0, &gifticon.GatewayError{Shape: gifticon.FailureNoResponse, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &gifticon.GatewayError{
			Shape:      gifticon.FailureResponse,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", gifticon.ErrInvalidResponse, err)
	}
	return resp.StatusCode, nil
}

// readErrorMessage エラーレスポンスの {"message": ...} を取り出す。読めなければ空
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload errorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}
