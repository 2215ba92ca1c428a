package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/butterflysecurity/butterfly-cli/internal/config"
	"github.com/butterflysecurity/butterfly-cli/internal/debug"
)

const tracerName = "github.com/butterflysecurity/butterfly-cli/internal/api"

// Client は Butterfly Security API クライアント
// リトライ・バックオフ・タイムアウトは持たず、1回のリクエストで結果を返す
type Client struct {
	baseURL string
	apiKey  string

	http   *resty.Client
	tracer trace.Tracer
}

// ClientOption はクライアントオプション
type ClientOption func(*Client)

// WithHTTPClient は下位の http.Client を差し替える
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc)
	}
}

// WithTracerProvider はスパンの出力先を指定する
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// NewClient は新しいクライアントを作成する
// baseURL はAPIのオリジン（例: https://butterflysecurity.org）で、/api は自動で付与する
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    resty.New(),
		tracer:  otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.http.
		SetBaseURL(c.baseURL+"/api").
		SetAuthToken(c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return c
}

// NewClientFromConfig は設定からクライアントを作成する
// APIキーが未設定なら通信せずに ErrNotAuthenticated を返す
func NewClientFromConfig(cfg *config.Store, opts ...ClientOption) (*Client, error) {
	if !cfg.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	return NewClient(cfg.APIURL(), cfg.APIKey(), opts...), nil
}

// BaseURL はAPIのオリジンを返す
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, path, nil, body, out)
}

// do はAPIリクエストを実行し、成功時はレスポンスJSONを out にデコードする
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	if c.apiKey == "" {
		return ErrNotAuthenticated
	}

	ctx, span := c.tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
	defer span.End()

	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		debug.Log("api request failed", "op", op, "method", method, "path", path, "error", err)
		return errors.Wrapf(err, "%s %s", method, path)
	}

	debug.Log("api request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode(),
		"duration", time.Since(start),
	)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	if err := checkResponse(resp.StatusCode(), resp.Body()); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "decode %s response", op)
	}
	return nil
}
