package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang-zone-analyzer/internal/analyzer/config"
	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/pkg/logger"

	"github.com/cenkalti/backoff/v4"
)

const (
	headerPriceHigh = "X-Price-High"
	headerPriceLow  = "X-Price-Low"
)

type httpCaptureProvider struct {
	cfg        *config.Config
	log        *logger.Logger
	httpClient *http.Client
}

// NewHTTPCaptureProvider creates a CaptureSessionProvider backed by the chart capture service.
func NewHTTPCaptureProvider(cfg *config.Config, log *logger.Logger) CaptureSessionProvider {
	return &httpCaptureProvider{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Capture.RequestTimeout,
		},
	}
}

type sessionResponse struct {
	ID string `json:"id"`
}

func (p *httpCaptureProvider) Acquire(ctx context.Context) (CaptureSession, error) {
	body, _, err := p.do(ctx, http.MethodPost, "/sessions", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire capture session: %w", err)
	}

	var resp sessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode capture session: %w", err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("capture service returned an empty session id")
	}

	p.log.DebugContext(ctx, "Capture session acquired", logger.StringField("session_id", resp.ID))
	return &httpCaptureSession{id: resp.ID, provider: p}, nil
}

// do sends one request with bounded exponential retries. 4xx answers are not retried.
func (p *httpCaptureProvider) do(ctx context.Context, method, path string, query url.Values) ([]byte, http.Header, error) {
	endpoint := strings.TrimRight(p.cfg.Capture.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var (
		body   []byte
		header http.Header
	)
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode >= 400 {
			statusErr := fmt.Errorf("capture service %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
			if resp.StatusCode < 500 {
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}

		body, header = data, resp.Header
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.cfg.Capture.InitialBackoff
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, p.cfg.Capture.MaxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		p.log.WarnContext(ctx, "Capture request failed, retrying",
			logger.StringField("path", path),
			logger.StringField("retry_in", wait.String()),
			logger.ErrorField(err))
	}
	if err := backoff.RetryNotify(operation, retry, notify); err != nil {
		return nil, nil, err
	}
	return body, header, nil
}

type httpCaptureSession struct {
	id       string
	provider *httpCaptureProvider
}

func (s *httpCaptureSession) ID() string {
	return s.id
}

func (s *httpCaptureSession) Healthy(ctx context.Context) error {
	if _, _, err := s.provider.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(s.id)+"/health", nil); err != nil {
		return fmt.Errorf("capture session %s unhealthy: %w", s.id, err)
	}
	return nil
}

func (s *httpCaptureSession) Capture(ctx context.Context, pair, timeframe string) (*dto.ChartCapture, error) {
	query := url.Values{}
	query.Set("symbol", pair)
	query.Set("interval", timeframe)

	body, header, err := s.provider.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(s.id)+"/capture", query)
	if err != nil {
		return nil, fmt.Errorf("failed to capture %s %s: %w", pair, timeframe, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("capture service returned an unreadable image: %w", err)
	}

	capture := &dto.ChartCapture{
		Pair:        pair,
		Timeframe:   timeframe,
		Image:       body,
		ContentType: "image/" + format,
	}

	high, errHigh := strconv.ParseFloat(header.Get(headerPriceHigh), 64)
	low, errLow := strconv.ParseFloat(header.Get(headerPriceLow), 64)
	if errHigh == nil && errLow == nil {
		capture.Scale = &dto.PriceScale{
			PriceHigh:   high,
			PriceLow:    low,
			ImageWidth:  cfg.Width,
			ImageHeight: cfg.Height,
		}
	} else {
		s.provider.log.WarnContext(ctx, "Capture has no price scale headers",
			logger.StringField("pair", pair),
			logger.StringField("timeframe", timeframe))
	}

	return capture, nil
}

func (s *httpCaptureSession) Release(ctx context.Context) error {
	if _, _, err := s.provider.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(s.id), nil); err != nil {
		return fmt.Errorf("failed to release capture session %s: %w", s.id, err)
	}
	return nil
}
