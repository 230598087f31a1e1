package repository

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-zone-analyzer/internal/analyzer/config"
	"golang-zone-analyzer/internal/analyzer/dto"
	"golang-zone-analyzer/pkg/logger"
	"golang-zone-analyzer/pkg/ratelimit"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiVisionRepository is an implementation of VisionRepository that uses the Google Gemini API.
type geminiVisionRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
	cache          *cache.Cache
}

// NewGeminiVisionRepository creates a new instance of geminiVisionRepository.
// genAiClient is only used to count tokens and may be nil.
func NewGeminiVisionRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (VisionRepository, error) {
	if cfg.Gemini.MaxRequestPerMinute <= 0 {
		return nil, fmt.Errorf("gemini max_request_per_minute must be positive")
	}
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	tokenLimiter := ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute)

	ttl := cfg.Gemini.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &geminiVisionRepository{
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
		cache:          cache.New(ttl, 2*ttl),
	}, nil
}

// Analyze sends the chart and prompt to Gemini. Identical requests inside the
// cache window reuse the previous reply.
func (r *geminiVisionRepository) Analyze(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	key := visionCacheKey(image, prompt)
	if cached, found := r.cache.Get(key); found {
		r.logger.DebugContext(ctx, "Gemini response served from cache", logger.StringField("cache_key", key[:12]))
		return cached.(string), nil
	}

	if err := r.waitForQuota(ctx, image, mimeType, prompt); err != nil {
		return "", err
	}

	geminiResp, err := r.executeGeminiAIRequest(ctx, image, mimeType, prompt)
	if err != nil {
		return "", err
	}

	text, err := r.parseGeminiResponse(geminiResp)
	if err != nil {
		return "", err
	}

	r.cache.Set(key, text, cache.DefaultExpiration)
	return text, nil
}

func (r *geminiVisionRepository) waitForQuota(ctx context.Context, image []byte, mimeType, prompt string) error {
	if r.genAiClient != nil {
		contents := []*genai.Content{
			genai.NewContentFromParts([]*genai.Part{
				genai.NewPartFromBytes(image, mimeType),
				genai.NewPartFromText(prompt),
			}, genai.RoleUser),
		}
		geminiTokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.Model, contents, nil)
		if err != nil {
			return fmt.Errorf("failed to count tokens: %w", err)
		}

		r.logger.DebugContext(ctx, "Gemini token count",
			logger.IntField("total_tokens", int(geminiTokenResp.TotalTokens)),
			logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
		)

		if err := r.tokenLimiter.Wait(ctx, int(geminiTokenResp.TotalTokens)); err != nil {
			return fmt.Errorf("failed to wait for token limit: %w", err)
		}

		if int(geminiTokenResp.TotalTokens) > r.cfg.Gemini.MaxTokenPerMinute/2 {
			r.logger.Warn("Token has exceeded 50% of the limit", logger.IntField("remaining", r.tokenLimiter.GetRemaining()))
		}
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for request limit: %w", err)
	}
	return nil
}

func (r *geminiVisionRepository) executeGeminiAIRequest(ctx context.Context, image []byte, mimeType, prompt string) (*dto.GeminiAPIResponse, error) {
	payload := dto.GeminiAPIRequest{
		Contents: []dto.Content{{
			Role: "user",
			Parts: []dto.Part{
				{InlineData: &dto.InlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: prompt},
			},
		}},
		GenerationConfig: &dto.GenerationConfig{ResponseMimeType: "application/json", Temperature: 0},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("Failed to marshal payload", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	r.logger.DebugContext(ctx, "Request Gemini API",
		logger.IntField("image_bytes", len(image)),
		logger.IntField("prompt_chars", len(prompt)))

	apiURL := fmt.Sprintf("%s/%s:generateContent?key=%s", r.cfg.Gemini.BaseURL, r.cfg.Gemini.Model, r.cfg.Gemini.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		r.logger.Error("Failed to create new http request", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to send request to Gemini API", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to send request to Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.ErrorContext(ctx, "Received non-OK response from Gemini API", logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("received non-OK response from Gemini API: %d - %s", resp.StatusCode, string(body))
	}

	var geminiResp dto.GeminiAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		r.logger.ErrorContext(ctx, "Failed to decode response body", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &geminiResp, nil
}

func (r *geminiVisionRepository) parseGeminiResponse(resp *dto.GeminiAPIResponse) (string, error) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("invalid response from Gemini API: no content found")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("invalid response from Gemini API: empty text")
	}
	return sb.String(), nil
}

func visionCacheKey(image []byte, prompt string) string {
	h := sha256.New()
	h.Write(image)
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}
