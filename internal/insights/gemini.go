package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"nexu/internal/core"
	"nexu/internal/log"
)

const promptTemplate = `Analyze this financial data and provide 3 short, actionable insights in Portuguese.
Data: %s
Format: JSON array of strings.`

// ErrEmptyResponse is returned when the model answers without usable text.
var ErrEmptyResponse = errors.New("empty model response")

// GeminiConfig configures the Gemini-backed advisor.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the Gemini API endpoint, e.g. a test server.
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiAdvisor asks a Gemini model for insights.
type GeminiAdvisor struct {
	models  *genai.Models
	model   string
	timeout time.Duration
	logger  *log.Logger
}

func NewGeminiAdvisor(ctx context.Context, cfg GeminiConfig, logger *log.Logger) (*GeminiAdvisor, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = log.Discard()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiAdvisor{
		models:  client.Models,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.WithComponent(log.ComponentInsights),
	}, nil
}

// Advise returns the model's tips, or DefaultInsights on any failure.
// Quota exhaustion is logged as a warning, anything else as an error.
func (g *GeminiAdvisor) Advise(ctx context.Context, s core.MonthlySummary) []string {
	tips, err := g.Generate(ctx, s)
	if err == nil {
		return tips
	}

	if IsQuotaError(err) {
		g.logger.WarnContext(ctx, "Gemini API quota exceeded, using default insights",
			log.FieldErrorType, log.ErrorTypeQuota)
	} else {
		g.logger.ErrorContext(ctx, "Error getting insights",
			log.NewFields().WithError(err).WithOperation(log.OpAdvise).ToSlice()...)
	}
	return DefaultInsights()
}

// Generate calls the model once without any fallback.
func (g *GeminiAdvisor) Generate(ctx context.Context, s core.MonthlySummary) ([]string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(ctx, g.model,
		genai.Text(fmt.Sprintf(promptTemplate, data)),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	return parseTips(resp)
}

func parseTips(resp *genai.GenerateContentResponse) ([]string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			text.WriteString(p.Text)
		}
	}

	raw := strings.TrimSpace(text.String())
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyResponse
	}

	var tips []string
	if err := json.Unmarshal([]byte(raw), &tips); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}

	out := tips[:0]
	for _, t := range tips {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyResponse
	}
	return out, nil
}

// IsQuotaError reports whether err means the API quota is exhausted.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrPtr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "429")
}
