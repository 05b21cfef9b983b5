package llm

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
	"net/http"
	"strings"
)

const (
	DefaultModel    = "gemini-1.5-pro"
	validatePrompt  = "Test connection with a simple response: say 'ok'"
	emptyResponseOp = "empty model response"
)

type Config struct {
	APIKey string
	Model  string
}

// Gemini is a synchronous, non-streaming client for one model.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini: %w: api key required", ErrInvalidCredentials)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{client: client, model: model}, nil
}

// WithModel returns a client sharing the connection but targeting model.
func (g *Gemini) WithModel(model string) *Gemini {
	if strings.TrimSpace(model) == "" {
		return g
	}
	return &Gemini{client: g.client, model: strings.TrimSpace(model)}
}

func (g *Gemini) Model() string {
	return g.model
}

// Generate issues one generateContent call. Rejected credentials are
// reported as ErrInvalidCredentials.
func (g *Gemini) Generate(ctx context.Context, parts ...Part) (string, error) {
	if len(parts) == 0 {
		return "", errors.New("gemini: prompt required")
	}
	contents := []*genai.Content{genai.NewContentFromParts(toGenaiParts(parts), genai.RoleUser)}

	zerolog.Ctx(ctx).Debug().Str("model", g.model).Int("parts", len(parts)).Msg("calling model")
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", classify(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: %s", emptyResponseOp)
	}
	return text, nil
}

// Validate pings the model to confirm the key is usable.
func (g *Gemini) Validate(ctx context.Context) error {
	_, err := g.Generate(ctx, Text(validatePrompt))
	if err != nil {
		return fmt.Errorf("gemini validate: %w", err)
	}
	return nil
}

func toGenaiParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsInline() {
			out = append(out, genai.NewPartFromBytes(p.Data, p.MimeType))
			continue
		}
		out = append(out, genai.NewPartFromText(p.Text))
	}
	return out
}

func classify(err error) error {
	code, message, ok := apiError(err)
	if !ok {
		return fmt.Errorf("gemini request: %w", err)
	}
	if isCredentialError(code, message) {
		return fmt.Errorf("gemini request: %w: %w", ErrInvalidCredentials, err)
	}
	return fmt.Errorf("gemini request: http %d: %w", code, err)
}

func apiError(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Message, true
	}
	return 0, "", false
}

func isCredentialError(code int, message string) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		lower := strings.ToLower(message)
		return strings.Contains(lower, "api key") || strings.Contains(lower, "api_key")
	default:
		return false
	}
}
