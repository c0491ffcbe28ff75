// Package translator talks to the natural-language-to-intent
// collaborator. The engine treats it as an opaque capability: free text
// plus a fixed system prompt in, a structured intent-with-confidence
// object out, or a failure.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/rosterpilot/internal/domain"
	"github.com/yourorg/rosterpilot/internal/observability/metrics"
	"github.com/yourorg/rosterpilot/internal/reliability/circuitbreaker"
	"github.com/yourorg/rosterpilot/internal/reliability/retry"
	"github.com/yourorg/rosterpilot/pkg/cache"
)

// Parser turns one free-text command into a structured parse.
type Parser interface {
	Parse(ctx context.Context, command string) (*domain.ParsedCommand, error)
}

// Config holds translator client configuration
type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	SystemPrompt string
	CacheTTL     time.Duration
	Timeout      time.Duration
}

// OpenAIParser calls an OpenAI-compatible chat-completions endpoint.
// Identical command texts within the cache TTL are served locally:
// parsing is a pure function of the text.
type OpenAIParser struct {
	cfg      Config
	client   *http.Client
	logger   *slog.Logger
	retryCfg *retry.Config
	breaker  *circuitbreaker.Breaker
	cache    *cache.Cache
}

// NewOpenAIParser creates a new translator client
func NewOpenAIParser(cfg Config, logger *slog.Logger) *OpenAIParser {
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIParser{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
		retryCfg: retry.DefaultConfig(),
		breaker:  circuitbreaker.New(5, 2, 30*time.Second),
		cache:    cache.New(),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// wire types mirror the prompt's output format; pointers keep null
// fields distinguishable from zero values.
type wireFields struct {
	EmployeeName    *string  `json:"employee_name"`
	PersonnelNumber *string  `json:"personal_number"`
	Month           *string  `json:"month"`
	Year            *float64 `json:"year"`
	DeltaFTE        *float64 `json:"delta_fte"`
	TargetFTE       *float64 `json:"target_fte"`
	Unit            *string  `json:"unit"`
	Site            *string  `json:"site"`
}

type wireParse struct {
	Intent                string     `json:"intent"`
	Fields                wireFields `json:"fields"`
	Confidence            float64    `json:"confidence"`
	NeedsClarification    bool       `json:"needs_clarification"`
	ClarificationQuestion *string    `json:"clarification_question"`
	Notes                 *string    `json:"notes"`
}

// Parse sends the command to the model and decodes the structured
// intent. Unreachable upstream or unparseable content surfaces as an
// upstream_parse failure; no partial state is created.
func (p *OpenAIParser) Parse(ctx context.Context, command string) (*domain.ParsedCommand, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, domain.NewValidationError("Befehl fehlt")
	}

	if cached, ok := p.cache.Get(command); ok {
		if parsed, ok := cached.(*domain.ParsedCommand); ok {
			copied := *parsed
			return &copied, nil
		}
	}

	if !p.breaker.AllowRequest() {
		return nil, domain.NewUpstreamParseError("Assistent voruebergehend nicht erreichbar", nil)
	}

	start := time.Now()
	content, err := retry.Do(ctx, p.retryCfg, p.logger, "translator.parse", func(ctx context.Context) (string, error) {
		return p.complete(ctx, command)
	})
	if err != nil {
		p.breaker.RecordFailure()
		metrics.ObserveParse("error", time.Since(start))
		return nil, domain.NewUpstreamParseError("Befehl konnte nicht interpretiert werden", err)
	}
	p.breaker.RecordSuccess()

	parsed, err := decodeParse(content)
	if err != nil {
		metrics.ObserveParse("invalid", time.Since(start))
		return nil, domain.NewUpstreamParseError("Antwort des Assistenten nicht lesbar", err)
	}
	metrics.ObserveParse("ok", time.Since(start))

	p.cache.Set(command, parsed, p.cfg.CacheTTL)
	copied := *parsed
	return &copied, nil
}

func (p *OpenAIParser) complete(ctx context.Context, command string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: p.cfg.SystemPrompt},
			{Role: "user", Content: command},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translator request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read translator response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translator returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode translator response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("translator returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

// decodeParse reads the model output as JSON. Models occasionally wrap
// the object in prose; in that case the outermost brace pair is tried.
func decodeParse(content string) (*domain.ParsedCommand, error) {
	var wire wireParse
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("no JSON object in translator output")
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &wire); err != nil {
			return nil, fmt.Errorf("translator output is not valid JSON: %w", err)
		}
	}

	parsed := &domain.ParsedCommand{
		Intent:             domain.Intent(wire.Intent),
		Confidence:         wire.Confidence,
		NeedsClarification: wire.NeedsClarification,
	}
	if !domain.KnownIntents[parsed.Intent] {
		parsed.Intent = domain.IntentUnknown
	}
	if wire.ClarificationQuestion != nil {
		parsed.ClarificationQuestion = *wire.ClarificationQuestion
	}
	if wire.Notes != nil {
		parsed.Notes = *wire.Notes
	}

	f := &parsed.Fields
	if wire.Fields.EmployeeName != nil {
		f.EmployeeName = strings.TrimSpace(*wire.Fields.EmployeeName)
	}
	if wire.Fields.PersonnelNumber != nil {
		f.PersonnelNumber = strings.TrimSpace(*wire.Fields.PersonnelNumber)
	}
	if wire.Fields.Month != nil {
		f.Month = strings.TrimSpace(*wire.Fields.Month)
	}
	if wire.Fields.Year != nil {
		f.Year = int(*wire.Fields.Year)
	}
	if wire.Fields.DeltaFTE != nil {
		f.DeltaFTE = *wire.Fields.DeltaFTE
		f.HasDelta = true
	}
	if wire.Fields.TargetFTE != nil {
		f.TargetFTE = *wire.Fields.TargetFTE
		f.HasTarget = true
	}
	if wire.Fields.Unit != nil {
		f.Unit = strings.TrimSpace(*wire.Fields.Unit)
	}
	if wire.Fields.Site != nil {
		f.Site = strings.TrimSpace(*wire.Fields.Site)
	}
	return parsed, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
