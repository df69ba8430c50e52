// Package extract turns a free-form chat message into candidate transaction
// fields by calling an external language model. The adapter shields callers
// from the model entirely: every transport failure, timeout, or undecodable
// response comes back as an Unparseable result, never as an error.
package extract

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// TextModel is the single external call the adapter depends on. The
// production implementation wraps Gemini; tests substitute a fake.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// PromptContext carries the per-user context the model needs to extract
// fields consistently.
type PromptContext struct {
	KnownCategories []string
	ReferenceDate   time.Time
	Currency        string
}

// Parsed holds the candidate fields the model identified. Amount is the only
// field the adapter insists on; everything else is optional and validated
// later by normalization.
type Parsed struct {
	Amount       float64
	Direction    string // "expense", "income", or "" when the model saw no cue
	Date         string // YYYY-MM-DD as returned, "" when absent; not yet validated
	CategoryHint string
	Note         string
}

// Result is either a Parsed candidate or an unparseable diagnostic.
type Result struct {
	Parsed *Parsed
	Reason string // set when Parsed is nil
}

// Unparseable reports whether the model found no usable transaction intent.
func (r Result) Unparseable() bool { return r.Parsed == nil }

func unparseable(reason string) Result { return Result{Reason: reason} }

// Client is the extraction adapter. It makes exactly one model call per
// Extract; retry policy, if any, belongs to the caller.
type Client struct {
	model   TextModel
	timeout time.Duration
	log     zerolog.Logger
}

// NewClient creates an adapter around the given model. timeout bounds every
// model call so a slow provider cannot wedge a chat session.
func NewClient(model TextModel, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{model: model, timeout: timeout, log: log}
}

// modelPayload is the strict JSON shape the prompt demands from the model.
type modelPayload struct {
	Found     bool     `json:"found"`
	Reason    string   `json:"reason"`
	Amount    *float64 `json:"amount"`
	Direction *string  `json:"direction"`
	Date      *string  `json:"date"`
	Category  *string  `json:"category"`
	Note      *string  `json:"note"`
}

// Extract asks the model for structured fields in rawText. It never returns
// an error; anything that goes wrong is downgraded to Unparseable.
func (c *Client) Extract(ctx context.Context, rawText string, pc PromptContext) Result {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := buildExtractionPrompt(rawText, pc)

	raw, err := c.model.GenerateText(callCtx, prompt)
	if err != nil {
		c.log.Warn().Err(err).Msg("extraction model call failed")
		return unparseable("the model could not be reached")
	}
	if strings.TrimSpace(raw) == "" {
		c.log.Warn().Msg("extraction model returned empty response")
		return unparseable("empty model response")
	}

	clean := cleanModelJSON(raw)

	var payload modelPayload
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		c.log.Warn().Err(err).Str("raw", raw).Msg("extraction response is not valid JSON")
		return unparseable("malformed model response")
	}

	if !payload.Found {
		reason := payload.Reason
		if reason == "" {
			reason = "no transaction intent found"
		}
		return unparseable(reason)
	}
	if payload.Amount == nil {
		return unparseable("no amount identified")
	}

	p := &Parsed{Amount: *payload.Amount}
	if payload.Direction != nil {
		p.Direction = strings.TrimSpace(*payload.Direction)
	}
	if payload.Date != nil {
		p.Date = strings.TrimSpace(*payload.Date)
	}
	if payload.Category != nil {
		p.CategoryHint = *payload.Category
	}
	if payload.Note != nil {
		p.Note = *payload.Note
	}

	return Result{Parsed: p}
}

// cleanModelJSON strips Markdown fences and stray text around the JSON
// object if the model ignored the formatting instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only from the first '{' to the last '}' in case the model
	// wrapped the object in prose.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
