package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// scriptedModel returns a canned response or error for every call.
type scriptedModel struct {
	response string
	err      error
	calls    int
}

func (m *scriptedModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.response, m.err
}

func newTestClient(m TextModel) *Client {
	return NewClient(m, time.Second, zerolog.Nop())
}

func TestExtract_ValidResponse(t *testing.T) {
	model := &scriptedModel{response: `{"found": true, "amount": 5.5, "direction": "expense", "category": "coffee", "note": "morning latte", "date": null, "reason": null}`}
	c := newTestClient(model)

	res := c.Extract(context.Background(), "coffee 5.5", PromptContext{ReferenceDate: time.Now()})
	if res.Unparseable() {
		t.Fatalf("expected parsed result, got unparseable: %s", res.Reason)
	}
	p := res.Parsed
	if p.Amount != 5.5 || p.Direction != "expense" || p.CategoryHint != "coffee" || p.Note != "morning latte" || p.Date != "" {
		t.Errorf("unexpected parsed fields: %+v", p)
	}
	if model.calls != 1 {
		t.Errorf("expected exactly one model call, got %d", model.calls)
	}
}

func TestExtract_Downgrades(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "transport error", err: fmt.Errorf("connection refused")},
		{name: "empty response", response: "   "},
		{name: "malformed json", response: `{"found": true, "amount":`},
		{name: "prose only", response: "I could not find a transaction here."},
		{name: "not found", response: `{"found": false, "reason": "greeting, not a transaction"}`},
		{name: "missing amount", response: `{"found": true, "amount": null, "direction": "expense"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedModel{response: tt.response, err: tt.err}
			c := newTestClient(model)

			res := c.Extract(context.Background(), "whatever", PromptContext{ReferenceDate: time.Now()})
			if !res.Unparseable() {
				t.Fatalf("expected unparseable, got %+v", res.Parsed)
			}
			if res.Reason == "" {
				t.Error("expected a diagnostic reason")
			}
			if model.calls != 1 {
				t.Errorf("expected exactly one model call, got %d", model.calls)
			}
		})
	}
}

func TestExtract_MissingDirectionStillParsed(t *testing.T) {
	model := &scriptedModel{response: `{"found": true, "amount": 12, "direction": null}`}
	c := newTestClient(model)

	res := c.Extract(context.Background(), "12 parking", PromptContext{ReferenceDate: time.Now()})
	if res.Unparseable() {
		t.Fatalf("expected parsed result, got unparseable: %s", res.Reason)
	}
	if res.Parsed.Direction != "" {
		t.Errorf("expected empty direction, got %q", res.Parsed.Direction)
	}
}

func TestCleanModelJSON(t *testing.T) {
	want := `{"found": true}`
	tests := []struct {
		name string
		raw  string
	}{
		{"bare", `{"found": true}`},
		{"fenced", "```json\n{\"found\": true}\n```"},
		{"fenced no lang", "```\n{\"found\": true}\n```"},
		{"surrounding prose", "Here you go:\n{\"found\": true}\nHope that helps!"},
		{"whitespace", "  \n{\"found\": true}\n  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, want)
			}
		})
	}
}

func TestBuildExtractionPrompt_IncludesContext(t *testing.T) {
	pc := PromptContext{
		KnownCategories: []string{"Food", "Transport"},
		ReferenceDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Currency:        "USD",
	}
	prompt := buildExtractionPrompt("coffee 5.5", pc)

	for _, fragment := range []string{"2024-06-01", "USD", "Food, Transport", "coffee 5.5"} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}
}
