// Package extract turns free-text task descriptions into structured field
// proposals using a local Ollama model.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"taskdeck/internal/models"
)

// ErrNoFields means the model reply contained nothing usable. Callers show
// it to the user and keep the input for retry; no task is created.
var ErrNoFields = errors.New("could not extract task fields")

// Extractor proposes structured fields for a free-text description.
// Implementations return ErrNoFields when the text cannot be parsed and a
// transport error when the call itself fails.
type Extractor interface {
	Extract(ctx context.Context, text, today string) (*models.Proposal, error)
}

// OllamaExtractor calls a local Ollama instance in JSON mode.
type OllamaExtractor struct {
	client *api.Client
	model  string
}

// NewOllama builds an extractor from the environment (OLLAMA_HOST) and the
// configured model name.
func NewOllama(model string) (*OllamaExtractor, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("ollama client: %w", err)
	}
	return &OllamaExtractor{client: client, model: model}, nil
}

const systemPrompt = `You extract task fields from a free-text work note.
Reply with a single JSON object and nothing else, using exactly these keys:
content, system, category, assigner, assignee, targetDate, priority, tags,
shouldSyncCalendar, shouldSyncSheet.
- content: a short imperative summary of the work.
- system: one of %s, or your best guess.
- category: one of %s, or your best guess.
- assigner / assignee: person names if mentioned, else "".
- targetDate: an absolute date as YYYY-MM-DD resolved against today (%s),
  or "" when no deadline is mentioned.
- priority: "low", "medium" or "high".
- tags: a short list of keyword strings.
- shouldSyncCalendar: true when the note implies a dated appointment.
- shouldSyncSheet: true when the note asks to record or share the task.`

// Extract sends the text to the model and parses the reply.
func (e *OllamaExtractor) Extract(ctx context.Context, text, today string) (*models.Proposal, error) {
	stream := false
	req := &api.ChatRequest{
		Model: e.model,
		Messages: []api.Message{
			{Role: "system", Content: fmt.Sprintf(systemPrompt,
				strings.Join(models.DefaultSystems, ", "),
				strings.Join(models.DefaultCategories, ", "),
				today)},
			{Role: "user", Content: text},
		},
		Format: json.RawMessage(`"json"`),
		Stream: &stream,
	}

	var reply strings.Builder
	err := e.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	return ParseProposal(reply.String())
}

// ParseProposal pulls one JSON object out of a model reply and normalizes it
// into a proposal. Replies without a usable object yield ErrNoFields.
func ParseProposal(raw string) (*models.Proposal, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, ErrNoFields
	}

	var p models.Proposal
	if err := json.Unmarshal([]byte(raw[start:end+1]), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFields, err)
	}
	p.Content = strings.TrimSpace(p.Content)
	if p.Content == "" {
		return nil, ErrNoFields
	}

	switch p.Priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
	default:
		p.Priority = models.PriorityMedium
	}
	if p.TargetDate != "" {
		if _, err := time.Parse(models.DateLayout, p.TargetDate); err != nil {
			p.TargetDate = ""
		}
	}
	return &p, nil
}
