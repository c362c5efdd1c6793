package extract

import (
	"errors"
	"testing"

	"taskdeck/internal/models"
)

func TestParseProposal(t *testing.T) {
	raw := `Sure! Here is the extraction:
	{"content":"Replace the label printer","system":"inventory","category":"maintenance",
	 "assigner":"yamada","assignee":"sato","targetDate":"2025-06-20","priority":"high",
	 "tags":["hardware"],"shouldSyncCalendar":true,"shouldSyncSheet":false}`

	p, err := ParseProposal(raw)
	if err != nil {
		t.Fatalf("ParseProposal: %v", err)
	}
	if p.Content != "Replace the label printer" {
		t.Errorf("content = %q", p.Content)
	}
	if p.TargetDate != "2025-06-20" || p.Priority != models.PriorityHigh {
		t.Errorf("targetDate=%q priority=%q", p.TargetDate, p.Priority)
	}
	if !p.ShouldSyncCalendar || p.ShouldSyncSheet {
		t.Errorf("sync hints = cal %v sheet %v", p.ShouldSyncCalendar, p.ShouldSyncSheet)
	}
}

func TestParseProposalNormalizes(t *testing.T) {
	raw := `{"content":"  Ship it  ","priority":"urgent","targetDate":"sometime in June"}`
	p, err := ParseProposal(raw)
	if err != nil {
		t.Fatalf("ParseProposal: %v", err)
	}
	if p.Content != "Ship it" {
		t.Errorf("content = %q, want trimmed", p.Content)
	}
	if p.Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want medium fallback", p.Priority)
	}
	if p.TargetDate != "" {
		t.Errorf("targetDate = %q, want dropped", p.TargetDate)
	}
}

func TestParseProposalRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		"",
		"I could not find any task in that text.",
		`{"content": ""}`,
		`{broken`,
	} {
		if _, err := ParseProposal(raw); !errors.Is(err, ErrNoFields) {
			t.Errorf("ParseProposal(%q) err = %v, want ErrNoFields", raw, err)
		}
	}
}
