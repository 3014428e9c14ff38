package query

import (
	"testing"
	"time"

	"github.com/kailas-cloud/worklens/internal/domain"
)

var testNow = time.Date(2025, time.March, 12, 15, 30, 0, 0, time.UTC) // Wednesday

func newTestParser() *Parser {
	return New(map[string]string{
		"billing":  "Billing Platform",
		"checkout": "Checkout",
	}).WithClock(func() time.Time { return testNow })
}

func TestParse_PriorityAndItemType(t *testing.T) {
	p := newTestParser()

	got := p.Parse("priority 1 bugs")

	if len(got.Filters.Priority) != 1 || got.Filters.Priority[0] != 1 {
		t.Fatalf("expected priority [1], got %v", got.Filters.Priority)
	}
	if len(got.Filters.ItemType) != 1 || got.Filters.ItemType[0] != "Bug" {
		t.Fatalf("expected item type [Bug], got %v", got.Filters.ItemType)
	}
	if got.Filters.SourceType != domain.SourceWorkItem {
		t.Errorf("expected work item source type, got %q", got.Filters.SourceType)
	}
	if got.SearchText != "" {
		t.Errorf("expected empty search text, got %q", got.SearchText)
	}
}

func TestParse_PullRequestPhrases(t *testing.T) {
	for _, input := range []string{"pull requests", "pull request", "prs", "PRs"} {
		got := newTestParser().Parse(input + " auth flow")
		if got.Filters.SourceType != domain.SourcePullRequest {
			t.Errorf("%q: expected pull request source, got %q", input, got.Filters.SourceType)
		}
		if got.SearchText != "auth flow" {
			t.Errorf("%q: expected residual %q, got %q", input, "auth flow", got.SearchText)
		}
	}
}

func TestParse_Drafts(t *testing.T) {
	got := newTestParser().Parse("draft PRs")
	if got.Filters.IsDraft == nil || !*got.Filters.IsDraft {
		t.Fatalf("expected is_draft=true, got %v", got.Filters.IsDraft)
	}
	if got.Filters.SourceType != domain.SourcePullRequest {
		t.Errorf("expected pull request source, got %q", got.Filters.SourceType)
	}
}

func TestParse_ProjectAlias(t *testing.T) {
	got := newTestParser().Parse("billing timeout errors")
	if got.Filters.Project != "Billing Platform" {
		t.Fatalf("expected project alias resolution, got %q", got.Filters.Project)
	}
	if got.SearchText != "timeout errors" {
		t.Errorf("expected residual %q, got %q", "timeout errors", got.SearchText)
	}
}

func TestParse_RelativeDates(t *testing.T) {
	tests := []struct {
		input       string
		wantCreated time.Time
		wantUpdated time.Time
	}{
		{"bugs last week", testNow.AddDate(0, 0, -7), time.Time{}},
		{"bugs last month", testNow.AddDate(0, -1, 0), time.Time{}},
		{"tasks this month", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), time.Time{}},
		{"tasks this week", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), time.Time{}},
		{"prs today", time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC), time.Time{}},
		{"updated last week", time.Time{}, testNow.AddDate(0, 0, -7)},
	}
	for _, tc := range tests {
		got := newTestParser().Parse(tc.input)
		if !got.Filters.CreatedAfter.Equal(tc.wantCreated) {
			t.Errorf("%q: created_after = %v, want %v", tc.input, got.Filters.CreatedAfter, tc.wantCreated)
		}
		if !got.Filters.UpdatedAfter.Equal(tc.wantUpdated) {
			t.Errorf("%q: updated_after = %v, want %v", tc.input, got.Filters.UpdatedAfter, tc.wantUpdated)
		}
	}
}

func TestParse_UnrecognizedTextPreserved(t *testing.T) {
	got := newTestParser().Parse("  flaky   retry logic in   uploader ")
	if got.SearchText != "flaky retry logic in uploader" {
		t.Fatalf("expected normalized residual, got %q", got.SearchText)
	}
	if !got.Filters.IsEmpty() {
		t.Errorf("expected no filters, got %+v", got.Filters)
	}
}

func TestParse_OrderIndependent(t *testing.T) {
	a := newTestParser().Parse("priority 2 bugs billing")
	b := newTestParser().Parse("billing bugs priority 2")

	if a.Filters.Project != b.Filters.Project {
		t.Errorf("project differs: %q vs %q", a.Filters.Project, b.Filters.Project)
	}
	if len(a.Filters.Priority) != 1 || len(b.Filters.Priority) != 1 || a.Filters.Priority[0] != b.Filters.Priority[0] {
		t.Errorf("priority differs: %v vs %v", a.Filters.Priority, b.Filters.Priority)
	}
	if len(a.Filters.ItemType) != 1 || len(b.Filters.ItemType) != 1 {
		t.Errorf("item type differs: %v vs %v", a.Filters.ItemType, b.Filters.ItemType)
	}
}

func TestParse_PriorityShorthand(t *testing.T) {
	got := newTestParser().Parse("p1 incidents")
	if len(got.Filters.Priority) != 1 || got.Filters.Priority[0] != 1 {
		t.Fatalf("expected priority [1], got %v", got.Filters.Priority)
	}
	if got.SearchText != "incidents" {
		t.Errorf("expected residual %q, got %q", "incidents", got.SearchText)
	}
}

func TestParse_MalformedPriorityStaysInText(t *testing.T) {
	got := newTestParser().Parse("priority high login")
	if len(got.Filters.Priority) != 0 {
		t.Fatalf("expected no priority, got %v", got.Filters.Priority)
	}
	if got.SearchText != "priority high login" {
		t.Errorf("expected full residual, got %q", got.SearchText)
	}
}

func TestParse_Empty(t *testing.T) {
	got := newTestParser().Parse("")
	if got.SearchText != "" || !got.Filters.IsEmpty() {
		t.Fatalf("expected empty parse, got %+v", got)
	}
}
