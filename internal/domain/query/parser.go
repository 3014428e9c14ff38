// Package query turns a free-text search query into structured filters plus
// residual search text. Parsing is pure and never fails: filter-shaped text
// that cannot be understood stays in the search text verbatim.
package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/worklens/internal/domain"
)

// itemTypeWords maps recognized work-item vocabulary to upstream item types.
var itemTypeWords = map[string]string{
	"bug": "Bug", "bugs": "Bug",
	"task": "Task", "tasks": "Task",
	"feature": "Feature", "features": "Feature",
	"epic": "Epic", "epics": "Epic",
}

// Parser extracts filters from free text. Safe for concurrent use.
type Parser struct {
	projects map[string]string // lowercased alias -> canonical project name
	now      func() time.Time
}

// New creates a parser seeded with project-name aliases.
func New(projectAliases map[string]string) *Parser {
	aliases := make(map[string]string, len(projectAliases))
	for alias, project := range projectAliases {
		aliases[strings.ToLower(alias)] = project
	}
	return &Parser{projects: aliases, now: time.Now}
}

// WithClock overrides the time anchor for relative date phrases (tests).
func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

// Parse extracts recognizable filter tokens and returns the remainder,
// order-preserving and whitespace-normalized, as search text.
func (p *Parser) Parse(text string) domain.ParsedQuery {
	tokens := strings.Fields(text)
	var residual []string
	var f domain.SearchFilters

	for i := 0; i < len(tokens); i++ {
		lower := strings.ToLower(strings.Trim(tokens[i], ".,!?"))

		// Two-token phrases first, so "pull requests" never degrades to
		// "pull" + a stray "requests".
		if i+1 < len(tokens) {
			next := strings.ToLower(strings.Trim(tokens[i+1], ".,!?"))
			if consumed := p.applyPhrase(&f, lower, next); consumed {
				i++
				continue
			}
		}

		if p.applyToken(&f, lower) {
			continue
		}

		// "priority N"
		if lower == "priority" && i+1 < len(tokens) {
			if n, err := strconv.Atoi(strings.Trim(tokens[i+1], ".,!?")); err == nil {
				f.Priority = append(f.Priority, n)
				i++
				continue
			}
		}

		// "updated <date phrase>" switches the next date anchor field
		if lower == "updated" && i+1 < len(tokens) {
			rest := tokens[i+1:]
			if anchor, consumed := p.dateAnchor(rest); consumed > 0 {
				f.UpdatedAfter = anchor
				i += consumed
				continue
			}
		}

		if anchor, consumed := p.dateAnchor(tokens[i:]); consumed > 0 {
			f.CreatedAfter = anchor
			i += consumed - 1
			continue
		}

		residual = append(residual, tokens[i])
	}

	return domain.ParsedQuery{
		SearchText: strings.Join(residual, " "),
		Filters:    f,
	}
}

// applyPhrase handles two-token vocabulary. Returns true when both tokens
// were consumed.
func (p *Parser) applyPhrase(f *domain.SearchFilters, first, second string) bool {
	switch first + " " + second {
	case "pull requests", "pull request":
		f.SourceType = domain.SourcePullRequest
		return true
	case "work items", "work item":
		f.SourceType = domain.SourceWorkItem
		return true
	}
	return false
}

// applyToken handles single-token vocabulary. Returns true when consumed.
func (p *Parser) applyToken(f *domain.SearchFilters, token string) bool {
	switch token {
	case "pr", "prs", "pullrequest", "pullrequests":
		f.SourceType = domain.SourcePullRequest
		return true
	case "draft", "drafts":
		yes := true
		f.IsDraft = &yes
		f.SourceType = domain.SourcePullRequest
		return true
	}

	if itemType, ok := itemTypeWords[token]; ok {
		f.ItemType = appendUnique(f.ItemType, itemType)
		f.SourceType = domain.SourceWorkItem
		return true
	}

	// p1..p4 shorthand
	if len(token) == 2 && token[0] == 'p' && token[1] >= '1' && token[1] <= '4' {
		f.Priority = append(f.Priority, int(token[1]-'0'))
		return true
	}

	if project, ok := p.projects[token]; ok {
		f.Project = project
		return true
	}

	return false
}

// dateAnchor recognizes a relative date phrase at the start of tokens and
// returns the anchor time plus the number of tokens consumed (0 = no match).
func (p *Parser) dateAnchor(tokens []string) (time.Time, int) {
	if len(tokens) == 0 {
		return time.Time{}, 0
	}
	now := p.now()
	first := strings.ToLower(strings.Trim(tokens[0], ".,!?"))

	switch first {
	case "today":
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), 1
	case "yesterday":
		y, m, d := now.AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), 1
	}

	if len(tokens) < 2 {
		return time.Time{}, 0
	}
	second := strings.ToLower(strings.Trim(tokens[1], ".,!?"))

	switch first + " " + second {
	case "last week":
		return now.AddDate(0, 0, -7), 2
	case "last month":
		return now.AddDate(0, -1, 0), 2
	case "this week":
		// Monday 00:00 of the current week
		y, m, d := now.Date()
		midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		offset := (int(now.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset), 2
	case "this month":
		y, m, _ := now.Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, now.Location()), 2
	}

	return time.Time{}, 0
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
