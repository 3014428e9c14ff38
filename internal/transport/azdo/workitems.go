package azdo

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/worklens/internal/domain"
)

// workItemBatchLimit is the upstream cap on ids per batch lookup call.
const workItemBatchLimit = 200

// workItemFields is the field set requested in batch lookups.
var workItemFields = []string{
	"System.Id",
	"System.Title",
	"System.Description",
	"System.WorkItemType",
	"System.State",
	"System.AssignedTo",
	"System.CreatedBy",
	"System.CreatedDate",
	"System.ChangedDate",
	"System.Parent",
	"Microsoft.VSTS.Common.Priority",
	"Microsoft.VSTS.Common.ClosedDate",
}

type wiqlRequest struct {
	Query string `json:"query"`
}

type wiqlResponse struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

type workItemBatchRequest struct {
	IDs    []int    `json:"ids"`
	Fields []string `json:"fields"`
}

// workItem is the wire form of a batch lookup entry. Fields come back as a
// loosely typed map keyed by reference name.
type workItem struct {
	ID     int            `json:"id"`
	Fields map[string]any `json:"fields"`
	URL    string         `json:"url"`
}

// FetchWorkItems returns work items changed since the given time (all items
// when since is zero), normalized into search documents. The flow is the
// upstream two-step: a WIQL id query, then batched field lookups.
func (c *Client) FetchWorkItems(
	ctx context.Context, organization, project string, since time.Time,
) ([]domain.SearchDocument, error) {
	ids, err := c.queryWorkItemIDs(ctx, organization, project, since)
	if err != nil {
		return nil, fmt.Errorf("query work item ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	docs := make([]domain.SearchDocument, 0, len(ids))
	for start := 0; start < len(ids); start += workItemBatchLimit {
		end := min(start+workItemBatchLimit, len(ids))

		items, err := c.lookupWorkItems(ctx, organization, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("lookup work items [%d:%d]: %w", start, end, err)
		}
		for i := range items {
			docs = append(docs, normalizeWorkItem(organization, project, &items[i]))
		}
	}

	return docs, nil
}

func (c *Client) queryWorkItemIDs(
	ctx context.Context, organization, project string, since time.Time,
) ([]int, error) {
	wiql := "Select [System.Id] From WorkItems Where [System.TeamProject] = @project"
	if !since.IsZero() {
		wiql += fmt.Sprintf(" And [System.ChangedDate] >= '%s'", since.UTC().Format("2006-01-02"))
	}
	wiql += " Order By [System.ChangedDate] Desc"

	var resp wiqlResponse
	path := fmt.Sprintf("/%s/%s/_apis/wit/wiql", organization, project)
	if err := c.postJSON(ctx, path, nil, wiqlRequest{Query: wiql}, &resp); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(resp.WorkItems))
	for _, ref := range resp.WorkItems {
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

func (c *Client) lookupWorkItems(ctx context.Context, organization string, ids []int) ([]workItem, error) {
	var resp listEnvelope[workItem]
	path := fmt.Sprintf("/%s/_apis/wit/workitemsbatch", organization)
	req := workItemBatchRequest{IDs: ids, Fields: workItemFields}
	if err := c.postJSON(ctx, path, nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

func normalizeWorkItem(organization, project string, wi *workItem) domain.SearchDocument {
	doc := domain.SearchDocument{
		SourceType: domain.SourceWorkItem,
		SourceID:   fmt.Sprintf("%s/%s/%d", organization, project, wi.ID),
		ExternalID: wi.ID,

		Title:       stringField(wi.Fields, "System.Title"),
		Description: stringField(wi.Fields, "System.Description"),

		Organization: organization,
		Project:      project,

		Status:   stringField(wi.Fields, "System.State"),
		Priority: numberField(wi.Fields, "Microsoft.VSTS.Common.Priority"),
		ItemType: stringField(wi.Fields, "System.WorkItemType"),

		CreatedAt: dateField(wi.Fields, "System.CreatedDate"),
		UpdatedAt: dateField(wi.Fields, "System.ChangedDate"),
		ClosedAt:  dateField(wi.Fields, "Microsoft.VSTS.Common.ClosedDate"),

		URL: wi.URL,
	}

	if author, ok := identityField(wi.Fields, "System.CreatedBy"); ok {
		doc.AuthorID = author.ID
		doc.AuthorName = author.DisplayName
	}
	if assignee, ok := identityField(wi.Fields, "System.AssignedTo"); ok {
		doc.AssignedToID = assignee.ID
		doc.AssignedToName = assignee.DisplayName
	}
	if parent := numberField(wi.Fields, "System.Parent"); parent > 0 {
		doc.ParentID = fmt.Sprintf("%s/%s/%d", organization, project, parent)
	}

	return doc
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

// numberField handles the JSON float64 form of numeric fields.
func numberField(fields map[string]any, key string) int {
	if v, ok := fields[key].(float64); ok {
		return int(v)
	}
	return 0
}

func dateField(fields map[string]any, key string) time.Time {
	s, ok := fields[key].(string)
	if !ok || s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func identityField(fields map[string]any, key string) (identity, bool) {
	m, ok := fields[key].(map[string]any)
	if !ok {
		return identity{}, false
	}
	id := identity{}
	if v, ok := m["id"].(string); ok {
		id.ID = v
	}
	if v, ok := m["displayName"].(string); ok {
		id.DisplayName = v
	}
	if v, ok := m["uniqueName"].(string); ok {
		id.UniqueName = v
	}
	return id, id.ID != "" || id.DisplayName != ""
}
