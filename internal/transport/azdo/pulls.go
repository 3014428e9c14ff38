package azdo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/worklens/internal/domain"
)

// identity is an upstream user reference.
type identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

// pullRequest is the wire form of a pull request list entry.
type pullRequest struct {
	ID           int        `json:"pullRequestId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	IsDraft      bool       `json:"isDraft"`
	CreatedBy    identity   `json:"createdBy"`
	CreationDate time.Time  `json:"creationDate"`
	ClosedDate   *time.Time `json:"closedDate"`
	Repository   struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"repository"`
	URL string `json:"url"`
}

type prThread struct {
	Comments []struct {
		Content     string `json:"content"`
		CommentType string `json:"commentType"`
	} `json:"comments"`
}

type prCommit struct {
	Comment string `json:"comment"`
}

type workItemRef struct {
	ID string `json:"id"`
}

// FetchPullRequests returns active plus recently completed pull requests for
// one project, normalized into search documents. Completed records within
// the closed window are included so they get a final refresh before aging
// out of the index.
func (c *Client) FetchPullRequests(ctx context.Context, organization, project string) ([]domain.SearchDocument, error) {
	active, err := c.listPullRequests(ctx, organization, project, "active", time.Time{})
	if err != nil {
		return nil, fmt.Errorf("list active pull requests: %w", err)
	}

	closedSince := c.now().Add(-c.closedWindow)
	completed, err := c.listPullRequests(ctx, organization, project, "completed", closedSince)
	if err != nil {
		return nil, fmt.Errorf("list completed pull requests: %w", err)
	}

	prs := append(active, completed...)
	docs := make([]domain.SearchDocument, len(prs))

	// Detail fetches are I/O bound; bound the fan-out to keep upstream happy.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.detailFanout)

	for i := range prs {
		i := i
		g.Go(func() error {
			pr := &prs[i]
			detail := c.fetchPullRequestDetail(gctx, organization, project, pr)
			docs[i] = normalizePullRequest(organization, project, pr, detail)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch pull request details: %w", err)
	}

	return docs, nil
}

func (c *Client) listPullRequests(
	ctx context.Context, organization, project, status string, minTime time.Time,
) ([]pullRequest, error) {
	query := url.Values{}
	query.Set("searchCriteria.status", status)
	query.Set("$top", "1000")
	if !minTime.IsZero() {
		query.Set("searchCriteria.minTime", minTime.UTC().Format(time.RFC3339))
		query.Set("searchCriteria.queryTimeRangeType", "closed")
	}

	var resp listEnvelope[pullRequest]
	path := fmt.Sprintf("/%s/%s/_apis/git/pullrequests", organization, project)
	if err := c.getJSON(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// pullRequestDetail is the per-record secondary corpus.
type pullRequestDetail struct {
	content         string
	linkedWorkItems []string
}

// fetchPullRequestDetail assembles thread comments, commit messages and
// linked work item ids. A detail failure degrades that one record to its
// title and description instead of failing the whole fetch.
func (c *Client) fetchPullRequestDetail(
	ctx context.Context, organization, project string, pr *pullRequest,
) pullRequestDetail {
	var detail pullRequestDetail
	var parts []string

	threads, err := c.fetchThreads(ctx, organization, project, pr.Repository.ID, pr.ID)
	if err != nil {
		c.logger.Warn("Failed to fetch pull request threads",
			zap.Int("pull_request", pr.ID), zap.Error(err))
	} else {
		parts = append(parts, threads...)
	}

	commits, err := c.fetchCommitMessages(ctx, organization, project, pr.Repository.ID, pr.ID)
	if err != nil {
		c.logger.Warn("Failed to fetch pull request commits",
			zap.Int("pull_request", pr.ID), zap.Error(err))
	} else {
		parts = append(parts, commits...)
	}

	linked, err := c.fetchLinkedWorkItems(ctx, organization, project, pr.Repository.ID, pr.ID)
	if err != nil {
		c.logger.Warn("Failed to fetch pull request work items",
			zap.Int("pull_request", pr.ID), zap.Error(err))
	} else {
		detail.linkedWorkItems = linked
	}

	detail.content = strings.Join(parts, "\n")
	return detail
}

func (c *Client) fetchThreads(
	ctx context.Context, organization, project, repoID string, prID int,
) ([]string, error) {
	var resp listEnvelope[prThread]
	path := fmt.Sprintf("/%s/%s/_apis/git/repositories/%s/pullRequests/%d/threads",
		organization, project, repoID, prID)
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	var comments []string
	for _, thread := range resp.Value {
		for _, comment := range thread.Comments {
			// system comments are vote/status noise
			if comment.CommentType == "system" || comment.Content == "" {
				continue
			}
			comments = append(comments, comment.Content)
		}
	}
	return comments, nil
}

func (c *Client) fetchCommitMessages(
	ctx context.Context, organization, project, repoID string, prID int,
) ([]string, error) {
	var resp listEnvelope[prCommit]
	path := fmt.Sprintf("/%s/%s/_apis/git/repositories/%s/pullRequests/%d/commits",
		organization, project, repoID, prID)
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	var messages []string
	for _, commit := range resp.Value {
		if commit.Comment != "" {
			messages = append(messages, commit.Comment)
		}
	}
	return messages, nil
}

func (c *Client) fetchLinkedWorkItems(
	ctx context.Context, organization, project, repoID string, prID int,
) ([]string, error) {
	var resp listEnvelope[workItemRef]
	path := fmt.Sprintf("/%s/%s/_apis/git/repositories/%s/pullRequests/%d/workitems",
		organization, project, repoID, prID)
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Value))
	for _, ref := range resp.Value {
		if ref.ID != "" {
			ids = append(ids, fmt.Sprintf("%s/%s/%s", organization, project, ref.ID))
		}
	}
	return ids, nil
}

func normalizePullRequest(
	organization, project string, pr *pullRequest, detail pullRequestDetail,
) domain.SearchDocument {
	doc := domain.SearchDocument{
		SourceType: domain.SourcePullRequest,
		SourceID: fmt.Sprintf("%s/%s/%s/%d",
			organization, project, pr.Repository.Name, pr.ID),
		ExternalID: pr.ID,

		Title:       pr.Title,
		Description: pr.Description,
		Content:     detail.content,

		Organization: organization,
		Project:      project,
		RepoName:     pr.Repository.Name,

		Status:  pr.Status,
		IsDraft: pr.IsDraft,

		AuthorID:   pr.CreatedBy.ID,
		AuthorName: pr.CreatedBy.DisplayName,

		CreatedAt: pr.CreationDate,
		UpdatedAt: pr.CreationDate,

		LinkedWorkItems: detail.linkedWorkItems,
		URL:             pr.URL,
	}

	if pr.ClosedDate != nil {
		doc.ClosedAt = *pr.ClosedDate
		doc.UpdatedAt = *pr.ClosedDate
	}

	return doc
}
