package search

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/worklens/internal/domain"
)

// Hash field names. TAG, TEXT and NUMERIC fields below are indexed; the rest
// are stored only for reads.
const (
	fieldSourceType   = "source_type"
	fieldSourceID     = "source_id"
	fieldExternalID   = "external_id"
	fieldTitle        = "title"
	fieldDescription  = "description"
	fieldContent      = "content"
	fieldOrganization = "organization"
	fieldProject      = "project"
	fieldRepo         = "repo"
	fieldStatus       = "status"
	fieldPriority     = "priority"
	fieldItemType     = "item_type"
	fieldIsDraft      = "is_draft"
	fieldAuthorID     = "author_id"
	fieldAuthorName   = "author_name"
	fieldAssignedID   = "assigned_to_id"
	fieldAssignedName = "assigned_to_name"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"
	fieldClosedAt     = "closed_at"
	fieldTouchedAt    = "touched_at"
	fieldParentID     = "parent_id"
	fieldLinkedItems  = "linked_work_items"
	fieldURL          = "url"
	fieldVector       = "vector"
)

// resultFields is the RETURN set for search queries: everything the read-side
// projection needs, nothing heavier (no content, no vector).
var resultFields = []string{
	fieldSourceType, fieldSourceID, fieldExternalID,
	fieldTitle, fieldDescription, fieldStatus, fieldPriority,
	fieldItemType, fieldAuthorName, fieldURL,
	fieldCreatedAt, fieldUpdatedAt,
}

func docKey(sourceType domain.SearchSource, sourceID string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, sourceType, sourceID)
}

// toHashFields flattens a document into hash fields. touched is the index
// pass timestamp that drives staleness cleanup.
func toHashFields(d *domain.SearchDocument, touched time.Time) map[string]string {
	fields := map[string]string{
		fieldSourceType:   string(d.SourceType),
		fieldSourceID:     d.SourceID,
		fieldExternalID:   strconv.Itoa(d.ExternalID),
		fieldTitle:        d.Title,
		fieldOrganization: d.Organization,
		fieldProject:      d.Project,
		fieldPriority:     strconv.Itoa(d.Priority),
		fieldIsDraft:      boolField(d.IsDraft),
		fieldCreatedAt:    unixField(d.CreatedAt),
		fieldUpdatedAt:    unixField(d.UpdatedAt),
		fieldTouchedAt:    unixField(touched),
	}

	setIfPresent(fields, fieldDescription, d.Description)
	setIfPresent(fields, fieldContent, d.Content)
	setIfPresent(fields, fieldRepo, d.RepoName)
	setIfPresent(fields, fieldStatus, d.Status)
	setIfPresent(fields, fieldItemType, d.ItemType)
	setIfPresent(fields, fieldAuthorID, d.AuthorID)
	setIfPresent(fields, fieldAuthorName, d.AuthorName)
	setIfPresent(fields, fieldAssignedID, d.AssignedToID)
	setIfPresent(fields, fieldAssignedName, d.AssignedToName)
	setIfPresent(fields, fieldParentID, d.ParentID)
	setIfPresent(fields, fieldURL, d.URL)

	if !d.ClosedAt.IsZero() {
		fields[fieldClosedAt] = unixField(d.ClosedAt)
	}
	if len(d.LinkedWorkItems) > 0 {
		fields[fieldLinkedItems] = strings.Join(d.LinkedWorkItems, ",")
	}
	if len(d.Embedding) > 0 {
		fields[fieldVector] = vectorToBytes(d.Embedding)
	}

	return fields
}

// docFromHashFields rebuilds a full document from hash fields (Get path).
func docFromHashFields(fields map[string]string) domain.SearchDocument {
	d := domain.SearchDocument{
		SourceType:     domain.SearchSource(fields[fieldSourceType]),
		SourceID:       fields[fieldSourceID],
		ExternalID:     intField(fields[fieldExternalID]),
		Title:          fields[fieldTitle],
		Description:    fields[fieldDescription],
		Content:        fields[fieldContent],
		Organization:   fields[fieldOrganization],
		Project:        fields[fieldProject],
		RepoName:       fields[fieldRepo],
		Status:         fields[fieldStatus],
		Priority:       intField(fields[fieldPriority]),
		ItemType:       fields[fieldItemType],
		IsDraft:        fields[fieldIsDraft] == "1",
		AuthorID:       fields[fieldAuthorID],
		AuthorName:     fields[fieldAuthorName],
		AssignedToID:   fields[fieldAssignedID],
		AssignedToName: fields[fieldAssignedName],
		CreatedAt:      timeField(fields[fieldCreatedAt]),
		UpdatedAt:      timeField(fields[fieldUpdatedAt]),
		ClosedAt:       timeField(fields[fieldClosedAt]),
		ParentID:       fields[fieldParentID],
		URL:            fields[fieldURL],
	}
	if linked := fields[fieldLinkedItems]; linked != "" {
		d.LinkedWorkItems = strings.Split(linked, ",")
	}
	if blob := fields[fieldVector]; blob != "" {
		d.Embedding = bytesToVector(blob)
	}
	return d
}

// candidate is an intermediate hit from one ranking, carried through fusion.
type candidate struct {
	key    string
	score  float64
	fields map[string]string
}

func (c candidate) updatedAt() int64 {
	n, _ := strconv.ParseInt(c.fields[fieldUpdatedAt], 10, 64)
	return n
}

func (c candidate) sourceID() string {
	return c.fields[fieldSourceID]
}

func (c candidate) toResult() domain.SearchResult {
	return domain.SearchResult{
		SourceType: domain.SearchSource(c.fields[fieldSourceType]),
		SourceID:   c.fields[fieldSourceID],
		ExternalID: intField(c.fields[fieldExternalID]),

		Title:       c.fields[fieldTitle],
		Description: c.fields[fieldDescription],
		Status:      c.fields[fieldStatus],
		Priority:    intField(c.fields[fieldPriority]),
		ItemType:    c.fields[fieldItemType],
		AuthorName:  c.fields[fieldAuthorName],
		URL:         c.fields[fieldURL],

		CreatedAt: timeField(c.fields[fieldCreatedAt]),
		UpdatedAt: timeField(c.fields[fieldUpdatedAt]),

		Score: c.score,
	}
}

func setIfPresent(fields map[string]string, key, value string) {
	if value != "" {
		fields[key] = value
	}
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func unixField(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func timeField(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}

func intField(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// vectorToBytes serializes []float32 to the binary form the VECTOR field expects.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
