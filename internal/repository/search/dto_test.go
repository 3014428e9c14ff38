package search

import (
	"testing"
	"time"
)

func TestToHashFields_OmitsEmptyOptional(t *testing.T) {
	doc := testDoc("contoso/Checkout/payments/101")
	doc.Description = ""
	doc.ClosedAt = time.Time{}
	doc.Embedding = nil

	fields := toHashFields(&doc, time.Now())

	for _, absent := range []string{fieldDescription, fieldClosedAt, fieldVector} {
		if _, ok := fields[absent]; ok {
			t.Errorf("field %q should be omitted when empty", absent)
		}
	}
	if fields[fieldIsDraft] != "0" {
		t.Errorf("is_draft = %q, want %q", fields[fieldIsDraft], "0")
	}
}

func TestDocRoundTrip(t *testing.T) {
	doc := testDoc("contoso/Checkout/payments/101")
	doc.Description = "refresh expires early"
	doc.Content = "lgtm\nfix applied"
	doc.ClosedAt = time.Date(2025, time.March, 11, 12, 0, 0, 0, time.UTC)
	doc.LinkedWorkItems = []string{"contoso/Checkout/7", "contoso/Checkout/9"}
	doc.Embedding = []float32{0.1, 0.2, 0.3}

	got := docFromHashFields(toHashFields(&doc, time.Now()))

	if got.SourceType != doc.SourceType || got.SourceID != doc.SourceID {
		t.Fatalf("key mismatch: %+v", got)
	}
	if got.Content != doc.Content || got.Description != doc.Description {
		t.Errorf("text mismatch: %+v", got)
	}
	if !got.ClosedAt.Equal(doc.ClosedAt) {
		t.Errorf("closed_at = %v, want %v", got.ClosedAt, doc.ClosedAt)
	}
	if len(got.LinkedWorkItems) != 2 || got.LinkedWorkItems[1] != "contoso/Checkout/9" {
		t.Errorf("linked items = %v", got.LinkedWorkItems)
	}
	if len(got.Embedding) != 3 || got.Embedding[2] != 0.3 {
		t.Errorf("embedding = %v", got.Embedding)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	out := bytesToVector(vectorToBytes(in))
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestBytesToVector_Misaligned(t *testing.T) {
	if v := bytesToVector("abc"); v != nil {
		t.Fatalf("expected nil for misaligned blob, got %v", v)
	}
}
