package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing search document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidDocument signals a document failing natural-key validation.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidQuery signals an unusable search request.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrSource signals an upstream provider fetch failure.
	ErrSource = errors.New("upstream source error")
	// ErrRateLimited signals a rate limit hit on the upstream provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrConfig signals missing or invalid setup.
	ErrConfig = errors.New("invalid configuration")
)
