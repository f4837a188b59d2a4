package core

import "context"

// VectorSearcher is the contract consumed from the external vector search
// backend. The backend owns partition residency, filter evaluation, and
// distance computation; its output is treated as final. Implementations
// must be safe for concurrent use. The caller never manages the backend's
// lifecycle through this interface.
type VectorSearcher interface {
	FindNearest(ctx context.Context, req SearchRequest) ([]SearchResult, error)
}
