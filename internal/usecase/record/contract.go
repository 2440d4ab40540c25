package record

import (
	"context"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/domain/namespace"
	domrec "github.com/kailas-cloud/rankdex/internal/domain/record"
)

// Repository is the vector index contract for record operations.
type Repository interface {
	Upsert(ctx context.Context, ns namespace.Namespace, rec domrec.Record) error
	Get(ctx context.Context, ns namespace.Namespace, id string) (domrec.Record, bool, error)
	Delete(ctx context.Context, ns namespace.Namespace, id string) (bool, error)
	List(ctx context.Context, ns namespace.Namespace, filter map[string]string, limit, offset int) ([]domrec.Record, error)
	Count(ctx context.Context, ns namespace.Namespace) (int, error)
	Drop(ctx context.Context, ns namespace.Namespace) (bool, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// UpsertParams carries one record write. An empty ID is replaced by a
// generated one; an empty vector with a non-empty document derives the
// vector by embedding the document.
type UpsertParams struct {
	ID       string
	Document string
	Tags     map[string]string
	Numerics map[string]float64
	Vector   []float32
}
