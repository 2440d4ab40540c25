package search

import (
	"context"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/domain/namespace"
	"github.com/kailas-cloud/rankdex/internal/domain/rank"
	"github.com/kailas-cloud/rankdex/internal/domain/search/query"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
	"github.com/kailas-cloud/rankdex/internal/usecase/ranking"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	Search(ctx context.Context, ns namespace.Namespace, q query.Query) ([]result.Hit, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Ranker re-scores search candidates.
type Ranker interface {
	Rank(
		ctx context.Context, queryVec []float32,
		candidates []rank.Candidate, p ranking.Params,
	) ([]result.Ranked, error)
}
