package rankdex

// RankMethod selects the scoring strategy for ranked operations.
type RankMethod string

// Ranking method constants.
const (
	MethodSimilarity RankMethod = "similarity"
	MethodWeighted   RankMethod = "weighted"
	MethodCustom     RankMethod = "custom"
)

// Record is an untyped vector record for the low-level API.
type Record struct {
	ID       string
	Document string
	Tags     map[string]string
	Numerics map[string]float64
	Vector   []float32
}

// SearchResult is a single similarity search hit.
type SearchResult struct {
	ID         string
	Similarity float64
	Document   string
	Tags       map[string]string
	Numerics   map[string]float64
}

// RankedResult is a single re-scored result.
type RankedResult struct {
	ID       string
	Score    float64
	Document string
	Tags     map[string]string
	Numerics map[string]float64
}

// Candidate is one caller-supplied input for pure ranking. Similarity is a
// pointer so an explicit 0 is distinguishable from absent; when absent the
// engine derives one from Vector against the query vector if both are given.
type Candidate struct {
	ID         string
	Similarity *float64
	Vector     []float32
	Document   string
	Tags       map[string]string
	Numerics   map[string]float64
}

// Resolver supplies custom factor values by name. Returning false falls
// back to the candidate's numerics, then 0.
type Resolver func(name string, c Candidate) (float64, bool)

// RankOptions tunes the scoring stage of Ranked/RankedText and the pure
// rank builder. A zero Method means weighted with default weights.
type RankOptions struct {
	Method    RankMethod
	TopK      int
	Threshold float64
	Weights   map[string]float64
	Resolver  Resolver
}

// SearchOptions bounds candidate retrieval.
type SearchOptions struct {
	Limit     int
	Threshold float64
	Filter    map[string]string
}

// ListOptions bounds record listing.
type ListOptions struct {
	Filter map[string]string
	Limit  int
	Offset int
}

// BatchResult is the outcome of one item in a batch operation.
type BatchResult struct {
	ID  string
	OK  bool
	Err error
}

// CacheStats is a point-in-time embedding cache snapshot.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	Bytes     int64
	Capacity  int
}
