package ranking

import (
	"time"

	"github.com/kailas-cloud/rankdex/internal/domain/rank"
	"github.com/kailas-cloud/rankdex/internal/domain/rank/method"
)

// Recency derivation defaults.
const (
	// DefaultRecencyField is the numeric field read as a unix timestamp when
	// a candidate carries no explicit recency factor.
	DefaultRecencyField = "updated_at"
	// DefaultRecencyHalfLife halves the recency factor every 7 days.
	DefaultRecencyHalfLife = 168 * time.Hour
)

// Resolver supplies custom factor values. Returning false falls the engine
// back to its built-in resolution (similarity, recency, then the candidate's
// numerics).
type Resolver func(name string, c rank.Candidate) (float64, bool)

// Params selects and tunes the scoring strategy for a single Rank call.
type Params struct {
	// Method picks the strategy; unknown values fail before any scoring.
	Method method.Method
	// TopK truncates the ordered result when positive; 0 returns everything.
	TopK int
	// Threshold drops results whose final score is strictly below it.
	Threshold float64
	// Weights maps factor names to relative weights. Nil or empty falls back
	// to the built-in defaults for the weighted method; the custom method
	// requires an explicit mapping. Weights are rescaled to sum 1.0, so only
	// ratios matter.
	Weights map[string]float64
	// Resolver is consulted first for every factor in the custom method.
	Resolver Resolver
}

// Config tunes how the engine derives factor values.
type Config struct {
	// RecencyField is the numeric field holding a unix timestamp.
	RecencyField string
	// RecencyHalfLife controls the exponential decay speed.
	RecencyHalfLife time.Duration
}
