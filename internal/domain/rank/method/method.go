// Package method defines the closed set of ranking strategies.
package method

// Method selects the ranking strategy.
type Method string

// Ranking method constants.
const (
	// Similarity scores by cosine similarity to the query alone.
	Similarity Method = "similarity"
	// Weighted combines similarity, recency, relevance and importance.
	Weighted Method = "weighted"
	// Custom combines caller-named factors with caller weights.
	Custom Method = "custom"
)

// IsValid checks if the method is one of the supported values.
func (m Method) IsValid() bool {
	return m == Similarity || m == Weighted || m == Custom
}
