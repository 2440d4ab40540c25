package db

import "errors"

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm selects the indexing algorithm for the vector field.
type VectorAlgorithm string

const (
	// VectorHNSW uses the HNSW graph algorithm (approximate, fast at scale).
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat uses the FLAT (exact brute-force) algorithm.
	VectorFlat VectorAlgorithm = "FLAT"
)

// VectorIndexSpec describes the per-namespace FT index. Every namespace gets
// the same fixed schema (a vector field plus one tag-set field); only the
// dimensionality and algorithm knobs vary.
type VectorIndexSpec struct {
	Name     string
	Prefix   string
	Dim      int
	Algo     VectorAlgorithm
	Distance DistanceMetric

	// HNSW tuning, ignored for FLAT.
	M           int // max edges per node (server default 16)
	EFConstruct int // build-time dynamic list size (server default 200)
}

// Validate checks that the spec is well-formed.
func (s *VectorIndexSpec) Validate() error {
	if s.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(s.Name) {
		return errors.New("index name contains invalid characters")
	}
	if s.Prefix == "" {
		return errors.New("key prefix is required")
	}
	if s.Dim <= 0 {
		return errors.New("vector DIM must be positive")
	}
	if s.Algo != "" && s.Algo != VectorHNSW && s.Algo != VectorFlat {
		return errors.New("unknown vector algorithm")
	}
	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_.:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-' || r == '.'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
