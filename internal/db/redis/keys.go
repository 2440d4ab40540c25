package redis

// Keyspace layout. A namespace owns one FT index over one key prefix plus a
// meta hash recording its established dimensionality. Namespace names never
// contain colons, so stripping recordPrefix from a key yields the record ID
// unambiguously (IDs may contain colons).
//
//	rx:idx:<ns>       FT index
//	rx:rec:<ns>:<id>  record hash
//	rx:ns:<ns>        namespace meta hash
const (
	indexPrefix = "rx:idx:"
	keyPrefix   = "rx:rec:"
	metaPrefix  = "rx:ns:"

	metaFieldDim = "dim"
)

// Record hash fields. User tags and numeric factors are packed into single
// declared fields so every namespace index shares one fixed schema.
const (
	fieldVector   = "vector"
	fieldContent  = "__content"
	fieldTags     = "__tags"
	fieldNumerics = "__nums"

	// Distance alias FT.SEARCH derives from the vector field name.
	fieldScore = "__vector_score"

	tagSeparator  = ","
	pairSeparator = "="
)

func indexName(ns string) string {
	return indexPrefix + ns
}

func recordPrefix(ns string) string {
	return keyPrefix + ns + ":"
}

func recordKey(ns, id string) string {
	return recordPrefix(ns) + id
}

func metaKey(ns string) string {
	return metaPrefix + ns
}
