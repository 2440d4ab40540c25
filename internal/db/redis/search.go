package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/rankdex/internal/db"
)

// SearchVectors runs a KNN similarity search via FT.SEARCH. Tag filters are
// applied server-side as a pre-filter, so the KNN picks the nearest among
// matching records rather than filtering after the fact. A namespace that
// has never been written yields an empty result.
func (s *Store) SearchVectors(ctx context.Context, ns string, q db.SearchQuery) ([]db.VectorMatch, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	filterStr := buildTagFilter(q.Filter)

	knnPart := fmt.Sprintf("[KNN %d @%s $BLOB]", q.Limit, fieldVector)
	var queryStr string
	if filterStr != "" {
		queryStr = fmt.Sprintf("(%s)=>%s", filterStr, knnPart)
	} else {
		queryStr = fmt.Sprintf("*=>%s", knnPart)
	}

	args := []string{
		indexName(ns), queryStr,
		"LIMIT", "0", strconv.Itoa(q.Limit),
		"PARAMS", "2", "BLOB", vectorToBytes(q.Vector),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isMissingIndexErr(err) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseMatches(raw, recordPrefix(ns))
}

// ListVectors pages through namespace records via FT.SEARCH, optionally
// pre-filtered by tags. Ordering follows index document order.
func (s *Store) ListVectors(ctx context.Context, ns string, q db.ListQuery) ([]db.VectorRecord, error) {
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("offset must be non-negative")
	}

	queryStr := buildTagFilter(q.Filter)
	if queryStr == "" {
		queryStr = "*"
	}

	args := []string{
		indexName(ns), queryStr,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isMissingIndexErr(err) {
			return nil, nil
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseRecords(raw, recordPrefix(ns))
}

// CountVectors returns the record count via FT.SEARCH with LIMIT 0 0.
func (s *Store) CountVectors(ctx context.Context, ns string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(indexName(ns), "*", "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isMissingIndexErr(err) {
			return 0, nil
		}
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// FT.SEARCH reports a missing index as "no such index"; FT.INFO and
// FT.DROPINDEX say "unknown index name". Both mean the namespace has never
// been written.
func isMissingIndexErr(err error) bool {
	return isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name")
}

// --- Result parsing ---

func parseMatches(raw []rueidis.RedisMessage, prefix string) ([]db.VectorMatch, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	matches := make([]db.VectorMatch, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fieldArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(fieldArr)

		var score float64
		if scoreStr, ok := fields[fieldScore]; ok {
			if d, err := strconv.ParseFloat(scoreStr, 64); err == nil {
				score = max(0, 1.0-d) // cosine distance → similarity, clamped to [0,1]
			}
			delete(fields, fieldScore)
		}

		rec, err := recordFromFields(strings.TrimPrefix(key, prefix), fields)
		if err != nil {
			continue
		}

		matches = append(matches, db.VectorMatch{VectorRecord: rec, Score: score})
	}

	return matches, nil
}

func parseRecords(raw []rueidis.RedisMessage, prefix string) ([]db.VectorRecord, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	records := make([]db.VectorRecord, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fieldArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		rec, err := recordFromFields(strings.TrimPrefix(key, prefix), parseFieldPairs(fieldArr))
		if err != nil {
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Filter building ---

// buildTagFilter renders tag equality conditions against the packed tag-set
// field. Conditions are space-joined, so all of them must match. Keys are
// sorted to keep the query string deterministic.
func buildTagFilter(filter map[string]string) string {
	if len(filter) == 0 {
		return ""
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		escaped := tagEscaper.Replace(k + pairSeparator + filter[k])
		parts = append(parts, fmt.Sprintf("@%s:{%s}", fieldTags, escaped))
	}
	return strings.Join(parts, " ")
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
