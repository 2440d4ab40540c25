package redis

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/rankdex/internal/db"
)

// recordFields flattens a record into its hash representation. All owned
// fields are always written, so HSET fully replaces a previous version
// without a separate DEL round-trip.
func recordFields(rec db.VectorRecord) map[string]string {
	return map[string]string{
		fieldVector:   vectorToBytes(rec.Vector),
		fieldContent:  rec.Document,
		fieldTags:     encodePairs(rec.Tags),
		fieldNumerics: encodeNumerics(rec.Numerics),
	}
}

// recordFromFields rebuilds a record from its hash representation.
func recordFromFields(id string, fields map[string]string) (db.VectorRecord, error) {
	raw, ok := fields[fieldVector]
	if !ok {
		return db.VectorRecord{}, errors.New("missing vector field")
	}
	vec, err := bytesToVector(raw)
	if err != nil {
		return db.VectorRecord{}, err
	}

	nums, err := decodeNumerics(fields[fieldNumerics])
	if err != nil {
		return db.VectorRecord{}, err
	}

	return db.VectorRecord{
		ID:       id,
		Vector:   vec,
		Document: fields[fieldContent],
		Tags:     decodePairs(fields[fieldTags]),
		Numerics: nums,
	}, nil
}

// encodePairs packs tags into "k=v,k=v" with keys sorted for a stable
// encoding. Values are validated upstream to never contain the separator.
func encodePairs(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+pairSeparator+tags[k])
	}
	return strings.Join(parts, tagSeparator)
}

func decodePairs(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	pairs := strings.Split(raw, tagSeparator)
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, pairSeparator)
		if !ok {
			continue
		}
		m[k] = v
	}
	return m
}

func encodeNumerics(nums map[string]float64) string {
	if len(nums) == 0 {
		return ""
	}
	keys := make([]string, 0, len(nums))
	for k := range nums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+pairSeparator+strconv.FormatFloat(nums[k], 'g', -1, 64))
	}
	return strings.Join(parts, tagSeparator)
}

func decodeNumerics(raw string) (map[string]float64, error) {
	if raw == "" {
		return nil, nil
	}
	pairs := strings.Split(raw, tagSeparator)
	m := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, pairSeparator)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("numeric factor %q: %w", k, err)
		}
		m[k] = f
	}
	return m, nil
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func bytesToVector(s string) ([]float32, error) {
	if len(s)%4 != 0 {
		return nil, fmt.Errorf("vector blob of %d bytes is not a multiple of 4", len(s))
	}
	buf := []byte(s)
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}
