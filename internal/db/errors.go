package db

import "errors"

// Sentinel errors for backing-store operations.
var (
	ErrKeyNotFound       = errors.New("db: key not found")
	ErrNamespaceNotFound = errors.New("db: namespace not found")
	ErrDimConflict       = errors.New("db: namespace dimensionality conflict")
	ErrIndexExists       = errors.New("db: index already exists")
)

// Op constants map to Redis command names for error context. The memory
// driver prefixes its ops with "memory." instead.
const (
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpDel         = "DEL"
	OpHSet        = "HSET"
	OpHGet        = "HGET"
	OpHGetAll     = "HGETALL"
	OpHSetNX      = "HSETNX"
	OpExists      = "EXISTS"
	OpGet         = "GET"
	OpSet         = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
// Callers retrying on transport failures get the failed command plus the key
// context the operation methods already baked into Err.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
