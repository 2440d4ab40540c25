package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	chiv5 "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain"
	dombatch "github.com/kailas-cloud/rankdex/internal/domain/batch"
	"github.com/kailas-cloud/rankdex/internal/domain/rank"
	"github.com/kailas-cloud/rankdex/internal/domain/rank/method"
	domrec "github.com/kailas-cloud/rankdex/internal/domain/record"
	"github.com/kailas-cloud/rankdex/internal/domain/search/query"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
	"github.com/kailas-cloud/rankdex/internal/metrics"
	"github.com/kailas-cloud/rankdex/internal/repository/embcache"
	healthuc "github.com/kailas-cloud/rankdex/internal/usecase/health"
	rankinguc "github.com/kailas-cloud/rankdex/internal/usecase/ranking"
	recorduc "github.com/kailas-cloud/rankdex/internal/usecase/record"
	searchuc "github.com/kailas-cloud/rankdex/internal/usecase/search"
	"github.com/kailas-cloud/rankdex/internal/version"
)

// Error response codes.
const (
	codeBadRequest        = "bad_request"
	codeInvalidNamespace  = "invalid_namespace"
	codeInvalidRecordID   = "invalid_record_id"
	codeInvalidVector     = "invalid_vector"
	codeDimensionMismatch = "dimension_mismatch"
	codeInvalidMetadata   = "invalid_metadata"
	codeBatchTooLarge     = "batch_too_large"
	codeInvalidMethod     = "invalid_method"
	codeZeroWeights       = "zero_weights"
	codeRecordNotFound    = "record_not_found"
	codeNamespaceNotFound = "namespace_not_found"
	codeNotSupported      = "not_supported"
	codeEmbeddingBackend  = "embedding_backend_error"
	codeStorageError      = "storage_error"
	codeTimeout           = "timeout"
	codeInternalError     = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API over the record, search, ranking and health
// services.
type Server struct {
	records       *recorduc.Service
	search        *searchuc.Service
	ranker        *rankinguc.Service
	health        *healthuc.Service
	cache         *embcache.Cache
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	records *recorduc.Service,
	search *searchuc.Service,
	ranker *rankinguc.Service,
	health *healthuc.Service,
	cache *embcache.Cache,
	logger *zap.Logger,
) *Server {
	s := &Server{
		records: records,
		search:  search,
		ranker:  ranker,
		health:  health,
		cache:   cache,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidNamespace, http.StatusBadRequest, codeInvalidNamespace),
		sentinelHandler(domain.ErrInvalidRecordID, http.StatusBadRequest, codeInvalidRecordID),
		dimensionMismatchHandler,
		sentinelHandler(domain.ErrInvalidVector, http.StatusBadRequest, codeInvalidVector),
		sentinelHandler(domain.ErrInvalidMetadata, http.StatusBadRequest, codeInvalidMetadata),
		sentinelHandler(domain.ErrBatchTooLarge, http.StatusBadRequest, codeBatchTooLarge),
		sentinelHandler(domain.ErrInvalidMethod, http.StatusBadRequest, codeInvalidMethod),
		sentinelHandler(domain.ErrZeroWeights, http.StatusBadRequest, codeZeroWeights),
		sentinelHandler(domain.ErrNotInitialized, http.StatusNotImplemented, codeNotSupported),
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout),
		sentinelHandler(domain.ErrEmbeddingBackend, http.StatusBadGateway, codeEmbeddingBackend),
		storageErrorHandler,
	}
	return s
}

// Register mounts all API routes on the router.
func (s *Server) Register(r chiv5.Router) {
	r.Route("/v1", func(r chiv5.Router) {
		r.Route("/namespaces/{ns}", func(r chiv5.Router) {
			r.Delete("/", s.DropNamespace)
			r.Route("/records", func(r chiv5.Router) {
				r.Get("/", s.ListRecords)
				r.Post("/", s.UpsertRecord)
				r.Post("/batch", s.BatchUpsert)
				r.Route("/{id}", func(r chiv5.Router) {
					r.Get("/", s.GetRecord)
					r.Put("/", s.UpsertRecord)
					r.Delete("/", s.DeleteRecord)
				})
			})
			r.Post("/search", s.Search)
			r.Post("/search/ranked", s.SearchRanked)
		})
		r.Post("/rank", s.Rank)
		r.Get("/cache/stats", s.CacheStats)
	})
	r.Get("/healthz", s.HealthCheck)
	r.Get("/version", s.Version)
	r.Get("/metrics", s.Metrics)
}

// upsertRecordRequest is the record write payload. On PUT the id comes from
// the path; a non-empty body id must then agree with it.
type upsertRecordRequest struct {
	ID       string             `json:"id"`
	Document string             `json:"document"`
	Tags     map[string]string  `json:"tags"`
	Numerics map[string]float64 `json:"numerics"`
	Vector   []float32          `json:"vector"`
}

type recordResponse struct {
	ID       string             `json:"id"`
	Document string             `json:"document,omitempty"`
	Tags     map[string]string  `json:"tags,omitempty"`
	Numerics map[string]float64 `json:"numerics,omitempty"`
	Vector   []float32          `json:"vector,omitempty"`
}

type listRecordsResponse struct {
	Items  []recordResponse `json:"items"`
	Count  int              `json:"count"`
	Total  int              `json:"total,omitempty"`
	Offset int              `json:"offset"`
}

type batchUpsertRequest struct {
	Records []upsertRecordRequest `json:"records"`
}

type batchItemResult struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Error  *errorResponse `json:"error,omitempty"`
}

type batchUpsertResponse struct {
	Items     []batchItemResult `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// searchRequest carries either a query vector or a query text, never both.
type searchRequest struct {
	Vector    []float32         `json:"vector"`
	Text      string            `json:"text"`
	Limit     int               `json:"limit"`
	Threshold float64           `json:"threshold"`
	Filter    map[string]string `json:"filter"`
}

type hitResponse struct {
	ID         string             `json:"id"`
	Similarity float64            `json:"similarity"`
	Document   string             `json:"document,omitempty"`
	Tags       map[string]string  `json:"tags,omitempty"`
	Numerics   map[string]float64 `json:"numerics,omitempty"`
}

type searchResponse struct {
	Items []hitResponse `json:"items"`
	Count int           `json:"count"`
}

// rankingPayload tunes the scoring stage. An empty method defaults to
// weighted. Custom resolvers are an in-process concern and have no wire
// representation.
type rankingPayload struct {
	Method    string             `json:"method"`
	TopK      int                `json:"top_k"`
	Threshold float64            `json:"threshold"`
	Weights   map[string]float64 `json:"weights"`
}

type rankedSearchRequest struct {
	searchRequest
	Ranking rankingPayload `json:"ranking"`
}

// candidatePayload is one caller-supplied scoring input. Similarity is a
// pointer so an explicit 0 is distinguishable from absent.
type candidatePayload struct {
	ID         string             `json:"id"`
	Similarity *float64           `json:"similarity"`
	Vector     []float32          `json:"vector"`
	Document   string             `json:"document"`
	Tags       map[string]string  `json:"tags"`
	Numerics   map[string]float64 `json:"numerics"`
}

type rankRequest struct {
	rankingPayload
	QueryVector []float32          `json:"query_vector"`
	Candidates  []candidatePayload `json:"candidates"`
}

type rankedResponse struct {
	ID       string             `json:"id"`
	Score    float64            `json:"score"`
	Document string             `json:"document,omitempty"`
	Tags     map[string]string  `json:"tags,omitempty"`
	Numerics map[string]float64 `json:"numerics,omitempty"`
}

type rankResponse struct {
	Items []rankedResponse `json:"items"`
	Count int              `json:"count"`
}

type cacheStatsResponse struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
	Bytes     int64 `json:"bytes"`
	Capacity  int   `json:"capacity"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type versionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UpsertRecord handles POST /v1/namespaces/{ns}/records and
// PUT /v1/namespaces/{ns}/records/{id}. Upsert is a full replace; the
// response carries the effective id, generated when none was given.
func (s *Server) UpsertRecord(w http.ResponseWriter, r *http.Request) {
	ns := chiv5.URLParam(r, "ns")

	var req upsertRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if id := chiv5.URLParam(r, "id"); id != "" {
		if req.ID != "" && req.ID != id {
			writeError(w, http.StatusBadRequest, codeBadRequest,
				fmt.Sprintf("record id %q in body does not match %q in path", req.ID, id))
			return
		}
		req.ID = id
	}

	rec, err := s.records.Upsert(r.Context(), ns, upsertParams(req))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordToResponse(&rec, true))
}

// GetRecord handles GET /v1/namespaces/{ns}/records/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	ns := chiv5.URLParam(r, "ns")
	id := chiv5.URLParam(r, "id")

	rec, found, err := s.records.Get(r.Context(), ns, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, codeRecordNotFound, "record not found")
		return
	}

	writeJSON(w, http.StatusOK, recordToResponse(&rec, true))
}

// DeleteRecord handles DELETE /v1/namespaces/{ns}/records/{id}.
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	ns := chiv5.URLParam(r, "ns")
	id := chiv5.URLParam(r, "id")

	deleted, err := s.records.Delete(r.Context(), ns, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, codeRecordNotFound, "record not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRecords handles GET /v1/namespaces/{ns}/records. Tag filters arrive as
// tag.<key>=<value> query parameters; vectors are included only on
// include_vectors=true.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	ns := chiv5.URLParam(r, "ns")
	q := r.URL.Query()

	limit, err := queryInt(q, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	offset, err := queryInt(q, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	withVectors := q.Get("include_vectors") == "true"

	records, err := s.records.List(r.Context(), ns, tagFilterFromQuery(q), limit, offset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]recordResponse, len(records))
	for i := range records {
		items[i] = recordToResponse(&records[i], withVectors)
	}

	resp := listRecordsResponse{
		Items:  items,
		Count:  len(items),
		Offset: offset,
	}
	if total, err := s.records.Count(r.Context(), ns); err == nil {
		resp.Total = total
	}

	writeJSON(w, http.StatusOK, resp)
}

// BatchUpsert handles POST /v1/namespaces/{ns}/records/batch. Items fail
// individually; the response reports per-item outcomes.
func (s *Server) BatchUpsert(w http.ResponseWriter, r *http.Request) {
	ns := chiv5.URLParam(r, "ns")

	var req batchUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Records) == 0 || len(req.Records) > s.records.MaxBatch() {
		writeError(w, http.StatusBadRequest, codeBatchTooLarge,
			fmt.Sprintf("records count must be between 1 and %d", s.records.MaxBatch()))
		return
	}

	items := make([]recorduc.UpsertParams, len(req.Records))
	for i, item := range req.Records {
		items[i] = upsertParams(item)
	}

	results := s.records.UpsertBatch(r.Context(), ns, items)

	succeeded, failed := 0, 0
	out := make([]batchItemResult, len(results))
	for i, res := range results {
		out[i] = batchResultToResponse(res)
		if res.Status() == dombatch.StatusOK {
			succeeded++
		} else {
			failed++
		}
	}

	writeJSON(w, http.StatusOK, batchUpsertResponse{
		Items:     out,
		Succeeded: succeeded,
		Failed:    failed,
	})
}

// DropNamespace handles DELETE /v1/namespaces/{ns}.
func (s *Server) DropNamespace(w http.ResponseWriter, r *http.Request) {
	ns := chiv5.URLParam(r, "ns")

	dropped, err := s.records.Drop(r.Context(), ns)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if !dropped {
		writeError(w, http.StatusNotFound, codeNamespaceNotFound, "namespace not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Search handles POST /v1/namespaces/{ns}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	ns := chiv5.URLParam(r, "ns")

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := query.New(req.Vector, req.Text, req.Limit, req.Threshold, req.Filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	start := time.Now()
	hits, err := s.search.Search(r.Context(), ns, q)
	metrics.ObserveSearch(metrics.KindSearch, time.Since(start), err == nil)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]hitResponse, len(hits))
	for i := range hits {
		items[i] = hitToResponse(&hits[i])
	}

	writeJSON(w, http.StatusOK, searchResponse{Items: items, Count: len(items)})
}

// SearchRanked handles POST /v1/namespaces/{ns}/search/ranked. The top-level
// fields bound candidate retrieval, the ranking block tunes re-scoring.
func (s *Server) SearchRanked(w http.ResponseWriter, r *http.Request) {
	ns := chiv5.URLParam(r, "ns")

	var req rankedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := query.New(req.Vector, req.Text, req.Limit, req.Threshold, req.Filter)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	start := time.Now()
	ranked, err := s.search.SearchRanked(r.Context(), ns, q, rankingParams(req.Ranking))
	metrics.ObserveSearch(metrics.KindRankedSearch, time.Since(start), err == nil)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rankResponse{
		Items: rankedToResponse(ranked),
		Count: len(ranked),
	})
}

// Rank handles POST /v1/rank: pure re-scoring of caller-supplied candidates,
// no index access.
func (s *Server) Rank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	candidates := make([]rank.Candidate, len(req.Candidates))
	for i, c := range req.Candidates {
		candidates[i] = candidateFromPayload(c)
	}

	start := time.Now()
	ranked, err := s.ranker.Rank(r.Context(), req.QueryVector, candidates, rankingParams(req.rankingPayload))
	metrics.ObserveSearch(metrics.KindRank, time.Since(start), err == nil)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rankResponse{
		Items: rankedToResponse(ranked),
		Count: len(ranked),
	})
}

// CacheStats handles GET /v1/cache/stats.
func (s *Server) CacheStats(w http.ResponseWriter, r *http.Request) {
	st := s.cache.Stats()
	writeJSON(w, http.StatusOK, cacheStatsResponse{
		Hits:      st.Hits,
		Misses:    st.Misses,
		Evictions: st.Evictions,
		Entries:   st.Entries,
		Bytes:     st.Bytes,
		Capacity:  st.Capacity,
	})
}

// HealthCheck handles GET /healthz. Degraded still answers 200: vector
// queries keep working without the embedder.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Version handles GET /version.
func (s *Server) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{
		Version: version.Version,
		Commit:  version.Commit,
		Date:    version.Date,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidNamespace,
		domain.ErrInvalidRecordID,
		domain.ErrDimensionMismatch,
		domain.ErrInvalidVector,
		domain.ErrInvalidMetadata,
		domain.ErrBatchTooLarge,
		domain.ErrInvalidMethod,
		domain.ErrZeroWeights,
		domain.ErrNotInitialized,
		domain.ErrTimeout,
		domain.ErrEmbeddingBackend,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// dimensionMismatchHandler handles ErrDimensionMismatch, attaching the
// established and offending lengths when known.
func dimensionMismatchHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		return false
	}
	var de *domain.DimensionError
	if errors.As(err, &de) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":         codeDimensionMismatch,
			"message":      msg,
			"expected_dim": de.Want,
			"actual_dim":   de.Got,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, codeDimensionMismatch, msg)
	return true
}

// storageErrorHandler maps backing-store failures to 502. Only the failed
// command name goes to the client; key material stays in the log.
func storageErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		return false
	}
	writeError(w, http.StatusBadGateway, codeStorageError, "storage backend error: "+dbErr.Op)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func upsertParams(req upsertRecordRequest) recorduc.UpsertParams {
	return recorduc.UpsertParams{
		ID:       req.ID,
		Document: req.Document,
		Tags:     req.Tags,
		Numerics: req.Numerics,
		Vector:   req.Vector,
	}
}

func recordToResponse(rec *domrec.Record, withVector bool) recordResponse {
	resp := recordResponse{
		ID:       rec.ID(),
		Document: rec.Document(),
		Tags:     rec.Tags(),
		Numerics: rec.Numerics(),
	}
	if withVector {
		resp.Vector = rec.Vector()
	}
	return resp
}

func hitToResponse(h *result.Hit) hitResponse {
	return hitResponse{
		ID:         h.ID(),
		Similarity: h.Similarity(),
		Document:   h.Document(),
		Tags:       h.Tags(),
		Numerics:   h.Numerics(),
	}
}

func rankedToResponse(ranked []result.Ranked) []rankedResponse {
	items := make([]rankedResponse, len(ranked))
	for i := range ranked {
		r := &ranked[i]
		items[i] = rankedResponse{
			ID:       r.ID(),
			Score:    r.Score(),
			Document: r.Document(),
			Tags:     r.Tags(),
			Numerics: r.Numerics(),
		}
	}
	return items
}

// rankingParams converts the wire payload, defaulting an empty method to
// weighted.
func rankingParams(p rankingPayload) rankinguc.Params {
	m := method.Method(p.Method)
	if p.Method == "" {
		m = method.Weighted
	}
	return rankinguc.Params{
		Method:    m,
		TopK:      p.TopK,
		Threshold: p.Threshold,
		Weights:   p.Weights,
	}
}

func candidateFromPayload(p candidatePayload) rank.Candidate {
	c := rank.NewCandidate(p.ID, p.Document, p.Tags, p.Numerics)
	if p.Similarity != nil {
		c = c.WithSimilarity(*p.Similarity)
	}
	if len(p.Vector) > 0 {
		c = c.WithVector(p.Vector)
	}
	return c
}

func batchResultToResponse(r dombatch.Result) batchItemResult {
	item := batchItemResult{
		ID:     r.ID(),
		Status: string(r.Status()),
	}
	if r.Err() != nil {
		item.Error = &errorResponse{
			Code:    batchErrorCode(r.Err()),
			Message: safeDomainMessage(r.Err()),
		}
	}
	return item
}

func batchErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRecordID):
		return codeInvalidRecordID
	case errors.Is(err, domain.ErrDimensionMismatch):
		return codeDimensionMismatch
	case errors.Is(err, domain.ErrInvalidVector):
		return codeInvalidVector
	case errors.Is(err, domain.ErrInvalidMetadata):
		return codeInvalidMetadata
	case errors.Is(err, domain.ErrBatchTooLarge):
		return codeBatchTooLarge
	case errors.Is(err, domain.ErrNotInitialized):
		return codeNotSupported
	case errors.Is(err, domain.ErrEmbeddingBackend):
		return codeEmbeddingBackend
	default:
		return codeInternalError
	}
}

// tagFilterFromQuery collects tag.<key>=<value> query parameters into a list
// filter.
func tagFilterFromQuery(q url.Values) map[string]string {
	var filter map[string]string
	for key, vals := range q {
		name, ok := strings.CutPrefix(key, "tag.")
		if !ok || name == "" || len(vals) == 0 {
			continue
		}
		if filter == nil {
			filter = make(map[string]string)
		}
		filter[name] = vals[0]
	}
	return filter
}

func queryInt(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}
