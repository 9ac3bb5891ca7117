// AngelaMos | 2026
// handler.go

package graph

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"sync"

	"github.com/graph-gophers/graphql-go"

	"github.com/auratrack/auratrack-api/internal/core"
)

const maxBodyBytes = 1 << 20

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Handler serves the schema over HTTP. POST carries a JSON body; GET
// carries query, operationName and variables as URL parameters and may
// not run mutations, since SameSite=Lax cookies ride along on top-level
// cross-site GETs.
type Handler struct {
	schema *graphql.Schema
}

func NewHandler(schema *graphql.Schema) *Handler {
	return &Handler{schema: schema}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	readOnlyReq := false

	switch r.Method {
	case http.MethodPost:
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			core.JSONError(w, core.NewAppError(
				core.ErrInvalidInput,
				"Content-Type must be application/json",
				http.StatusUnsupportedMediaType,
				core.CodeBadUserInput,
			))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid GraphQL request body")
			return
		}

	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if vars := q.Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				core.BadRequest(w, "variables must be a JSON object")
				return
			}
		}
		readOnlyReq = true

	default:
		w.Header().Set("Allow", "GET, POST")
		core.JSONError(w, core.NewAppError(
			core.ErrInvalidInput,
			"method not allowed",
			http.StatusMethodNotAllowed,
			core.CodeBadUserInput,
		))
		return
	}

	if req.Query == "" {
		core.BadRequest(w, "query is required")
		return
	}

	sink := &cookieSink{}
	ctx := context.WithValue(r.Context(), cookieSinkKey{}, sink)
	if readOnlyReq {
		ctx = context.WithValue(ctx, readOnlyKey{}, true)
	}

	resp := h.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)

	for _, c := range sink.drain() {
		http.SetCookie(w, c)
	}

	core.JSON(w, http.StatusOK, resp)
}

// cookieSink collects cookies set by resolvers so headers are written
// once, after execution and before the body.
type cookieSink struct {
	mu      sync.Mutex
	cookies []*http.Cookie
}

func (s *cookieSink) add(c *http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = append(s.cookies, c)
}

func (s *cookieSink) drain() []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.cookies
	s.cookies = nil
	return out
}

type (
	cookieSinkKey struct{}
	readOnlyKey   struct{}
)

func setCookie(ctx context.Context, c *http.Cookie) {
	if sink, ok := ctx.Value(cookieSinkKey{}).(*cookieSink); ok {
		sink.add(c)
	}
}

func readOnly(ctx context.Context) bool {
	v, _ := ctx.Value(readOnlyKey{}).(bool)
	return v
}
