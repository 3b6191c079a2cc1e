// Package httpapi exposes the social graph read operations as a JSON HTTP
// surface and maps query outcomes to status codes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/skein/internal/services/social/query"
	"github.com/louisbranch/skein/internal/services/social/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const usersPrefix = "/users/"

var tracer = otel.Tracer("github.com/louisbranch/skein/internal/services/social/api/httpapi")

// Handler serves social graph read requests over one query service.
type Handler struct {
	service *query.Service
}

// NewHandler creates an HTTP handler over the query service.
func NewHandler(service *query.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires social read routes into the provided mux.
func RegisterRoutes(mux *http.ServeMux, handler *Handler) {
	if mux == nil || handler == nil {
		return
	}
	mux.HandleFunc("/users", handler.HandleListUsers)
	mux.HandleFunc("/users/", handler.HandleUserPath)
	mux.HandleFunc("/up", handleHealth)
}

// HandleListUsers serves GET /users.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/users" {
		http.NotFound(w, r)
		return
	}
	if !requireGet(w, r) {
		return
	}
	ctx, span := startSpan(r, "ListUsers")
	defer span.End()
	start := time.Now()

	users, err := h.service.ListUsers(ctx)
	if err != nil {
		h.writeStoreError(w, "ListUsers", start, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, user := range users {
		views = append(views, newUserView(user))
	}
	observe("ListUsers", start, "ok")
	writeJSON(w, http.StatusOK, views)
}

// HandleUserPath parses /users/{id}[/posts|/feed] and dispatches.
func (h *Handler) HandleUserPath(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	parts := splitPathParts(strings.TrimPrefix(r.URL.Path, usersPrefix))
	switch {
	case len(parts) == 1:
		h.handleGetUser(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "posts":
		h.handleUserPosts(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "feed":
		h.handleUserFeed(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request, userID string) {
	ctx, span := startSpan(r, "GetUser")
	defer span.End()
	start := time.Now()

	user, err := h.service.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			observe("GetUser", start, "not_found")
			writeJSONError(w, http.StatusNotFound, "user not found")
			return
		}
		h.writeStoreError(w, "GetUser", start, err)
		return
	}
	observe("GetUser", start, "ok")
	writeJSON(w, http.StatusOK, newUserView(user))
}

func (h *Handler) handleUserPosts(w http.ResponseWriter, r *http.Request, userID string) {
	ctx, span := startSpan(r, "GetUserPosts")
	defer span.End()
	h.servePostPage(ctx, w, r, "GetUserPosts", userID, h.service.GetUserPosts)
}

func (h *Handler) handleUserFeed(w http.ResponseWriter, r *http.Request, userID string) {
	ctx, span := startSpan(r, "GetUserFeed")
	defer span.End()
	h.servePostPage(ctx, w, r, "GetUserFeed", userID, h.service.GetUserFeed)
}

// servePostPage settles user existence before pagination is looked at, so an
// unknown id is a 404 even when page or limit is malformed.
func (h *Handler) servePostPage(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	userID string,
	fetch func(context.Context, string, int, int) ([]query.EnrichedPost, error),
) {
	start := time.Now()

	if err := h.service.UserExists(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			observe(operation, start, "not_found")
			writeJSONError(w, http.StatusNotFound, "user not found")
			return
		}
		h.writeStoreError(w, operation, start, err)
		return
	}

	page, limit, err := parsePageParams(r)
	if err != nil {
		observe(operation, start, "invalid")
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	posts, err := fetch(ctx, userID, page, limit)
	if err != nil {
		if errors.Is(err, query.ErrInvalidPagination) {
			observe(operation, start, "invalid")
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeStoreError(w, operation, start, err)
		return
	}

	views := make([]postView, 0, len(posts))
	for _, post := range posts {
		views = append(views, newPostView(post))
	}
	observe(operation, start, "ok")
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, operation string, start time.Time, err error) {
	observe(operation, start, "error")
	log.Printf("%s: %v", operation, err)
	writeJSONError(w, http.StatusInternalServerError, "internal error")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	w.WriteHeader(http.StatusOK)
}

func startSpan(r *http.Request, operation string) (context.Context, trace.Span) {
	return tracer.Start(r.Context(), operation, trace.WithSpanKind(trace.SpanKindServer))
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// parsePageParams reads page and limit query parameters. A missing or empty
// parameter stays zero, which the pagination engine treats as unset.
func parsePageParams(r *http.Request) (page, limit int, err error) {
	page, err = parseIntParam(r, "page")
	if err != nil {
		return 0, 0, err
	}
	limit, err = parseIntParam(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func parseIntParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return value, nil
}

func splitPathParts(path string) []string {
	rawParts := strings.Split(path, "/")
	parts := make([]string, 0, len(rawParts))
	for _, part := range rawParts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

type errorResponse struct {
	Error string `json:"error"`
}
