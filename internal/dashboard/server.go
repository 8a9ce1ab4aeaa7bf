// Package dashboard serves the route snapshot browser: a page listing the
// stored snapshots with the selected one drawn on a map, and the same data
// as JSON.
//
// Every request lists, fetches and resolves from scratch; nothing is cached.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"routewatch/internal/catalog"
	"routewatch/internal/metrics"
	"routewatch/internal/storage"
	"routewatch/models"
	"routewatch/pkg/geometry"
	"routewatch/pkg/log"
	"routewatch/pkg/mapview"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// ObjectReader is the read side of the snapshot store.
type ObjectReader interface {
	ListObjects(ctx context.Context, bucketName, prefix string) ([]string, error)
	GetObject(ctx context.Context, bucketName, key string) ([]byte, error)
}

// CatalogReader returns indexed snapshot summaries.
type CatalogReader interface {
	Latest(ctx context.Context, route string, limit int) ([]catalog.Snapshot, error)
}

// Server holds the dashboard's dependencies.
type Server struct {
	objects ObjectReader
	catalog CatalogReader
	bucket  string
	prefix  string
	logger  log.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithCatalog enables /api/catalog/{route}.
func WithCatalog(c CatalogReader) Option {
	return func(s *Server) { s.catalog = c }
}

// WithLogger sets the logger. The default is the process-wide logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer returns a dashboard over the keys under prefix in bucket.
func NewServer(objects ObjectReader, bucket, prefix string, opts ...Option) *Server {
	s := &Server{
		objects: objects,
		bucket:  bucket,
		prefix:  prefix,
		logger:  log.Std(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the router. Middleware order: RequestID, RealIP, request
// logging, Recoverer.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/objects", s.handleListObjects)
		r.Get("/objects/*", s.handleGetObject)
		if s.catalog != nil {
			r.Get("/catalog/{route}", s.handleCatalog)
		}
	})
	return r
}

type page struct {
	Keys     []string
	Selected string
	Raw      string
	Shape    geometry.Shape
	Count    int
	Sample   models.Coordinates
	Map      *mapview.Map
	Warnings []string
	Notices  []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := s.list(ctx)
	p := page{Keys: l.Keys, Warnings: l.Warnings}

	selected, warning := selectKey(l.Keys, r.URL.Query().Get("key"))
	if warning != "" {
		p.Warnings = append(p.Warnings, warning)
	}
	if selected == "" {
		p.Notices = append(p.Notices, noFilesNotice)
	} else {
		v := s.load(ctx, selected)
		p.Selected = v.Key
		p.Raw = v.Raw
		p.Shape = v.Geometry.Shape
		p.Count = v.Count()
		p.Sample = v.Sample()
		p.Map = v.Map
		p.Warnings = append(p.Warnings, v.Warnings...)
		p.Notices = append(p.Notices, v.Notices...)
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, p); err != nil {
		s.logger.Error(err, "Failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

type listResponse struct {
	Keys     []string `json:"keys"`
	Warnings []string `json:"warnings"`
}

func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	l := s.list(r.Context())
	writeJSON(w, http.StatusOK, listResponse{Keys: l.Keys, Warnings: nonNil(l.Warnings)})
}

type objectResponse struct {
	Key      string             `json:"key"`
	Shape    geometry.Shape     `json:"shape"`
	Raw      any                `json:"raw,omitempty"`
	Count    int                `json:"count"`
	Sample   models.Coordinates `json:"sample"`
	Polyline string             `json:"polyline"`
	Map      *mapview.Map       `json:"map"`
	Warnings []string           `json:"warnings"`
	Notices  []string           `json:"notices"`
}

func (s *Server) handleGetObject(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if !strings.HasPrefix(key, s.prefix) || !strings.HasSuffix(key, ".json") {
		writeError(w, http.StatusNotFound, "unknown object "+key)
		return
	}

	v := s.load(r.Context(), key)
	if v.ReadErr != nil {
		status := http.StatusBadGateway
		if storage.IsNotFound(v.ReadErr) {
			status = http.StatusNotFound
		}
		writeError(w, status, v.Warnings...)
		return
	}

	writeJSON(w, http.StatusOK, objectResponse{
		Key:      v.Key,
		Shape:    v.Geometry.Shape,
		Raw:      v.Geometry.Raw,
		Count:    v.Count(),
		Sample:   nonNilCoords(v.Sample()),
		Polyline: geometry.Encode(v.Geometry.Points),
		Map:      v.Map,
		Warnings: nonNil(v.Warnings),
		Notices:  nonNil(v.Notices),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	route := chi.URLParam(r, "route")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	snapshots, err := s.catalog.Latest(r.Context(), route, limit)
	if err != nil {
		s.logger.Error(err, "Failed to read catalog", "route", route)
		writeError(w, http.StatusInternalServerError, "failed to read catalog")
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Warnings []string `json:"warnings"`
}

func writeError(w http.ResponseWriter, status int, messages ...string) {
	writeJSON(w, status, errorResponse{Warnings: nonNil(messages)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Error(err, "Failed to encode response")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilCoords(c models.Coordinates) models.Coordinates {
	if c == nil {
		return models.Coordinates{}
	}
	return c
}
