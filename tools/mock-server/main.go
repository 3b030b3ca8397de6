// Package main implements a mock catalog API server for local development.
// It serves search, view-count and tag responses from a JSON fixture so the
// estimator can run end to end without a real catalog key.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type fixtureItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Views int64  `json:"views"`
}

type fixtureTag struct {
	Name string `json:"name"`
}

type catalogFixture struct {
	Items []fixtureItem `json:"items"`
	Tags  []fixtureTag  `json:"tags"`
}

type itemRef struct {
	ID string `json:"id"`
}

type searchResponse struct {
	Data []itemRef `json:"data"`
}

type tagsResponse struct {
	Data []fixtureTag `json:"data"`
}

type serverOptions struct {
	apiKey  string
	latency time.Duration
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/catalog.json", "path to catalog fixture")
	apiKey := flag.String("api-key", "", "require this api_key query parameter when set")
	latency := flag.Duration("latency", 0, "delay added to every response")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "items", len(fixture.Items), "tags", len(fixture.Tags))

	handler := newMux(logger, fixture, serverOptions{apiKey: *apiKey, latency: *latency})

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock catalog server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) (*catalogFixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var f catalogFixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &f, nil
}

func newMux(logger *slog.Logger, fixture *catalogFixture, opts serverOptions) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", searchHandler(logger, fixture))
	mux.HandleFunc("GET /search/tags", tagsHandler(logger, fixture))
	mux.HandleFunc("GET /items/{id}/view-count", viewCountHandler(logger, fixture))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if opts.apiKey != "" && r.URL.Query().Get("api_key") != opts.apiKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid api_key"})
			return
		}
		if opts.latency > 0 {
			select {
			case <-time.After(opts.latency):
			case <-r.Context().Done():
				return
			}
		}
		mux.ServeHTTP(w, r)
	})
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

// matches reports whether every word of q appears in title.
func matches(title, q string) bool {
	title = strings.ToLower(title)
	for _, word := range strings.Fields(strings.ToLower(q)) {
		if !strings.Contains(title, word) {
			return false
		}
	}
	return true
}

func intParam(r *http.Request, name string, def, minimum int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v >= minimum {
		return v
	}
	return def
}

func searchHandler(logger *slog.Logger, fixture *catalogFixture) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		limit := intParam(r, "limit", 50, 1)
		offset := intParam(r, "offset", 0, 0)

		var matched []itemRef
		for _, item := range fixture.Items {
			if matches(item.Title, q) {
				matched = append(matched, itemRef{ID: item.ID})
			}
		}
		total := len(matched)

		if offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[offset:min(offset+limit, len(matched))]
		}
		if matched == nil {
			matched = []itemRef{}
		}

		writeJSON(w, http.StatusOK, searchResponse{Data: matched})
		logger.Info("search", "query", q, "matched", total, "returned", len(matched), "offset", offset, "limit", limit)
	}
}

func viewCountHandler(logger *slog.Logger, fixture *catalogFixture) http.HandlerFunc {
	views := make(map[string]int64, len(fixture.Items))
	for _, item := range fixture.Items {
		views[item.ID] = item.Views
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		v, ok := views[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			logger.Warn("unknown item", "id", id)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"viewCount": v})
	}
}

func tagsHandler(logger *slog.Logger, fixture *catalogFixture) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		limit := intParam(r, "limit", 10, 1)

		out := []fixtureTag{}
		for _, tag := range fixture.Tags {
			if len(out) == limit {
				break
			}
			if matches(tag.Name, q) {
				out = append(out, tag)
			}
		}

		writeJSON(w, http.StatusOK, tagsResponse{Data: out})
		logger.Info("tags", "query", q, "returned", len(out))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}
