// cmd/notifier/server.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/notification/archive"
	"concrnt-notifier/internal/notification/view"
)

// server exposes health, metrics, and a small JSON API over the
// notification view.
type server struct {
	httpServer *http.Server
	view       *view.View
	archive    *archive.Archive
	subscriber string
	logger     logger.Logger
}

func newServer(addr string, v *view.View, a *archive.Archive, subscriber string, log logger.Logger) *server {
	s := &server{
		view:       v,
		archive:    a,
		subscriber: subscriber,
		logger:     log.WithFields(map[string]interface{}{"component": "server"}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/notifications", s.handleNotifications)
	mux.HandleFunc("/notifications/more", s.handleReadMore)
	mux.HandleFunc("/notifications/reload", s.handleReload)
	mux.HandleFunc("/notifications/seen", s.handleSeen)
	mux.HandleFunc("/notifications/unread", s.handleUnread)
	mux.HandleFunc("/notifications/archive", s.handleArchive)

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleNotifications returns the displayed group list.
func (s *server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"groups": s.view.Groups(),
	})
}

// handleReadMore appends the next timeline page to the group list.
func (s *server) handleReadMore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	hasMore, err := s.view.ReadMore(r.Context())
	if err != nil {
		s.logger.Error("read more failed", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"groups":  s.view.Groups(),
		"hasMore": hasMore,
	})
}

// handleReload regroups the timeline from scratch.
func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	hasMore, err := s.view.Reload(r.Context())
	if err != nil {
		s.logger.Error("reload failed", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"groups":  s.view.Groups(),
		"hasMore": hasMore,
	})
}

// handleSeen moves the last-seen marker to the newest observed event.
func (s *server) handleSeen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := s.view.MarkSeen(r.Context()); err != nil {
		s.logger.Error("mark seen failed", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleUnread(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	unread, err := s.view.Unread(r.Context())
	if err != nil {
		s.logger.Error("unread check failed", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"unread": unread})
}

func (s *server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.archive == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "archive disabled"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	docs, err := s.archive.Recent(r.Context(), s.subscriber, limit)
	if err != nil {
		s.logger.Error("archive query failed", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": docs})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
