package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/httputil"
	"github.com/ConfSphere/conference_layer/internal/middleware"
	"github.com/ConfSphere/conference_layer/supabase/client"
)

func (s *Server) handleAdminListPapers(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	papers, err := s.review.ListAll(r.Context(), ident, r.URL.Query().Get("status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, papers)
}

func (s *Server) handleAdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	var req struct {
		Status   string `json:"status"`
		Comments string `json:"comments,omitempty"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	paper, err := s.review.UpdateStatus(r.Context(), ident, mux.Vars(r)["id"], req.Status, req.Comments)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, paper)
}

func (s *Server) handleAdminDeletePaper(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	if err := s.review.Delete(r.Context(), ident, mux.Vars(r)["id"]); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAdminDeleteAllPapers(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	count, err := s.review.DeleteAll(r.Context(), ident)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"count": count})
}

// handleAdminPapersFeed streams paper table changes as server-sent
// events. The stream stays open until the client disconnects.
func (s *Server) handleAdminPapersFeed(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	events := make(chan *client.RealtimeEvent, 16)
	stop, err := s.dashboard.WatchPapers(r.Context(), ident, func(ev *client.RealtimeEvent) {
		select {
		case events <- ev:
		default:
		}
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer stop()

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, svcerr.Internal("streaming unsupported", nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	stats, err := s.dashboard.Compute(r.Context(), ident)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
