package httpapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
	"github.com/ConfSphere/conference_layer/internal/httputil"
	"github.com/ConfSphere/conference_layer/internal/middleware"
	"github.com/ConfSphere/conference_layer/services/submission"
)

// uploadFormLimit bounds the multipart form in memory; the file itself
// is size-checked again by the workflow.
const uploadFormLimit = submission.MaxFileSize + 1<<20

func (s *Server) handleUploadPaper(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	if err := r.ParseMultipartForm(uploadFormLimit); err != nil {
		httputil.WriteError(w, svcerr.Validation("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, svcerr.Validation("file field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, uploadFormLimit))
	if err != nil {
		httputil.WriteError(w, svcerr.Validation("could not read uploaded file"))
		return
	}

	var keywords []string
	if raw := r.FormValue("keywords"); raw != "" {
		for _, kw := range strings.Split(raw, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
	}

	paper, err := s.submission.Upload(r.Context(), ident, submission.UploadRequest{
		Title:    r.FormValue("title"),
		Abstract: r.FormValue("abstract"),
		Keywords: keywords,
		FileName: header.Filename,
		Data:     data,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, paper)
}

func (s *Server) handleListOwnPapers(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	papers, err := s.submission.ListOwn(r.Context(), ident)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, papers)
}

func (s *Server) handleDownloadPaper(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	data, paper, err := s.submission.DownloadOwn(r.Context(), ident, mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+paper.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDeleteOwnPaper(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, svcerr.NotAuthenticated(""))
		return
	}

	if err := s.submission.DeleteOwn(r.Context(), ident, mux.Vars(r)["id"]); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
