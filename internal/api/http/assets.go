package http

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/evalify/internal/attempt"
	"github.com/mind-engage/evalify/internal/exam"
	"github.com/mind-engage/evalify/internal/storage"
)

const maxUploadBytes = 16 << 20

// UploadHandler stores the multipart "file" field and attaches its key to
// the attempt as the upload reference.
func UploadHandler(m *attempt.Manager, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session(w, r, m)
		if !ok {
			return
		}
		if s.State() != attempt.Attempting {
			fail(w, attempt.ErrNotAttempting)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		ext := strings.ToLower(path.Ext(hdr.Filename))
		key := "uploads/" + chi.URLParam(r, "sessionID") + "/" + uuid.NewString() + ext
		if _, err := bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if err := s.AttachUpload(exam.UploadRef(key)); err != nil {
			fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"upload": key})
	}
}

// MountAssets serves stored uploads back under GET /*.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})
}
