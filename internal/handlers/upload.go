package handlers

import (
	"errors"
	"io"
	"net/http"

	"quad-image/internal/ingest"
	"quad-image/internal/logging"
	"quad-image/internal/middleware"
)

const (
	uploadField    = "image"
	plainTextField = "js-sucks"

	multipartMemory = 8 << 20
)

// Upload stores the multipart "image" file and generates its thumbnail.
// Browsers are redirected to the stored image; scripted clients that send
// the js-sucks field get the id back as plain text.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	client := uploadClient(r)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		logging.Debug("Upload %s: not a form post: %v", client, err)
		http.Error(w, "not a form post", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Warn("failed to remove multipart temp files: %v", err)
		}
	}()

	file, _, err := r.FormFile(uploadField)
	if err != nil {
		logging.Debug("Upload %s: no image attr", client)
		http.Error(w, "image attr not present", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logging.Error("Upload %s: failed to read image: %v", client, err)
		http.Error(w, "failed to read upload", http.StatusInternalServerError)
		return
	}

	id, err := h.pipeline.Store(data)
	if err != nil {
		status := uploadStatus(err)
		if status == http.StatusInternalServerError {
			logging.Error("Upload %s failed: %v", client, err)
		} else {
			logging.Info("Upload %s rejected: %v", client, err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	if _, err := h.thumbs.Generate(id); err != nil {
		logging.Warn("Thumbnail for %s failed: %v", id, err)
	}

	logging.Info("Upload %s stored as %s", client, id)
	middleware.SetResult(r, id)

	if _, ok := r.MultipartForm.Value[plainTextField]; ok {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(w, id); err != nil {
			logging.Error("failed to write upload response: %v", err)
		}
		return
	}

	http.Redirect(w, r, "https://"+r.Host+"/"+id, http.StatusSeeOther)
}

// uploadClient identifies an upload in logs by request id and address,
// including any forwarded-for chain.
func uploadClient(r *http.Request) string {
	client := "[" + middleware.RequestIDFromContext(r.Context()) + "] " + r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		client += " (" + forwarded + ")"
	}
	return client
}

// uploadStatus maps an ingest failure to a response status: the client
// sent something that is not an image, or an image we could not read.
func uploadStatus(err error) int {
	var stageErr *ingest.StageError
	if !errors.As(err, &stageErr) {
		return http.StatusInternalServerError
	}
	switch stageErr.Stage {
	case ingest.StageDetect:
		return http.StatusUnsupportedMediaType
	case ingest.StageDecode:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
