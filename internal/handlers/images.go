package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"quad-image/internal/filesystem"
	"quad-image/internal/logging"
)

const (
	imageCacheControl     = "public, max-age=31536000, immutable"
	thumbnailCacheControl = "public, max-age=300"
)

// GetImage serves a stored image or its thumbnail from the image directory.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	id := filesystem.ImageDir + "/" + mux.Vars(r)["name"]

	imageID, isThumb := strings.CutSuffix(id, filesystem.ThumbnailSuffix)
	if !filesystem.ValidImageID(imageID) {
		http.Error(w, "Invalid image id", http.StatusBadRequest)
		return
	}

	path := h.writer.Path(id)
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		logging.Error("failed to open %s: %v", path, err)
		http.Error(w, "Failed to access file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logging.Error("failed to stat %s: %v", path, err)
		http.Error(w, "Failed to access file", http.StatusInternalServerError)
		return
	}

	// Stored images never change once written; thumbnails are regenerated.
	if isThumb {
		w.Header().Set("Cache-Control", thumbnailCacheControl)
	} else {
		w.Header().Set("Cache-Control", imageCacheControl)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
