package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/gorilla/mux"

	"quad-image/internal/filesystem"
	"quad-image/internal/gallery"
	"quad-image/internal/logging"
	"quad-image/internal/middleware"
)

// GalleryImage is one entry of a gallery listing.
type GalleryImage struct {
	ID    string `json:"id"`
	Thumb string `json:"thumb"`
}

// GalleryResponse is returned when listing a gallery.
type GalleryResponse struct {
	Images []GalleryImage `json:"images"`
}

// galleryRequest is the JSON body the web client sends.
type galleryRequest struct {
	Data struct {
		Type       string `json:"type"`
		Attributes struct {
			Gallery string   `json:"gallery"`
			Images  []string `json:"images"`
		} `json:"attributes"`
	} `json:"data"`
}

// PutGallery adds images to a gallery named by "name!passphrase" and
// responds with the gallery's public token. Both form posts and the web
// client's JSON body are accepted.
func (h *Handlers) PutGallery(w http.ResponseWriter, r *http.Request) {
	spec, images, err := readGalleryRequest(w, r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	name, passphrase, ok := gallery.ParseSpec(spec)
	if !ok {
		writeJSONError(w, "gallery must look like name!passphrase", http.StatusBadRequest)
		return
	}
	if len(images) == 0 {
		writeJSONError(w, "no images given", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	public, err := h.galleries.Store(ctx, name, passphrase, images)
	switch {
	case errors.Is(err, gallery.ErrInvalidImageID), errors.Is(err, gallery.ErrInvalidName):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		logging.Error("Gallery store failed: %v", err)
		writeJSONError(w, "failed to store gallery", http.StatusInternalServerError)
		return
	}

	middleware.SetResult(r, public)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"public": public})
}

// GetGallery lists a gallery's images, newest first.
func (h *Handlers) GetGallery(w http.ResponseWriter, r *http.Request) {
	public := mux.Vars(r)["public"]
	if !gallery.ValidPublic(public) {
		writeJSONError(w, "invalid gallery", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ids, err := h.galleries.List(ctx, public)
	if err != nil {
		logging.Error("Gallery list failed: %v", err)
		writeJSONError(w, "failed to list gallery", http.StatusInternalServerError)
		return
	}

	response := GalleryResponse{Images: make([]GalleryImage, 0, len(ids))}
	for _, id := range ids {
		response.Images = append(response.Images, GalleryImage{
			ID:    id,
			Thumb: filesystem.ThumbnailID(id),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, response)
}

func readGalleryRequest(w http.ResponseWriter, r *http.Request) (string, []string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req galleryRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, multipartMemory)).Decode(&req); err != nil {
			return "", nil, errors.New("invalid json body")
		}
		return req.Data.Attributes.Gallery, req.Data.Attributes.Images, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return "", nil, errors.New("not a form post")
		}
		if err := r.ParseForm(); err != nil {
			return "", nil, errors.New("not a form post")
		}
	}
	return r.PostForm.Get("gallery"), r.PostForm["image"], nil
}
