package handlers

import (
	"net/http"

	"quad-image/internal/ingest"
	"quad-image/internal/startup"
)

// VersionResponse is the build information plus what /api/upload accepts,
// so clients can check a file before sending it.
type VersionResponse struct {
	startup.BuildInfo
	UploadFormats  []string `json:"uploadFormats"`
	MaxUploadBytes int64    `json:"maxUploadBytes"`
}

// GetVersion returns the application version and upload limits
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	formats := ingest.Formats()
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.String())
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, VersionResponse{
		BuildInfo:      startup.GetBuildInfo(),
		UploadFormats:  names,
		MaxUploadBytes: h.maxUploadBytes,
	})
}
