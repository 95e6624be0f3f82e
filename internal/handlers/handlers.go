package handlers

import (
	"context"
	"time"

	"quad-image/internal/filesystem"
	"quad-image/internal/gallery"
	"quad-image/internal/ingest"
	"quad-image/internal/startup"
	"quad-image/internal/thumbs"
)

const requestTimeout = 5 * time.Second

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	db             Pinger
	writer         *filesystem.Writer
	pipeline       *ingest.Pipeline
	thumbs         *thumbs.Generator
	galleries      *gallery.Service
	maxUploadBytes int64
	startTime      time.Time
}

func New(db Pinger, writer *filesystem.Writer, thumbGen *thumbs.Generator, galleries *gallery.Service, config *startup.Config) *Handlers {
	return &Handlers{
		db:             db,
		writer:         writer,
		pipeline:       ingest.NewPipeline(writer),
		thumbs:         thumbGen,
		galleries:      galleries,
		maxUploadBytes: config.MaxUploadBytes,
		startTime:      time.Now(),
	}
}
