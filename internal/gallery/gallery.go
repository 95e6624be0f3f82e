package gallery

import (
	"context"
	"errors"
	"fmt"

	"quad-image/internal/filesystem"
	"quad-image/internal/logging"
)

var (
	// ErrInvalidName is returned for gallery names that could not form a
	// valid public token.
	ErrInvalidName = errors.New("invalid gallery name")

	// ErrInvalidImageID is returned when a member id is not a stored image id.
	ErrInvalidImageID = errors.New("invalid image id")
)

// Store is the persistence the gallery service needs.
type Store interface {
	AddGalleryImages(ctx context.Context, token string, imageIDs []string) error
	ListGalleryImages(ctx context.Context, token string) ([]string, error)
}

// Service adds images to galleries and lists them.
type Service struct {
	store  Store
	secret []byte
}

// NewService returns a Service that derives tokens with secret.
func NewService(store Store, secret []byte) *Service {
	return &Service{store: store, secret: secret}
}

// Token derives the public token for name and passphrase.
func (s *Service) Token(name, passphrase string) string {
	return DeriveToken(s.secret, name, passphrase)
}

// Store adds imageIDs to the gallery identified by name and passphrase and
// returns its public token. Images already present are left alone.
func (s *Service) Store(ctx context.Context, name, passphrase string, imageIDs []string) (string, error) {
	for _, id := range imageIDs {
		if !filesystem.ValidImageID(id) {
			return "", fmt.Errorf("%w: %q", ErrInvalidImageID, id)
		}
	}

	token := s.Token(name, passphrase)
	if !ValidPublic(token) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if err := s.store.AddGalleryImages(ctx, token, imageIDs); err != nil {
		return "", fmt.Errorf("failed to store gallery images: %w", err)
	}

	logging.Debug("Added %d image(s) to gallery %s", len(imageIDs), token)
	return token, nil
}

// List returns the gallery's images, newest first.
func (s *Service) List(ctx context.Context, token string) ([]string, error) {
	images, err := s.store.ListGalleryImages(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery %s: %w", token, err)
	}
	return images, nil
}
