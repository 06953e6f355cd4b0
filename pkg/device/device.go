// Package device abstracts the device capabilities the check-in protocol
// depends on: a location fix and a photo. Each is an independent,
// independently-failing collaborator.
package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPermissionDenied is returned when the user or platform refuses access
// to a device capability. It is never fatal; the feature is disabled with an
// explanatory message and the rest of the client stays usable.
var ErrPermissionDenied = errors.New("device: permission denied")

// Position is a raw location fix
type Position struct {
	Latitude  float64
	Longitude float64
}

// LocationProvider requests location permission and fetches the current
// position. Denial surfaces as ErrPermissionDenied.
type LocationProvider interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// PhotoSourceKind is the explicit two-way choice the inspector makes
type PhotoSourceKind string

const (
	SourceCamera  PhotoSourceKind = "camera"
	SourceGallery PhotoSourceKind = "gallery"
)

// Photo is a captured asset held client-side until submission
type Photo struct {
	Name   string
	Data   []byte
	Source PhotoSourceKind
}

// PhotoSource captures or picks a photo from the chosen source
type PhotoSource interface {
	Pick(ctx context.Context, kind PhotoSourceKind) (Photo, error)
}

// StaticLocation is a LocationProvider with a fixed position, used by the
// CLI (which is given coordinates by flag) and by tests
type StaticLocation struct {
	Position Position
	// Denied simulates a permission refusal
	Denied bool
}

func (s StaticLocation) CurrentPosition(ctx context.Context) (Position, error) {
	if s.Denied {
		return Position{}, ErrPermissionDenied
	}
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return s.Position, nil
}

// FilePhotoSource reads photo bytes from disk. Camera and gallery map to two
// directories so the two-way choice stays explicit even on the CLI.
type FilePhotoSource struct {
	CameraPath  string
	GalleryPath string
}

func (f FilePhotoSource) Pick(ctx context.Context, kind PhotoSourceKind) (Photo, error) {
	var path string
	switch kind {
	case SourceCamera:
		path = f.CameraPath
	case SourceGallery:
		path = f.GalleryPath
	default:
		return Photo{}, fmt.Errorf("device: unknown photo source %q", kind)
	}

	if strings.TrimSpace(path) == "" {
		return Photo{}, fmt.Errorf("device: no %s photo configured", kind)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Photo{}, fmt.Errorf("failed to read %s photo: %w", kind, err)
	}

	return Photo{
		Name:   filepath.Base(path),
		Data:   data,
		Source: kind,
	}, nil
}
