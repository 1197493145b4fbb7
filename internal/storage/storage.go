// Package storage defines the persistence interface for delivery history.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kugiri/internal/models"
	"github.com/hyperjump/kugiri/internal/segment"
)

// ErrNotFound is returned when a delivery run is not in the history.
var ErrNotFound = errors.New("delivery not found")

// Storage records delivery runs, their segments and the fingerprints of delivered inbox files.
type Storage interface {
	// Delivery operations
	RecordDelivery(ctx context.Context, d *models.Delivery, segments []segment.Segment) error
	GetDelivery(ctx context.Context, runID string) (*models.Delivery, error)
	GetSegments(ctx context.Context, runID string) ([]segment.Segment, error)
	ListDeliveries(ctx context.Context, offset, limit int) ([]*models.Delivery, error)

	// Fingerprint operations; an unknown doc ID has fingerprint "".
	GetFingerprint(ctx context.Context, docID string) (string, error)
	SetFingerprint(ctx context.Context, docID, path, fingerprint string) error
	DeleteFingerprint(ctx context.Context, docID string) error

	// Stats
	CountDeliveries(ctx context.Context) (int64, error)

	Close() error
}
