// Package store persists fitted calibration models behind a driver-agnostic
// interface with SQLite and Postgres backends.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/calib-cli/internal/calib"
)

// ErrModelNotFound is returned when a model id does not exist, or when no
// model has been saved yet.
var ErrModelNotFound = eris.New("store: model not found")

// Record is one stored calibration model with its registry metadata.
type Record struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ThresholdPos int          `json:"threshold_pos"`
	Boundary     string       `json:"boundary"`
	BinCount     int          `json:"bin_count"`
	Samples      int          `json:"samples"`
	Positives    int          `json:"positives"`
	CreatedAt    time.Time    `json:"created_at"`
	Model        *calib.Model `json:"model"`
}

// ModelFilter specifies criteria for listing models.
type ModelFilter struct {
	Name   string `json:"name,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the model registry.
type Store interface {
	SaveModel(ctx context.Context, name string, m *calib.Model) (*Record, error)
	GetModel(ctx context.Context, id string) (*Record, error)
	LatestModel(ctx context.Context) (*Record, error)
	ListModels(ctx context.Context, filter ModelFilter) ([]Record, error)
	DeleteModel(ctx context.Context, id string) error

	Migrate(ctx context.Context) error
	Close() error
}
