package repository

import (
	"context"

	"github.com/user/indexnow-service/internal/entity"
)

// StateKey is the well-known key the state document is stored under.
const StateKey = "indexnow-app-data"

// StateStore persists the whole state document.
type StateStore interface {
	// Read returns the stored document, or an empty one if nothing was written yet.
	Read(ctx context.Context) (*entity.AppData, error)
	// Write replaces the stored document.
	Write(ctx context.Context, data *entity.AppData) error
}
