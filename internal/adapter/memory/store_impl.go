package memory

import (
	"context"
	"sync"

	"github.com/user/indexnow-service/internal/entity"
)

// StoreImpl is an in-memory StateStore, used for tests and ephemeral runs.
type StoreImpl struct {
	mu   sync.Mutex
	data *entity.AppData
}

// NewStore creates an empty in-memory store.
func NewStore() *StoreImpl {
	return &StoreImpl{}
}

// Read returns a copy of the stored document.
func (s *StoreImpl) Read(ctx context.Context) (*entity.AppData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return entity.NewAppData(), nil
	}
	return s.data.Clone(), nil
}

// Write stores a copy of data, so later mutations by the caller are not visible.
func (s *StoreImpl) Write(ctx context.Context, data *entity.AppData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data.Clone()
	return nil
}
