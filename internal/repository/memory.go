package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/arcade/internal/apperror"
	"github.com/rocketscienceinc/arcade/internal/entity"
)

type memoryTable struct {
	mu     sync.RWMutex
	tables map[string]entity.TableState
}

// NewMemoryTableRepository keeps table snapshots in process memory.
func NewMemoryTableRepository() TableRepository {
	return &memoryTable{
		tables: make(map[string]entity.TableState),
	}
}

func (that *memoryTable) CreateOrUpdate(_ context.Context, table *entity.TableState) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.tables[table.ID] = *table

	return nil
}

func (that *memoryTable) GetByID(_ context.Context, id string) (*entity.TableState, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	table, ok := that.tables[id]
	if !ok {
		return nil, apperror.ErrTableNotFound
	}

	return &table, nil
}

func (that *memoryTable) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.tables[id]; !ok {
		return apperror.ErrTableNotFound
	}

	delete(that.tables, id)

	return nil
}

func (that *memoryTable) DeleteAll(_ context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.tables = make(map[string]entity.TableState)

	return nil
}
