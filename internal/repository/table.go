package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/arcade/internal/apperror"
	"github.com/rocketscienceinc/arcade/internal/entity"
)

const (
	tableKeyPrefix = "table:"
	scanBatch      = 100
)

type TableRepository interface {
	CreateOrUpdate(ctx context.Context, table *entity.TableState) error
	GetByID(ctx context.Context, id string) (*entity.TableState, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

type dbTable struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTableRepository stores table snapshots as JSON. A zero ttl keeps them until deleted.
func NewTableRepository(client *redis.Client, ttl time.Duration) TableRepository {
	return &dbTable{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbTable) CreateOrUpdate(ctx context.Context, table *entity.TableState) error {
	tableJSON, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("could not marshal table: %w", err)
	}

	if err = that.client.Set(ctx, tableKeyPrefix+table.ID, tableJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set table: %w", err)
	}

	return nil
}

func (that *dbTable) GetByID(ctx context.Context, id string) (*entity.TableState, error) {
	response, err := that.client.Get(ctx, tableKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrTableNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get table by id: %w", err)
	}

	var table entity.TableState
	if err = json.Unmarshal([]byte(response), &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal table: %w", err)
	}

	return &table, nil
}

func (that *dbTable) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, tableKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete table by id: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrTableNotFound
	}

	return nil
}

// DeleteAll drops every table snapshot. Tables do not outlive the process that hosts them.
func (that *dbTable) DeleteAll(ctx context.Context) error {
	iter := that.client.Scan(ctx, 0, tableKeyPrefix+"*", scanBatch).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan tables: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := that.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete tables: %w", err)
	}

	return nil
}
