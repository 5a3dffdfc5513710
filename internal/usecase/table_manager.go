package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/arcade/internal/apperror"
	"github.com/rocketscienceinc/arcade/internal/entity"
	"github.com/rocketscienceinc/arcade/internal/jackenpoy"
	"github.com/rocketscienceinc/arcade/internal/tictactoe"
)

const settleCommitTimeout = 5 * time.Second

type tableRepo interface {
	CreateOrUpdate(ctx context.Context, table *entity.TableState) error
	GetByID(ctx context.Context, id string) (*entity.TableState, error)
	DeleteByID(ctx context.Context, id string) error
}

type notifier interface {
	Publish(table *entity.TableState)
}

type scheduler interface {
	Schedule(key string, delay time.Duration, fn func()) bool
	Cancel(key string) bool
}

// table pairs one engine with its ledger. mu serializes every mutation, so a finished game
// and its ledger entry are committed as one step.
type table struct {
	mu sync.Mutex

	id     string
	game   string
	engine entity.Engine
	ledger *entity.Ledger
	closed bool
}

func (that *table) state() *entity.TableState {
	return entity.NewTableState(that.id, that.game, that.engine.Snapshot(), that.ledger.Snapshot())
}

// TableManager hosts the tables of this process and keeps their snapshots in the repository.
type TableManager struct {
	logger *slog.Logger

	tableRepo   tableRepo
	notifier    notifier
	scheduler   scheduler
	settleDelay time.Duration

	mu     sync.RWMutex
	tables map[string]*table
}

func NewTableManager(logger *slog.Logger, tableRepo tableRepo, notifier notifier, scheduler scheduler, settleDelay time.Duration) *TableManager {
	return &TableManager{
		logger: logger.With("component", "table_manager"),

		tableRepo:   tableRepo,
		notifier:    notifier,
		scheduler:   scheduler,
		settleDelay: settleDelay,

		tables: make(map[string]*table),
	}
}

func (that *TableManager) CreateTable(ctx context.Context, gameKey string) (*entity.TableState, error) {
	game, err := entity.LookupGame(gameKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	newTable := &table{
		id:     uuid.NewString(),
		game:   game.ID,
		engine: newEngine(game),
		ledger: entity.NewLedger(),
	}

	newTable.mu.Lock()
	defer newTable.mu.Unlock()

	state := newTable.state()
	if err = that.tableRepo.CreateOrUpdate(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	that.mu.Lock()
	that.tables[newTable.id] = newTable
	that.mu.Unlock()

	that.logger.Info("table created", "tableID", newTable.id, "game", game.Label)

	return state, nil
}

// GetTable answers from the hosted table. The stored snapshot may have expired while the
// table is still being played, so it is written back when missing.
func (that *TableManager) GetTable(ctx context.Context, id string) (*entity.TableState, error) {
	current, err := that.lockTable(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	defer current.mu.Unlock()

	state := current.state()

	if _, err = that.tableRepo.GetByID(ctx, id); errors.Is(err, apperror.ErrTableNotFound) {
		that.logger.Warn("stored table missing, saving it again", "tableID", id)

		if err = that.tableRepo.CreateOrUpdate(ctx, state); err != nil {
			that.logger.Error("failed to save table", "tableID", id, "error", err)
		}
	}

	return state, nil
}

// SubmitMove plays move for whoever is on turn. A rejected move returns the unchanged
// table together with the error.
func (that *TableManager) SubmitMove(ctx context.Context, id string, move int) (*entity.TableState, error) {
	log := that.logger.With("method", "SubmitMove", "tableID", id)

	current, err := that.lockTable(id)
	if err != nil {
		return nil, err
	}
	defer current.mu.Unlock()

	outcome, err := current.engine.SubmitMove(move)
	if err != nil {
		log.Debug("move refused", "move", move, "error", err)
		return current.state(), fmt.Errorf("failed to make turn: %w", err)
	}

	if outcome.IsTerminal() {
		current.ledger.RecordOutcome(outcome, current.engine.Snapshot().Board)
		log.Info("game finished", "result", outcome.Label())
	}

	state := current.state()
	that.commit(ctx, state)

	return state, nil
}

// RequestReset freezes the game and clears it once the settle delay has passed.
// A newer reset replaces one that has not settled yet.
func (that *TableManager) RequestReset(ctx context.Context, id string) (*entity.TableState, error) {
	current, err := that.lockTable(id)
	if err != nil {
		return nil, err
	}
	defer current.mu.Unlock()

	return that.beginReset(ctx, current), nil
}

// RequestScoreReset clears the ledger and starts a board reset as well.
func (that *TableManager) RequestScoreReset(ctx context.Context, id string) (*entity.TableState, error) {
	current, err := that.lockTable(id)
	if err != nil {
		return nil, err
	}
	defer current.mu.Unlock()

	current.ledger.ResetAll()
	that.logger.Info("scores reset", "tableID", id)

	return that.beginReset(ctx, current), nil
}

func (that *TableManager) CloseTable(ctx context.Context, id string) error {
	that.mu.Lock()
	current, ok := that.tables[id]
	delete(that.tables, id)
	that.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrTableNotFound, id)
	}

	current.mu.Lock()
	current.closed = true
	that.scheduler.Cancel(id)
	current.mu.Unlock()

	if err := that.tableRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}

	that.logger.Info("table closed", "tableID", id)

	return nil
}

// beginReset must be called with the table locked. The task is scheduled under the same
// lock so two resets can never be scheduled out of order.
func (that *TableManager) beginReset(ctx context.Context, current *table) *entity.TableState {
	generation := current.engine.BeginReset()

	superseded := that.scheduler.Schedule(current.id, that.settleDelay, func() {
		that.settle(current, generation)
	})
	if superseded {
		that.logger.Debug("pending reset superseded", "tableID", current.id, "generation", generation)
	}

	state := current.state()
	that.commit(ctx, state)

	return state
}

func (that *TableManager) settle(current *table, generation uint64) {
	log := that.logger.With("method", "settle", "tableID", current.id)

	ctx, cancel := context.WithTimeout(context.Background(), settleCommitTimeout)
	defer cancel()

	current.mu.Lock()
	defer current.mu.Unlock()

	if current.closed {
		return
	}

	if !current.engine.CompleteReset(generation) {
		log.Debug("stale reset ignored", "generation", generation)
		return
	}

	that.commit(ctx, current.state())
}

// commit stores and broadcasts a snapshot. A storage failure must not undo a move that
// already happened, so it is only logged.
func (that *TableManager) commit(ctx context.Context, state *entity.TableState) {
	if err := that.tableRepo.CreateOrUpdate(ctx, state); err != nil {
		that.logger.Error("failed to save table", "tableID", state.ID, "error", err)
	}

	that.notifier.Publish(state)
}

func (that *TableManager) getTable(id string) (*table, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	current, ok := that.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrTableNotFound, id)
	}

	return current, nil
}

// lockTable returns the table locked. Callers must unlock it.
func (that *TableManager) lockTable(id string) (*table, error) {
	current, err := that.getTable(id)
	if err != nil {
		return nil, err
	}

	current.mu.Lock()
	if current.closed {
		current.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", apperror.ErrTableNotFound, id)
	}

	return current, nil
}

func newEngine(game entity.GameInfo) entity.Engine {
	if game.ID == entity.GameJackEnPoy {
		return jackenpoy.NewRound()
	}

	return tictactoe.NewClassicSession()
}
