package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/arcade/internal/apperror"
	"github.com/rocketscienceinc/arcade/internal/entity"
	"github.com/rocketscienceinc/arcade/internal/repository"
	"github.com/rocketscienceinc/arcade/internal/settle"
)

const (
	testSettleDelay = 20 * time.Millisecond
	waitFor         = 2 * time.Second
	tick            = 5 * time.Millisecond
)

var errRedisDown = errors.New("redis down")

type mockNotifier struct {
	mock.Mock
}

func (that *mockNotifier) Publish(table *entity.TableState) {
	that.Called(table)
}

type failingRepo struct {
	repository.TableRepository
}

func (that *failingRepo) CreateOrUpdate(context.Context, *entity.TableState) error {
	return errRedisDown
}

func (that *failingRepo) GetByID(context.Context, string) (*entity.TableState, error) {
	return nil, errRedisDown
}

// manualScheduler runs tasks only when the test fires them. It keeps every task ever
// scheduled so a superseded one can still be fired late.
type manualScheduler struct {
	mu      sync.Mutex
	pending map[string]func()
	all     []func()
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{pending: make(map[string]func())}
}

func (that *manualScheduler) Schedule(key string, _ time.Duration, fn func()) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, superseded := that.pending[key]
	that.pending[key] = fn
	that.all = append(that.all, fn)

	return superseded
}

func (that *manualScheduler) Cancel(key string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, ok := that.pending[key]
	delete(that.pending, key)

	return ok
}

func (that *manualScheduler) fire(key string) {
	that.mu.Lock()
	fn, ok := that.pending[key]
	delete(that.pending, key)
	that.mu.Unlock()

	if ok {
		fn()
	}
}

func (that *manualScheduler) task(i int) func() {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.all[i]
}

func newTestManager(t *testing.T) (*TableManager, *mockNotifier) {
	t.Helper()

	notifier := &mockNotifier{}
	notifier.On("Publish", mock.Anything).Return().Maybe()

	scheduler := settle.NewScheduler()
	t.Cleanup(scheduler.Stop)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewTableManager(logger, repository.NewMemoryTableRepository(), notifier, scheduler, testSettleDelay), notifier
}

func playMoves(t *testing.T, manager *TableManager, id string, moves ...int) *entity.TableState {
	t.Helper()

	var state *entity.TableState
	for _, move := range moves {
		var err error
		state, err = manager.SubmitMove(context.Background(), id, move)
		require.NoError(t, err, "move %d", move)
	}

	return state
}

func waitSettled(t *testing.T, manager *TableManager, id string) *entity.TableState {
	t.Helper()

	var state *entity.TableState
	require.Eventually(t, func() bool {
		var err error
		state, err = manager.GetTable(context.Background(), id)
		return err == nil && !state.Resetting
	}, waitFor, tick)

	return state
}

func TestTableManager_CreateTable(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a fresh tic-tac-toe table", func(t *testing.T) {
		// Given: a manager
		manager, _ := newTestManager(t)

		// When: a table is created
		state, err := manager.CreateTable(ctx, "tictactoe")

		// Then: it is empty, stored and X is on turn
		require.NoError(t, err)
		assert.NotEmpty(t, state.ID)
		assert.Equal(t, entity.GameTicTacToe, state.Game)
		assert.Len(t, state.Board, 9)
		assert.Equal(t, entity.MarkX, state.Turn)
		assert.Equal(t, entity.Scores{}, state.Scores)

		stored, err := manager.GetTable(ctx, state.ID)
		require.NoError(t, err)
		assert.Equal(t, state, stored)
	})

	t.Run("Creates a Jack-En-Poy table", func(t *testing.T) {
		manager, _ := newTestManager(t)

		state, err := manager.CreateTable(ctx, "02")

		require.NoError(t, err)
		assert.Equal(t, entity.GameJackEnPoy, state.Game)
		assert.Len(t, state.Board, 2)
	})

	t.Run("Unknown game", func(t *testing.T) {
		manager, _ := newTestManager(t)

		state, err := manager.CreateTable(ctx, "chess")

		require.ErrorIs(t, err, apperror.ErrUnknownGame)
		assert.Nil(t, state)
	})

	t.Run("Storage failure", func(t *testing.T) {
		// Given: a repository that cannot write
		notifier := &mockNotifier{}
		scheduler := settle.NewScheduler()
		defer scheduler.Stop()
		manager := NewTableManager(slog.New(slog.NewTextHandler(io.Discard, nil)), &failingRepo{}, notifier, scheduler, testSettleDelay)

		// When: a table is created
		state, err := manager.CreateTable(ctx, "tictactoe")

		// Then: the error is returned and nothing is hosted
		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, state)
		notifier.AssertNotCalled(t, "Publish", mock.Anything)
	})
}

func TestTableManager_SubmitMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Win is recorded in the ledger", func(t *testing.T) {
		// Given: a new table
		manager, notifier := newTestManager(t)
		created, err := manager.CreateTable(ctx, "tictactoe")
		require.NoError(t, err)

		// When: X fills the top row
		state := playMoves(t, manager, created.ID, 0, 4, 1, 3, 2)

		// Then: X wins and the ledger has one entry
		assert.Equal(t, entity.Win(entity.MarkX, []int{0, 1, 2}), state.Outcome)
		assert.Equal(t, entity.StatusFinished, state.Status)
		assert.Equal(t, entity.Scores{X: 1}, state.Scores)
		require.Len(t, state.History, 1)
		assert.Equal(t, "X", state.History[0].Label)
		assert.Equal(t, []string{"X", "X", "X", "O", "O", "", "", "", ""}, state.History[0].Board)

		// And: every accepted move was published
		notifier.AssertNumberOfCalls(t, "Publish", 5)
	})

	t.Run("Rejected move changes nothing", func(t *testing.T) {
		// Given: X has played the center
		manager, notifier := newTestManager(t)
		created, err := manager.CreateTable(ctx, "tictactoe")
		require.NoError(t, err)
		before := playMoves(t, manager, created.ID, 4)

		// When: O plays the same cell
		state, err := manager.SubmitMove(ctx, created.ID, 4)

		// Then: the move is rejected with the unchanged table
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.True(t, apperror.IsRejected(err))
		assert.Equal(t, before, state)
		assert.Equal(t, entity.MarkO, state.Turn)
		notifier.AssertNumberOfCalls(t, "Publish", 1)
	})

	t.Run("Invalid cell", func(t *testing.T) {
		manager, _ := newTestManager(t)
		created, err := manager.CreateTable(ctx, "tictactoe")
		require.NoError(t, err)

		_, err = manager.SubmitMove(ctx, created.ID, 9)

		assert.ErrorIs(t, err, apperror.ErrInvalidCell)
	})

	t.Run("Unknown table", func(t *testing.T) {
		manager, _ := newTestManager(t)

		state, err := manager.SubmitMove(ctx, "missing", 0)

		require.ErrorIs(t, err, apperror.ErrTableNotFound)
		assert.Nil(t, state)
	})

	t.Run("Storage failure does not undo the move", func(t *testing.T) {
		// Given: a table whose repository breaks after creation
		notifier := &mockNotifier{}
		notifier.On("Publish", mock.Anything).Return()
		scheduler := settle.NewScheduler()
		defer scheduler.Stop()

		repo := repository.NewMemoryTableRepository()
		manager := NewTableManager(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, notifier, scheduler, testSettleDelay)
		created, err := manager.CreateTable(ctx, "tictactoe")
		require.NoError(t, err)
		manager.tableRepo = &failingRepo{}

		// When: a move is made
		state, err := manager.SubmitMove(ctx, created.ID, 0)

		// Then: the move is applied and still published
		require.NoError(t, err)
		assert.Equal(t, "X", state.Board[0])
		notifier.AssertCalled(t, "Publish", state)
	})

	t.Run("Jack-En-Poy round feeds the same ledger", func(t *testing.T) {
		manager, _ := newTestManager(t)
		created, err := manager.CreateTable(ctx, "jackenpoy")
		require.NoError(t, err)

		// When: X throws rock and O throws scissors
		state := playMoves(t, manager, created.ID, 0, 2)

		// Then: X wins the round
		assert.Equal(t, entity.Scores{X: 1}, state.Scores)
		require.Len(t, state.History, 1)
		assert.Equal(t, []string{"rock", "scissors"}, state.History[0].Board)
	})
}

func TestTableManager_Ledger(t *testing.T) {
	ctx := context.Background()

	// Given: a table
	manager, _ := newTestManager(t)
	created, err := manager.CreateTable(ctx, "tictactoe")
	require.NoError(t, err)

	games := [][]int{
		{0, 4, 1, 3, 2},             // X wins
		{0, 1, 2, 4, 3, 5, 7, 6, 8}, // draw
		{0, 4, 8, 2, 1, 6},          // O wins on 2-4-6
		{4, 0, 3, 1, 5},             // X wins on 3-4-5
	}

	// When: four games are played with a reset between them
	for _, moves := range games {
		playMoves(t, manager, created.ID, moves...)

		_, err = manager.RequestReset(ctx, created.ID)
		require.NoError(t, err)
		waitSettled(t, manager, created.ID)
	}

	// Then: the counters and history match the games in order
	state, err := manager.GetTable(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.Scores{X: 2, O: 1, Draws: 1}, state.Scores)
	require.Len(t, state.History, 4)
	labels := make([]string, 0, len(state.History))
	for _, entry := range state.History {
		labels = append(labels, entry.Label)
	}
	assert.Equal(t, []string{"X", entity.DrawLabel, "O", "X"}, labels)
}

func TestTableManager_RequestReset(t *testing.T) {
	ctx := context.Background()

	t.Run("Reset freezes the board then clears it", func(t *testing.T) {
		// Given: a finished game
		manager, _ := newTestManager(t)
		created, err := manager.CreateTable(ctx, "tictactoe")
		require.NoError(t, err)
		playMoves(t, manager, created.ID, 0, 4, 1, 3, 2)

		// When: a reset is requested
		state, err := manager.RequestReset(ctx, created.ID)
		require.NoError(t, err)

		// Then: the table is resetting and refuses moves
		assert.True(t, state.Resetting)
		_, err = manager.SubmitMove(ctx, created.ID, 5)
		require.ErrorIs(t, err, apperror.ErrResetting)

		// And: after the settle delay the board is clear but the ledger is kept
		settled := waitSettled(t, manager, created.ID)
		assert.Equal(t, make([]string, 9), settled.Board)
		assert.Equal(t, entity.MarkX, settled.Turn)
		assert.Equal(t, entity.InProgress(), settled.Outcome)
		assert.Equal(t, entity.Scores{X: 1}, settled.Scores)
	})

	t.Run("Second reset supersedes the first", func(t *testing.T) {
		// Given: a manager whose settle tasks run on demand and a game in progress
		notifier := &mockNotifier{}
		notifier.On("Publish", mock.Anything).Return()
		scheduler := newManualScheduler()
		manager := NewTableManager(slog.New(slog.NewTextHandler(io.Discard, nil)), repository.NewMemoryTableRepository(), notifier, scheduler, time.Second)

		created, err := manager.CreateTable(ctx, "tictactoe")
		require.NoError(t, err)
		playMoves(t, manager, created.ID, 4)

		// When: two resets are requested back to back
		_, err = manager.RequestReset(ctx, created.ID)
		require.NoError(t, err)
		_, err = manager.RequestReset(ctx, created.ID)
		require.NoError(t, err)

		// Then: the first task fired late leaves the table frozen
		scheduler.task(0)()
		state, err := manager.GetTable(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, state.Resetting)
		assert.Equal(t, "X", state.Board[4])

		// And: the second task settles it
		scheduler.fire(created.ID)
		state, err = manager.GetTable(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, state.Resetting)
		assert.Equal(t, make([]string, 9), state.Board)

		// And: the stale task cannot clear a move made after settling
		playMoves(t, manager, created.ID, 0)
		scheduler.task(0)()
		scheduler.task(1)()

		state, err = manager.GetTable(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "X", state.Board[0])
	})

	t.Run("Score reset clears the ledger and the board", func(t *testing.T) {
		// Given: a table with a finished game
		manager, _ := newTestManager(t)
		created, err := manager.CreateTable(ctx, "tictactoe")
		require.NoError(t, err)
		playMoves(t, manager, created.ID, 0, 4, 1, 3, 2)

		// When: scores are reset
		state, err := manager.RequestScoreReset(ctx, created.ID)
		require.NoError(t, err)

		// Then: the ledger is empty right away and the board follows after settling
		assert.Equal(t, entity.Scores{}, state.Scores)
		assert.Empty(t, state.History)
		assert.True(t, state.Resetting)

		settled := waitSettled(t, manager, created.ID)
		assert.Equal(t, make([]string, 9), settled.Board)
		assert.Empty(t, settled.History)
	})

	t.Run("Unknown table", func(t *testing.T) {
		manager, _ := newTestManager(t)

		_, err := manager.RequestReset(ctx, "missing")
		require.ErrorIs(t, err, apperror.ErrTableNotFound)

		_, err = manager.RequestScoreReset(ctx, "missing")
		require.ErrorIs(t, err, apperror.ErrTableNotFound)
	})
}

func TestTableManager_GetTable(t *testing.T) {
	ctx := context.Background()

	t.Run("Lost snapshot does not hide a live table", func(t *testing.T) {
		// Given: a table whose stored snapshot expired
		manager, _ := newTestManager(t)
		created, err := manager.CreateTable(ctx, "tictactoe")
		require.NoError(t, err)
		require.NoError(t, manager.tableRepo.DeleteByID(ctx, created.ID))

		// When: the table is read
		state, err := manager.GetTable(ctx, created.ID)

		// Then: it is answered from the live table and stored again
		require.NoError(t, err)
		assert.Equal(t, created.ID, state.ID)

		stored, err := manager.tableRepo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, state, stored)

		// And: reads and moves agree
		moved, err := manager.SubmitMove(ctx, created.ID, 4)
		require.NoError(t, err)

		state, err = manager.GetTable(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, moved, state)
	})

	t.Run("Unknown table", func(t *testing.T) {
		manager, _ := newTestManager(t)

		_, err := manager.GetTable(ctx, "missing")

		require.ErrorIs(t, err, apperror.ErrTableNotFound)
	})
}

func TestTableManager_CloseTable(t *testing.T) {
	ctx := context.Background()

	// Given: a table with a pending reset
	manager, _ := newTestManager(t)
	created, err := manager.CreateTable(ctx, "tictactoe")
	require.NoError(t, err)
	_, err = manager.RequestReset(ctx, created.ID)
	require.NoError(t, err)

	// When: the table is closed
	err = manager.CloseTable(ctx, created.ID)

	// Then: it is gone for good, even after the settle delay
	require.NoError(t, err)
	time.Sleep(3 * testSettleDelay)

	_, err = manager.GetTable(ctx, created.ID)
	require.ErrorIs(t, err, apperror.ErrTableNotFound)

	_, err = manager.SubmitMove(ctx, created.ID, 0)
	require.ErrorIs(t, err, apperror.ErrTableNotFound)

	err = manager.CloseTable(ctx, created.ID)
	require.ErrorIs(t, err, apperror.ErrTableNotFound)
}

func TestTableManager_ConcurrentMoves(t *testing.T) {
	ctx := context.Background()

	// Given: a table
	manager, _ := newTestManager(t)
	created, err := manager.CreateTable(ctx, "tictactoe")
	require.NoError(t, err)

	// When: many players hammer every cell at once
	var wg sync.WaitGroup
	for range 8 {
		for cell := range 9 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = manager.SubmitMove(ctx, created.ID, cell)
			}()
		}
	}
	wg.Wait()

	// Then: the game finished exactly once and the ledger saw it exactly once
	state, err := manager.GetTable(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFinished, state.Status)
	require.Len(t, state.History, 1)
	assert.Equal(t, 1, state.Scores.X+state.Scores.O+state.Scores.Draws)
	assert.Equal(t, state.Board, state.History[0].Board)
}
