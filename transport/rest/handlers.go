package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/arcade/internal/entity"
)

var errCellRequired = errors.New("cell is required")

type Handlers interface {
	Ping(w http.ResponseWriter, _ *http.Request)
	ListGames(w http.ResponseWriter, _ *http.Request)

	CreateTable(w http.ResponseWriter, r *http.Request)
	GetTable(w http.ResponseWriter, r *http.Request)
	CloseTable(w http.ResponseWriter, r *http.Request)

	SubmitMove(w http.ResponseWriter, r *http.Request)
	ResetBoard(w http.ResponseWriter, r *http.Request)
	ResetScores(w http.ResponseWriter, r *http.Request)
}

type tableUseCase interface {
	CreateTable(ctx context.Context, gameKey string) (*entity.TableState, error)
	GetTable(ctx context.Context, id string) (*entity.TableState, error)
	CloseTable(ctx context.Context, id string) error

	SubmitMove(ctx context.Context, id string, move int) (*entity.TableState, error)
	RequestReset(ctx context.Context, id string) (*entity.TableState, error)
	RequestScoreReset(ctx context.Context, id string) (*entity.TableState, error)
}

type createTableRequest struct {
	Game string `json:"game"`
}

type moveRequest struct {
	Cell *int `json:"cell"`
}

type handlers struct {
	logger *slog.Logger
	tables tableUseCase
}

func NewHandlers(logger *slog.Logger, tables tableUseCase) Handlers {
	return &handlers{
		logger: logger.With("component", "rest"),
		tables: tables,
	}
}

func (that *handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) ListGames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(that.logger, w, http.StatusOK, entity.Catalog())
}

func (that *handlers) CreateTable(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "CreateTable")

	payload, err := decode[createTableRequest](r.Body)
	if err != nil {
		writeJSON(log, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	table, err := that.tables.CreateTable(r.Context(), payload.Game)
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(log, w, http.StatusCreated, table)
}

func (that *handlers) GetTable(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetTable")

	table, err := that.tables.GetTable(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(log, w, http.StatusOK, table)
}

func (that *handlers) CloseTable(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "CloseTable")

	if err := that.tables.CloseTable(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(log, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) SubmitMove(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "SubmitMove")

	payload, err := decode[moveRequest](r.Body)
	if err != nil {
		writeJSON(log, w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if payload.Cell == nil {
		writeJSON(log, w, http.StatusBadRequest, errorResponse{Error: errCellRequired.Error()})
		return
	}

	table, err := that.tables.SubmitMove(r.Context(), chi.URLParam(r, "id"), *payload.Cell)
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(log, w, http.StatusOK, table)
}

func (that *handlers) ResetBoard(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ResetBoard")

	table, err := that.tables.RequestReset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(log, w, http.StatusAccepted, table)
}

func (that *handlers) ResetScores(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ResetScores")

	table, err := that.tables.RequestScoreReset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(log, w, http.StatusAccepted, table)
}
