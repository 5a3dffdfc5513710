package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/arcade/internal/apperror"
)

const (
	GameTicTacToe = "01"
	GameJackEnPoy = "02"
)

type GameInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

var catalog = []GameInfo{
	{ID: GameTicTacToe, Label: "Tictactoe", Path: "/tictactoe"},
	{ID: GameJackEnPoy, Label: "JackEnPoy", Path: "/jackenpoy"},
}

// Catalog lists the playable games in menu order.
func Catalog() []GameInfo {
	return append([]GameInfo(nil), catalog...)
}

// LookupGame resolves a game by id, label or path, ignoring case and the leading slash.
func LookupGame(key string) (GameInfo, error) {
	key = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(key)), "/")

	for _, game := range catalog {
		if key == game.ID || key == strings.ToLower(game.Label) || key == strings.TrimPrefix(game.Path, "/") {
			return game, nil
		}
	}

	return GameInfo{}, fmt.Errorf("%w: %q", apperror.ErrUnknownGame, key)
}
