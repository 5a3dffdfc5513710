package entity

// TableState is what a player sees of a table: the running game and its ledger.
type TableState struct {
	ID   string `json:"id"`
	Game string `json:"game"`

	Snapshot
	LedgerSnapshot
}

func NewTableState(id, game string, snapshot Snapshot, ledger LedgerSnapshot) *TableState {
	return &TableState{
		ID:             id,
		Game:           game,
		Snapshot:       snapshot,
		LedgerSnapshot: ledger,
	}
}
