package entity

import "fmt"

// Mark is the symbol a player places on a cell. Player A plays X and always moves first.
type Mark int

const (
	MarkEmpty Mark = iota
	MarkX
	MarkO
)

func (that Mark) String() string {
	switch that {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return ""
	}
}

// Next returns the opponent's mark.
func (that Mark) Next() Mark {
	if that == MarkX {
		return MarkO
	}
	return MarkX
}

func (that Mark) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Mark) UnmarshalText(text []byte) error {
	switch string(text) {
	case "X":
		*that = MarkX
	case "O":
		*that = MarkO
	case "":
		*that = MarkEmpty
	default:
		return fmt.Errorf("unknown mark %q", text)
	}
	return nil
}
