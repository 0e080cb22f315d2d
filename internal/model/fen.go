package model

import (
	"errors"
	"fmt"
	"strings"
)

// FENPlaceholders stands in for the castling, en passant and clock fields,
// none of which the board tracks.
const FENPlaceholders = "KQkq - 0 1"

const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w " + FENPlaceholders

var ErrInvalidFEN = errors.New("invalid position identifier")

var symbolTypes = map[byte]PieceType{
	'P': Pawn, 'N': Knight, 'B': Bishop, 'R': Rook, 'Q': Queen, 'K': King,
}

// EncodeFEN emits the placement rows from row 0 down to row 7, then the side
// to move and the fixed placeholder fields.
func EncodeFEN(board *Board, toMove Color) string {
	var sb strings.Builder
	for y := 0; y < 8; y++ {
		if y > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(encodeRow(board.Squares[y]))
	}
	sb.WriteByte(' ')
	if toMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	sb.WriteString(FENPlaceholders)
	return sb.String()
}

func encodeRow(row [8]*Piece) string {
	var sb strings.Builder
	empty := 0
	for _, piece := range row {
		if piece == nil {
			empty++
			continue
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
			empty = 0
		}
		sym := piece.Type.fenSymbol()
		if piece.Color == Black {
			sym += 'a' - 'A'
		}
		sb.WriteByte(sym)
	}
	if empty > 0 {
		sb.WriteByte(byte('0' + empty))
	}
	return sb.String()
}

// ParseFEN reads the placement and side-to-move fields of an identifier.
// Remaining fields are optional and ignored.
func ParseFEN(fen string) (*Board, Color, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return nil, "", fmt.Errorf("%w: %q: expected placement and side to move", ErrInvalidFEN, fen)
	}
	rows := strings.Split(fields[0], "/")
	if len(rows) != 8 {
		return nil, "", fmt.Errorf("%w: %q: expected 8 rows, got %d", ErrInvalidFEN, fen, len(rows))
	}
	board := NewEmptyBoard()
	for y, row := range rows {
		x := 0
		for i := 0; i < len(row); i++ {
			c := row[i]
			if c >= '1' && c <= '8' {
				x += int(c - '0')
				continue
			}
			color := White
			upper := c
			if c >= 'a' && c <= 'z' {
				color = Black
				upper = c - ('a' - 'A')
			}
			pt, ok := symbolTypes[upper]
			if !ok {
				return nil, "", fmt.Errorf("%w: %q: unknown piece symbol %q", ErrInvalidFEN, fen, c)
			}
			if x >= 8 {
				return nil, "", fmt.Errorf("%w: %q: row %d overflows", ErrInvalidFEN, fen, y)
			}
			board.Squares[y][x] = &Piece{Type: pt, Color: color}
			x++
		}
		if x != 8 {
			return nil, "", fmt.Errorf("%w: %q: row %d has %d squares", ErrInvalidFEN, fen, y, x)
		}
	}
	var toMove Color
	switch fields[1] {
	case "w":
		toMove = White
	case "b":
		toMove = Black
	default:
		return nil, "", fmt.Errorf("%w: %q: bad side to move %q", ErrInvalidFEN, fen, fields[1])
	}
	return board, toMove, nil
}
