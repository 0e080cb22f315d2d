package model

import "fmt"

type PieceType string

func (p PieceType) fenSymbol() byte {
	switch p {
	case King:
		return 'K'
	case Queen:
		return 'Q'
	case Rook:
		return 'R'
	case Bishop:
		return 'B'
	case Knight:
		return 'N'
	case Pawn:
		return 'P'
	}
	return '?'
}

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// Sign is the history label of a mover: +1 for white, -1 for black.
func (c Color) Sign() int {
	if c == White {
		return 1
	}
	return -1
}

func (c Color) Valid() bool {
	return c == White || c == Black
}

type Piece struct {
	Type     PieceType `json:"type"`
	Color    Color     `json:"color"`
	HasMoved bool      `json:"hasMoved"`
}

// Position is a square of the grid. X is the column (file a..h as 0..7) and
// Y is the row, with row 0 holding black's back rank.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("%c%d", p.X+97, 8-p.Y)
}

func boundaryCheck(position Position) bool {
	return position.X >= 0 && position.X < 8 && position.Y >= 0 && position.Y < 8
}

// Board owns every piece placed on it. Cells are indexed [Y][X].
type Board struct {
	Squares [8][8]*Piece `json:"board"`
}

func NewEmptyBoard() *Board {
	return &Board{}
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func NewBoard() *Board {
	board := &Board{}
	for x, pt := range backRank {
		board.Squares[0][x] = &Piece{Type: pt, Color: Black}
		board.Squares[7][x] = &Piece{Type: pt, Color: White}
		board.Squares[1][x] = &Piece{Type: Pawn, Color: Black}
		board.Squares[6][x] = &Piece{Type: Pawn, Color: White}
	}
	return board
}

func (b *Board) Get(pos Position) *Piece {
	return b.Squares[pos.Y][pos.X]
}

func (b *Board) Place(pos Position, piece *Piece) {
	b.Squares[pos.Y][pos.X] = piece
}

// Move relocates the piece at from to to and returns whatever occupied to.
// Callers are expected to pass squares produced by the move generator.
func (b *Board) Move(from, to Position) *Piece {
	captured := b.Squares[to.Y][to.X]
	b.Squares[to.Y][to.X] = b.Squares[from.Y][from.X]
	b.Squares[from.Y][from.X] = nil
	return captured
}

// Apply performs Move and returns a closure restoring both squares.
func (b *Board) Apply(from, to Position) func() {
	fromState := b.Squares[from.Y][from.X]
	toState := b.Move(from, to)
	return func() {
		b.Squares[from.Y][from.X] = fromState
		b.Squares[to.Y][to.X] = toState
	}
}

// Clone copies the grid and every piece, so mutations of the copy never leak
// back into the receiver.
func (b *Board) Clone() *Board {
	clone := &Board{}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if p := b.Squares[y][x]; p != nil {
				cp := *p
				clone.Squares[y][x] = &cp
			}
		}
	}
	return clone
}

func (b *Board) PieceCount() int {
	count := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if b.Squares[y][x] != nil {
				count++
			}
		}
	}
	return count
}

// KingPosition scans for the king of color; ok is false once it was captured.
func (b *Board) KingPosition(color Color) (Position, bool) {
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if p := b.Squares[y][x]; p != nil && p.Type == King && p.Color == color {
				return Position{X: x, Y: y}, true
			}
		}
	}
	return Position{}, false
}

func (b *Board) BothKingsPresent() bool {
	_, white := b.KingPosition(White)
	_, black := b.KingPosition(Black)
	return white && black
}
