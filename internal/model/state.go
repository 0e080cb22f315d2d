package model

import (
	"errors"
	"fmt"
)

var (
	ErrGameOver    = errors.New("game is over")
	ErrOutOfBounds = errors.New("invalid move, out of bounds")
	ErrNoPiece     = errors.New("no piece at from square")
	ErrNotYourTurn = errors.New("not your turn")
	ErrIllegalMove = errors.New("invalid move, not legal")
)

// GameState bundles everything a move depends on. It is passed explicitly;
// nothing about a game lives in package state.
type GameState struct {
	Board  *Board `json:"boardState"`
	ToMove Color  `json:"toMove"`
	Over   bool   `json:"over"`
}

func NewGameState() GameState {
	return GameState{
		Board:  NewBoard(),
		ToMove: White,
	}
}

func (s GameState) Clone() GameState {
	return GameState{
		Board:  s.Board.Clone(),
		ToMove: s.ToMove,
		Over:   s.Over,
	}
}

func (s GameState) FEN() string {
	return EncodeFEN(s.Board, s.ToMove)
}

// Winner is the side whose king survived, or "" while the game runs.
func (s GameState) Winner() Color {
	if !s.Over {
		return ""
	}
	if _, ok := s.Board.KingPosition(White); ok {
		return White
	}
	if _, ok := s.Board.KingPosition(Black); ok {
		return Black
	}
	return ""
}

// Apply validates move against the generator and plays it. The returned
// record carries the position after the move, encoded with the mover still on
// turn, and the mover's label.
func (s *GameState) Apply(move Move) (Ply, PositionRecord, error) {
	if s.Over {
		return Ply{}, PositionRecord{}, ErrGameOver
	}
	if !boundaryCheck(move.From) || !boundaryCheck(move.To) {
		return Ply{}, PositionRecord{}, ErrOutOfBounds
	}
	piece := s.Board.Get(move.From)
	if piece == nil {
		return Ply{}, PositionRecord{}, ErrNoPiece
	}
	if piece.Color != s.ToMove {
		return Ply{}, PositionRecord{}, fmt.Errorf("%w: %s to move", ErrNotYourTurn, s.ToMove)
	}
	if !IsLegalMove(s.Board, move) {
		return Ply{}, PositionRecord{}, fmt.Errorf("%w: %s", ErrIllegalMove, move)
	}

	ply := Ply{
		Piece: *piece,
		From:  move.From,
		To:    move.To,
	}
	captured := s.Board.Move(move.From, move.To)
	if captured != nil {
		c := *captured
		ply.CapturedPiece = &c
	}
	piece.HasMoved = true
	if piece.Type == Pawn && (move.To.Y == 0 || move.To.Y == 7) {
		s.Board.Place(move.To, &Piece{Type: Queen, Color: piece.Color, HasMoved: true})
		ply.Promotion = Queen
	}
	ply.Notation = notation(ply)

	mover := s.ToMove
	record := PositionRecord{
		FEN:   EncodeFEN(s.Board, mover),
		Label: float64(mover.Sign()),
	}
	s.ToMove = mover.Other()
	s.Over = !s.Board.BothKingsPresent()
	return ply, record, nil
}

func notation(ply Ply) string {
	prefix := ""
	if ply.Piece.Type != Pawn {
		prefix = string(ply.Piece.Type.fenSymbol())
	} else if ply.From.X != ply.To.X {
		prefix = ply.From.String()[:1]
	}
	capture := ""
	if ply.CapturedPiece != nil {
		capture = "x"
	}
	suffix := ""
	if ply.Promotion != "" {
		suffix = "=" + string(ply.Promotion.fenSymbol())
	}
	return prefix + capture + ply.To.String() + suffix
}
