package model

import (
	"sort"
	"testing"
)

// sq converts algebraic notation ("e2") to a grid position.
func sq(s string) Position {
	return Position{X: int(s[0] - 'a'), Y: 8 - int(s[1]-'0')}
}

func mustParse(t *testing.T, fen string) (*Board, Color) {
	t.Helper()
	board, toMove, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return board, toMove
}

func squares(positions []Position) []string {
	result := make([]string, 0, len(positions))
	for _, p := range positions {
		result = append(result, p.String())
	}
	sort.Strings(result)
	return result
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLegalMoves(t *testing.T) {
	var tests = []struct {
		name string
		fen  string
		from string
		want []string
	}{
		{
			name: "pawn on start row",
			fen:  StartingFEN,
			from: "e2",
			want: []string{"e3", "e4"},
		},
		{
			name: "knight from g1",
			fen:  StartingFEN,
			from: "g1",
			want: []string{"f3", "h3"},
		},
		{
			name: "black pawn on start row",
			fen:  StartingFEN,
			from: "d7",
			want: []string{"d5", "d6"},
		},
		{
			name: "blocked double step",
			fen:  "4k3/8/8/8/4n3/8/4P3/4K3 w - - 0 1",
			from: "e2",
			want: []string{"e3"},
		},
		{
			name: "blocked single step",
			fen:  "4k3/8/8/8/8/4n3/4P3/4K3 w - - 0 1",
			from: "e2",
			want: []string{},
		},
		{
			name: "pawn captures diagonally",
			fen:  "4k3/8/8/3p1p2/4P3/8/8/4K3 w - - 0 1",
			from: "e4",
			want: []string{"d5", "e5", "f5"},
		},
		{
			name: "rook stops at friend and captures enemy",
			fen:  "4k3/8/8/8/p7/8/8/R3K3 w - - 0 1",
			from: "a1",
			want: []string{"a2", "a3", "a4", "b1", "c1", "d1"},
		},
		{
			name: "bishop boxed in",
			fen:  StartingFEN,
			from: "c1",
			want: []string{},
		},
		{
			name: "king in the corner",
			fen:  "4k3/8/8/8/8/8/8/7K w - - 0 1",
			from: "h1",
			want: []string{"g1", "g2", "h2"},
		},
		{
			name: "empty square",
			fen:  StartingFEN,
			from: "e4",
			want: []string{},
		},
	}
	for _, test := range tests {
		board, _ := mustParse(t, test.fen)
		got := squares(LegalMoves(board, sq(test.from)))
		want := append([]string{}, test.want...)
		sort.Strings(want)
		if !equalStrings(got, want) {
			t.Errorf("%s: LegalMoves(%s) = %v, want %v", test.name, test.from, got, want)
		}
	}
}

func TestMovesNeverTargetFriendlySquares(t *testing.T) {
	var fens = []string{
		StartingFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R b KQ - 1 8",
	}
	for _, fen := range fens {
		board, _ := mustParse(t, fen)
		for _, color := range []Color{White, Black} {
			for _, move := range MovesForColor(board, color) {
				if !boundaryCheck(move.To) {
					t.Errorf("%s: %s leaves the board", fen, move)
				}
				if p := board.Get(move.To); p != nil && p.Color == color {
					t.Errorf("%s: %s lands on a friendly piece", fen, move)
				}
			}
		}
	}
}

func TestStartingPositionMoveCount(t *testing.T) {
	board := NewBoard()
	if n := CountMoves(board, White); n != 20 {
		t.Errorf("white moves = %d, want 20", n)
	}
	if n := CountMoves(board, Black); n != 20 {
		t.Errorf("black moves = %d, want 20", n)
	}
	moves := MovesForColor(board, White)
	if len(moves) == 0 || moves[0] != (Move{From: sq("a2"), To: sq("a3")}) {
		t.Errorf("first enumerated move = %v, want a2a3", moves[0])
	}
}

func TestIsSquareAttacked(t *testing.T) {
	var tests = []struct {
		fen      string
		attacker Color
		square   string
		want     bool
	}{
		{"4k3/8/8/8/4P3/8/8/4K3 w - - 0 1", White, "d5", true},
		{"4k3/8/8/8/4P3/8/8/4K3 w - - 0 1", White, "f5", true},
		{"4k3/8/8/8/4P3/8/8/4K3 w - - 0 1", White, "d3", false},
		{"4k3/8/8/4p3/8/8/8/4K3 w - - 0 1", Black, "d4", true},
		{"4k3/8/8/4p3/8/8/8/4K3 w - - 0 1", Black, "d6", false},
		{"4k3/8/8/8/8/8/8/R3K3 w - - 0 1", White, "a8", true},
		{"4k3/8/8/8/p7/8/8/R3K3 w - - 0 1", White, "a8", false},
		{"4k3/8/8/8/8/8/8/4KN2 w - - 0 1", White, "g3", true},
		{"4k3/8/8/8/8/8/8/B3K3 w - - 0 1", White, "h8", true},
	}
	for _, test := range tests {
		board, _ := mustParse(t, test.fen)
		if got := IsSquareAttacked(board, test.attacker, sq(test.square)); got != test.want {
			t.Errorf("%s: IsSquareAttacked(%s, %s) = %v, want %v",
				test.fen, test.attacker, test.square, got, test.want)
		}
	}
}

func TestIsKingInCheck(t *testing.T) {
	board, _ := mustParse(t, "4k3/8/8/8/8/8/8/4R1K1 b - - 0 1")
	if !IsKingInCheck(board, Black) {
		t.Error("black king on e8 should be in check from e1 rook")
	}
	if IsKingInCheck(board, White) {
		t.Error("white king should not be in check")
	}
	noKing, _ := mustParse(t, "8/8/8/8/8/8/8/4R1K1 b - - 0 1")
	if IsKingInCheck(noKing, Black) {
		t.Error("missing king can not be in check")
	}
}

func TestBoardApplyUndo(t *testing.T) {
	board, _ := mustParse(t, "4k3/8/8/3p4/4P3/8/8/4K3 w - - 0 1")
	before := EncodeFEN(board, White)
	pawn := board.Get(sq("e4"))
	victim := board.Get(sq("d5"))

	undo := board.Apply(sq("e4"), sq("d5"))
	if board.Get(sq("d5")) != pawn || board.Get(sq("e4")) != nil {
		t.Fatal("Apply did not move the pawn")
	}
	undo()
	if got := EncodeFEN(board, White); got != before {
		t.Errorf("after undo = %q, want %q", got, before)
	}
	if board.Get(sq("e4")) != pawn || board.Get(sq("d5")) != victim {
		t.Error("undo did not restore the original pieces")
	}
}

func TestBoardClone(t *testing.T) {
	board := NewBoard()
	clone := board.Clone()
	clone.Move(sq("e2"), sq("e4"))
	clone.Get(sq("e4")).HasMoved = true
	if board.Get(sq("e2")) == nil || board.Get(sq("e4")) != nil {
		t.Error("moving on the clone changed the original")
	}
	if board.Get(sq("e2")).HasMoved {
		t.Error("clone shares pieces with the original")
	}
}
