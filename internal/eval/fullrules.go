package eval

import (
	"strings"

	"github.com/benbeisheim/chessadvisor-backend/internal/model"
	"github.com/dylhunn/dragontoothmg"
)

// legalMoveCounts counts legal moves for the side to move in fen and for its
// opponent. Swapped in tests.
var legalMoveCounts = dragontoothCounts

// fullRulesMobility counts legal moves for both sides under complete chess
// rules, falling back to the built-in generator if the rules engine panics.
func fullRulesMobility(fen string, board *model.Board, toMove model.Color) (mobility, opponent int) {
	defer func() {
		if r := recover(); r != nil {
			mobility = model.CountMoves(board, toMove)
			opponent = model.CountMoves(board, toMove.Other())
		}
	}()
	return legalMoveCounts(normalizeFEN(fen, board))
}

// The side not on turn is counted by flipping the turn flag only.
func dragontoothCounts(fen string) (int, int) {
	b := dragontoothmg.ParseFen(fen)
	mobility := len(b.GenerateLegalMoves())
	b.Wtomove = !b.Wtomove
	return mobility, len(b.GenerateLegalMoves())
}

// normalizeFEN replaces the placeholder castling field with the rights the
// placement can actually support, so no castle is generated without its rook.
func normalizeFEN(fen string, board *model.Board) string {
	fields := strings.Fields(fen)
	for len(fields) < 6 {
		fields = append(fields, "-")
	}
	fields[2] = castlingRights(board)
	fields[3] = "-"
	if fields[4] == "-" {
		fields[4] = "0"
	}
	if fields[5] == "-" {
		fields[5] = "1"
	}
	return strings.Join(fields, " ")
}

func castlingRights(board *model.Board) string {
	has := func(x, y int, pt model.PieceType, c model.Color) bool {
		p := board.Squares[y][x]
		return p != nil && p.Type == pt && p.Color == c
	}
	var sb strings.Builder
	if has(4, 7, model.King, model.White) {
		if has(7, 7, model.Rook, model.White) {
			sb.WriteByte('K')
		}
		if has(0, 7, model.Rook, model.White) {
			sb.WriteByte('Q')
		}
	}
	if has(4, 0, model.King, model.Black) {
		if has(7, 0, model.Rook, model.Black) {
			sb.WriteByte('k')
		}
		if has(0, 0, model.Rook, model.Black) {
			sb.WriteByte('q')
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}
