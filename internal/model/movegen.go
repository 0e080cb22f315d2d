package model

var (
	rookDirs   = []Position{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}}
	bishopDirs = []Position{{X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1}}
	queenDirs  = append(append([]Position{}, bishopDirs...), rookDirs...)
	knightDirs = []Position{{X: 2, Y: 1}, {X: 2, Y: -1}, {X: -2, Y: 1}, {X: -2, Y: -1}, {X: 1, Y: 2}, {X: 1, Y: -2}, {X: -1, Y: 2}, {X: -1, Y: -2}}
	kingDirs   = []Position{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}, {X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1}}
)

// pawnForward is the row delta of a pawn's advance; white moves towards row 0.
func pawnForward(color Color) int {
	if color == White {
		return -1
	}
	return 1
}

func pawnStartRow(color Color) int {
	if color == White {
		return 6
	}
	return 1
}

// LegalMoves returns the pseudo-legal destinations of the piece standing on
// from. Moves that leave the mover's own king attacked are not filtered out.
func LegalMoves(board *Board, from Position) []Position {
	piece := board.Get(from)
	if piece == nil {
		return nil
	}
	switch piece.Type {
	case Pawn:
		return getPsuedoPawnMoves(board, piece, from)
	case Knight:
		return getStepMoves(board, piece, from, knightDirs)
	case Bishop:
		return getSlidingMoves(board, piece, from, bishopDirs)
	case Rook:
		return getSlidingMoves(board, piece, from, rookDirs)
	case Queen:
		return getSlidingMoves(board, piece, from, queenDirs)
	case King:
		return getStepMoves(board, piece, from, kingDirs)
	default:
		return nil
	}
}

// MovesForColor enumerates origins row by row, column by column, and each
// origin's destinations in generator order.
func MovesForColor(board *Board, color Color) []Move {
	moves := []Move{}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			piece := board.Squares[y][x]
			if piece == nil || piece.Color != color {
				continue
			}
			from := Position{X: x, Y: y}
			for _, to := range LegalMoves(board, from) {
				moves = append(moves, Move{From: from, To: to})
			}
		}
	}
	return moves
}

func CountMoves(board *Board, color Color) int {
	count := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if piece := board.Squares[y][x]; piece != nil && piece.Color == color {
				count += len(LegalMoves(board, Position{X: x, Y: y}))
			}
		}
	}
	return count
}

func IsLegalMove(board *Board, move Move) bool {
	if !boundaryCheck(move.From) || !boundaryCheck(move.To) {
		return false
	}
	for _, to := range LegalMoves(board, move.From) {
		if to == move.To {
			return true
		}
	}
	return false
}

func getPsuedoPawnMoves(board *Board, piece *Piece, from Position) []Position {
	pawnMoves := []Position{}
	dy := pawnForward(piece.Color)
	one := Position{X: from.X, Y: from.Y + dy}
	if !boundaryCheck(one) {
		return pawnMoves
	}
	// Check move forward 1
	if board.Get(one) == nil {
		pawnMoves = append(pawnMoves, one)
		// Check move forward 2 from the starting row
		two := Position{X: from.X, Y: from.Y + 2*dy}
		if from.Y == pawnStartRow(piece.Color) && board.Get(two) == nil {
			pawnMoves = append(pawnMoves, two)
		}
	}
	// Check captures left and right
	for _, dx := range []int{-1, 1} {
		target := Position{X: from.X + dx, Y: from.Y + dy}
		if !boundaryCheck(target) {
			continue
		}
		if occupant := board.Get(target); occupant != nil && occupant.Color != piece.Color {
			pawnMoves = append(pawnMoves, target)
		}
	}
	return pawnMoves
}

func getStepMoves(board *Board, piece *Piece, from Position, dirs []Position) []Position {
	moves := []Position{}
	for _, dir := range dirs {
		targetPos := Position{X: from.X + dir.X, Y: from.Y + dir.Y}
		if !boundaryCheck(targetPos) {
			continue
		}
		if occupant := board.Get(targetPos); occupant == nil || occupant.Color != piece.Color {
			moves = append(moves, targetPos)
		}
	}
	return moves
}

func getSlidingMoves(board *Board, piece *Piece, from Position, dirs []Position) []Position {
	moves := []Position{}
	for _, dir := range dirs {
		targetPos := Position{X: from.X + dir.X, Y: from.Y + dir.Y}
		for boundaryCheck(targetPos) {
			occupant := board.Get(targetPos)
			if occupant == nil {
				moves = append(moves, targetPos)
			} else if occupant.Color != piece.Color {
				moves = append(moves, targetPos)
				break
			} else {
				break
			}
			targetPos = Position{X: targetPos.X + dir.X, Y: targetPos.Y + dir.Y}
		}
	}
	return moves
}

// IsSquareAttacked reports whether any piece of attackingColor attacks
// position, walking outward from the target square. Pawns attack diagonally
// forward whether or not the square is occupied.
func IsSquareAttacked(board *Board, attackingColor Color, position Position) bool {
	attacker := func(pos Position, types ...PieceType) bool {
		p := board.Get(pos)
		if p == nil || p.Color != attackingColor {
			return false
		}
		for _, t := range types {
			if p.Type == t {
				return true
			}
		}
		return false
	}
	rays := func(dirs []Position, types ...PieceType) bool {
		for _, dir := range dirs {
			targetPos := Position{X: position.X + dir.X, Y: position.Y + dir.Y}
			for boundaryCheck(targetPos) {
				if board.Get(targetPos) != nil {
					if attacker(targetPos, types...) {
						return true
					}
					break
				}
				targetPos = Position{X: targetPos.X + dir.X, Y: targetPos.Y + dir.Y}
			}
		}
		return false
	}
	if rays(rookDirs, Rook, Queen) || rays(bishopDirs, Bishop, Queen) {
		return true
	}
	for _, dir := range knightDirs {
		targetPos := Position{X: position.X + dir.X, Y: position.Y + dir.Y}
		if boundaryCheck(targetPos) && attacker(targetPos, Knight) {
			return true
		}
	}
	for _, dir := range kingDirs {
		targetPos := Position{X: position.X + dir.X, Y: position.Y + dir.Y}
		if boundaryCheck(targetPos) && attacker(targetPos, King) {
			return true
		}
	}
	// An attacking pawn sits one row behind the target from its own point of view.
	behind := -pawnForward(attackingColor)
	for _, dx := range []int{-1, 1} {
		targetPos := Position{X: position.X + dx, Y: position.Y + behind}
		if boundaryCheck(targetPos) && attacker(targetPos, Pawn) {
			return true
		}
	}
	return false
}

// IsKingInCheck is false when color has no king on the board.
func IsKingInCheck(board *Board, color Color) bool {
	king, ok := board.KingPosition(color)
	if !ok {
		return false
	}
	return IsSquareAttacked(board, color.Other(), king)
}
