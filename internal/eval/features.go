package eval

import (
	"fmt"

	"github.com/benbeisheim/chessadvisor-backend/internal/model"
)

// Variant selects the feature layout. A model is trained against exactly one
// layout, so the variant travels with the model and the configuration.
type Variant string

const (
	// Classic: material, mobility, opponent mobility, king safety, center control.
	Classic Variant = "classic"
	// Extended: Classic followed by king distance.
	Extended Variant = "extended"
)

func (v Variant) Len() int {
	if v == Extended {
		return 6
	}
	return 5
}

func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case Classic, Extended:
		return Variant(s), nil
	}
	return "", fmt.Errorf("unknown feature variant %q", s)
}

// Rules selects how mobility is counted.
type Rules string

const (
	// PseudoRules counts destinations of the built-in move generator.
	PseudoRules Rules = "pseudo"
	// FullRules counts fully legal chess moves (castling, en passant and
	// check evasion included), as a general chess library would.
	FullRules Rules = "full"
)

func ParseRules(s string) (Rules, error) {
	switch Rules(s) {
	case PseudoRules, FullRules:
		return Rules(s), nil
	}
	return "", fmt.Errorf("unknown rule set %q", s)
}

// Material values. Lowercase (black) symbols count positive and uppercase
// (white) symbols negative; trained models are calibrated against this sign.
var pieceValues = map[model.PieceType]float64{
	model.Pawn:   1,
	model.Knight: 3,
	model.Bishop: 3.5,
	model.Rook:   5,
	model.Queen:  9.5,
	model.King:   20,
}

var centerSquares = []model.Position{
	{X: 3, Y: 4}, // d4
	{X: 4, Y: 4}, // e4
	{X: 3, Y: 3}, // d5
	{X: 4, Y: 3}, // e5
}

type Extractor struct {
	Variant Variant
	Rules   Rules
}

func NewExtractor(variant Variant, rules Rules) *Extractor {
	return &Extractor{Variant: variant, Rules: rules}
}

func (e *Extractor) Len() int {
	return e.Variant.Len()
}

// Extract turns a position identifier into the feature vector of the
// configured variant.
func (e *Extractor) Extract(fen string) ([]float64, error) {
	board, toMove, err := model.ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	mobility, opponentMobility := e.mobility(fen, board, toMove)

	features := make([]float64, 0, e.Len())
	features = append(features,
		Material(board),
		float64(mobility),
		float64(opponentMobility),
		boolToFloat(model.IsKingInCheck(board, toMove)),
		float64(CenterControl(board, toMove)),
	)
	if e.Variant == Extended {
		features = append(features, float64(KingDistance(board)))
	}
	return features, nil
}

func (e *Extractor) mobility(fen string, board *model.Board, toMove model.Color) (int, int) {
	if e.Rules == FullRules && board.BothKingsPresent() {
		return fullRulesMobility(fen, board, toMove)
	}
	return model.CountMoves(board, toMove), model.CountMoves(board, toMove.Other())
}

func Material(board *model.Board) float64 {
	var material float64
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			p := board.Squares[y][x]
			if p == nil {
				continue
			}
			if p.Color == model.Black {
				material += pieceValues[p.Type]
			} else {
				material -= pieceValues[p.Type]
			}
		}
	}
	return material
}

func CenterControl(board *model.Board, color model.Color) int {
	count := 0
	for _, sq := range centerSquares {
		if model.IsSquareAttacked(board, color, sq) {
			count++
		}
	}
	return count
}

// KingDistance is the Manhattan distance between the two kings, 0 when
// either is missing.
func KingDistance(board *model.Board) int {
	white, okWhite := board.KingPosition(model.White)
	black, okBlack := board.KingPosition(model.Black)
	if !okWhite || !okBlack {
		return 0
	}
	return abs(white.X-black.X) + abs(white.Y-black.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
