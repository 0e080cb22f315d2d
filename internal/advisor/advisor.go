package advisor

import (
	"math"

	"github.com/benbeisheim/chessadvisor-backend/internal/eval"
	"github.com/benbeisheim/chessadvisor-backend/internal/model"
)

// Advisor runs a full-width depth-1 search: every move of the side to move is
// played on the board, the resulting position is scored, and the move is
// taken back before the next candidate.
type Advisor struct {
	extractor *eval.Extractor
	evaluator eval.Evaluator
}

func New(extractor *eval.Extractor, evaluator eval.Evaluator) *Advisor {
	return &Advisor{
		extractor: extractor,
		evaluator: evaluator,
	}
}

// Suggest returns the highest scoring move for state.ToMove, or nil when that
// side has no moves. On equal scores the first enumerated move wins and NaN
// ranks below every number. The board is left exactly as it was found.
func (a *Advisor) Suggest(state model.GameState) (*model.Suggestion, error) {
	var best *model.Suggestion
	var bestScore float64

	for _, move := range model.MovesForColor(state.Board, state.ToMove) {
		score, err := a.scoreMove(state, move)
		if err != nil {
			return nil, err
		}
		if best == nil || score > bestScore || (math.IsNaN(bestScore) && !math.IsNaN(score)) {
			bestScore = score
			best = &model.Suggestion{Move: move, Score: score}
		}
	}
	return best, nil
}

func (a *Advisor) scoreMove(state model.GameState, move model.Move) (float64, error) {
	undo := state.Board.Apply(move.From, move.To)
	defer undo()

	features, err := a.extractor.Extract(model.EncodeFEN(state.Board, state.ToMove))
	if err != nil {
		return 0, err
	}
	return a.evaluator.Score(features), nil
}
