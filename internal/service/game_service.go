package service

import (
	"context"
	"sync"

	"github.com/benbeisheim/chessadvisor-backend/internal/advisor"
	"github.com/benbeisheim/chessadvisor-backend/internal/eval"
	"github.com/benbeisheim/chessadvisor-backend/internal/model"
	"github.com/benbeisheim/chessadvisor-backend/internal/train"
	"github.com/benbeisheim/chessadvisor-backend/internal/ws"
	"github.com/rs/zerolog"
)

// RecordStore persists a finished game's position history.
type RecordStore interface {
	Append(ctx context.Context, records []model.PositionRecord) error
}

// Retrainer fits a fresh evaluator from whatever history has been stored.
type Retrainer func(ctx context.Context) (eval.Evaluator, error)

type GameService struct {
	gameManager *GameManager
	store       RecordStore
	extractor   *eval.Extractor
	retrain     Retrainer
	log         zerolog.Logger

	mu        sync.RWMutex
	evaluator eval.Evaluator

	wg sync.WaitGroup
}

type Option func(*GameService)

func WithRetrainer(r Retrainer) Option {
	return func(gs *GameService) {
		gs.retrain = r
	}
}

func NewGameService(
	gameManager *GameManager,
	store RecordStore,
	extractor *eval.Extractor,
	evaluator eval.Evaluator,
	log zerolog.Logger,
	opts ...Option,
) *GameService {
	gs := &GameService{
		gameManager: gameManager,
		store:       store,
		extractor:   extractor,
		evaluator:   evaluator,
		log:         log,
	}
	for _, opt := range opts {
		opt(gs)
	}
	return gs
}

func (gs *GameService) CreateGame(playerID string) string {
	return gs.gameManager.CreateGame(playerID).ID
}

func (gs *GameService) GetGameState(gameID string) (model.GameView, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.GameView{}, err
	}
	return game.GetState(), nil
}

func (gs *GameService) ListGames() []string {
	return gs.gameManager.GameIDs()
}

func (gs *GameService) HandleMove(ctx context.Context, gameID, playerID string, move model.WSMove) (model.MoveResult, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.MoveResult{}, err
	}
	result, err := game.MakeMove(playerID, move.Move())
	if err != nil {
		return model.MoveResult{}, err
	}
	gs.afterMove(ctx, game, result)
	return result, nil
}

// AcceptSuggestion plays the move most recently suggested for the game.
func (gs *GameService) AcceptSuggestion(ctx context.Context, gameID, playerID string) (model.MoveResult, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.MoveResult{}, err
	}
	result, err := game.ApplySuggestion(playerID)
	if err != nil {
		return model.MoveResult{}, err
	}
	gs.afterMove(ctx, game, result)
	return result, nil
}

func (gs *GameService) afterMove(ctx context.Context, game *model.Game, result model.MoveResult) {
	if result.Flush == nil {
		return
	}
	winner := game.GetState().Winner
	gs.log.Info().
		Str("game", game.ID).
		Str("winner", string(winner)).
		Int("positions", len(result.Flush)).
		Msg("game over, saving positions")
	if err := gs.store.Append(ctx, result.Flush); err != nil {
		gs.log.Error().Err(err).Str("game", game.ID).Msg("failed to save game history")
	}
}

// Suggest runs the advisor on a copy of the game and publishes the result if
// the game has not moved on meanwhile. A nil suggestion means the side to
// move has nothing to play.
func (gs *GameService) Suggest(gameID string) (*model.Suggestion, error) {
	suggestion, _, err := gs.suggest(gameID)
	return suggestion, err
}

// suggest also reports whether the suggestion was published to the game.
func (gs *GameService) suggest(gameID string) (*model.Suggestion, bool, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, false, err
	}
	state, version := game.Snapshot()
	if state.Over {
		return nil, false, model.ErrGameOver
	}
	suggestion, err := advisor.New(gs.extractor, gs.Evaluator()).Suggest(state)
	if err != nil {
		return nil, false, err
	}
	if suggestion == nil {
		return nil, false, nil
	}
	return suggestion, game.SetSuggestion(version, suggestion), nil
}

// SuggestAsync answers a websocket suggestion request without blocking the
// connection's read loop. A published suggestion reaches the requester
// through the game broadcast; otherwise the requester gets a null one.
func (gs *GameService) SuggestAsync(gameID, playerID string) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return
	}
	gs.wg.Add(1)
	go func() {
		defer gs.wg.Done()
		suggestion, published, err := gs.suggest(gameID)
		if err != nil {
			game.Send(playerID, ws.MessageTypeError, err.Error())
			return
		}
		if !published {
			if suggestion != nil {
				gs.log.Debug().Str("game", gameID).Msg("discarded stale suggestion")
			}
			game.Send(playerID, ws.MessageTypeSuggestion, nil)
		}
	}()
}

func (gs *GameService) ResetGame(ctx context.Context, gameID, playerID string) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	if err := game.Reset(playerID); err != nil {
		return err
	}
	gs.RetrainAsync(context.WithoutCancel(ctx))
	return nil
}

// Retrain swaps in a freshly fitted evaluator. Any failure keeps the current
// one.
func (gs *GameService) Retrain(ctx context.Context) {
	if gs.retrain == nil {
		return
	}
	evaluator, err := gs.retrain(ctx)
	if err != nil {
		event := gs.log.Warn().Err(err)
		if train.IsDataError(err) {
			event = event.Bool("data_error", true)
		}
		event.Msg("could not retrain, keeping previous model")
		return
	}
	gs.mu.Lock()
	gs.evaluator = evaluator
	gs.mu.Unlock()
	gs.log.Info().Msg("evaluator retrained")
}

func (gs *GameService) RetrainAsync(ctx context.Context) {
	gs.wg.Add(1)
	go func() {
		defer gs.wg.Done()
		gs.Retrain(ctx)
	}()
}

func (gs *GameService) Evaluator() eval.Evaluator {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.evaluator
}

// Wait blocks until background suggestions and retraining have finished.
func (gs *GameService) Wait() {
	gs.wg.Wait()
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gs *GameService) SendTo(gameID, playerID string, msgType ws.MessageType, payload interface{}) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return
	}
	game.Send(playerID, msgType, payload)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID)
}
