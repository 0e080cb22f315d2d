// service/game_manager.go
package service

import (
	"errors"
	"sync"

	"github.com/benbeisheim/chessadvisor-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var ErrGameNotFound = errors.New("game not found")

type GameManager struct {
	games map[string]*model.Game
	mu    sync.RWMutex
	log   zerolog.Logger
}

func NewGameManager(log zerolog.Logger) *GameManager {
	return &GameManager{
		games: make(map[string]*model.Game),
		log:   log,
	}
}

func (gm *GameManager) CreateGame(ownerID string) *model.Game {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	gameID := uuid.New().String()
	game := model.NewGame(gameID, ownerID, gm.log)
	gm.games[gameID] = game
	gm.log.Info().Str("game", gameID).Str("owner", ownerID).Msg("game created")
	return game
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// GameIDs lists the known games in lexical order.
func (gm *GameManager) GameIDs() []string {
	gm.mu.RLock()
	ids := maps.Keys(gm.games)
	gm.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

func (gm *GameManager) RemoveGame(gameID string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; !exists {
		return ErrGameNotFound
	}
	delete(gm.games, gameID)
	return nil
}
