package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/benbeisheim/chessadvisor-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

var (
	ErrNotOwner     = errors.New("player does not own this game")
	ErrNoSuggestion = errors.New("no suggestion pending")
)

// Conn is the part of a websocket connection a game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// The connections for a specific game
type GameConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.Mutex
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

type Suggestion struct {
	Move  Move    `json:"move"`
	Score float64 `json:"score"`
}

// MarshalJSON writes a NaN or infinite score as null.
func (s Suggestion) MarshalJSON() ([]byte, error) {
	var score *float64
	if !math.IsNaN(s.Score) && !math.IsInf(s.Score, 0) {
		score = &s.Score
	}
	return json.Marshal(struct {
		Move  Move     `json:"move"`
		Score *float64 `json:"score"`
	}{s.Move, score})
}

// GameView is the client-facing snapshot of a game.
type GameView struct {
	ID          string      `json:"id"`
	FEN         string      `json:"fen"`
	Board       *Board      `json:"boardState"`
	ToMove      Color       `json:"toMove"`
	Over        bool        `json:"over"`
	Winner      Color       `json:"winner,omitempty"`
	IsCheck     bool        `json:"isCheck"`
	MoveHistory []Ply       `json:"moveHistory"`
	LastMove    *Move       `json:"lastMove"`
	Suggestion  *Suggestion `json:"suggestion"`
	Version     int         `json:"version"`
}

// MoveResult reports an accepted move. Flush is non-nil exactly once per
// game: on the move that ended it.
type MoveResult struct {
	Ply    Ply
	Record PositionRecord
	Over   bool
	Flush  []PositionRecord
}

// Game is one session: its state, the position history waiting to be
// persisted, and the websocket observers.
type Game struct {
	ID          string
	Owner       string
	mu          sync.Mutex
	state       GameState
	history     []PositionRecord
	moveHistory []Ply
	lastMove    *Move
	suggestion  *Suggestion
	flushed     bool
	version     int
	connections *GameConnections
	log         zerolog.Logger
}

func NewGame(id, owner string, log zerolog.Logger) *Game {
	return &Game{
		ID:          id,
		Owner:       owner,
		state:       NewGameState(),
		history:     make([]PositionRecord, 0),
		moveHistory: make([]Ply, 0),
		connections: NewGameConnections(),
		log:         log.With().Str("game", id).Logger(),
	}
}

func (g *Game) GetState() GameView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.view()
}

func (g *Game) view() GameView {
	v := GameView{
		ID:          g.ID,
		FEN:         g.state.FEN(),
		Board:       g.state.Board.Clone(),
		ToMove:      g.state.ToMove,
		Over:        g.state.Over,
		Winner:      g.state.Winner(),
		IsCheck:     IsKingInCheck(g.state.Board, g.state.ToMove),
		MoveHistory: append([]Ply(nil), g.moveHistory...),
		Version:     g.version,
	}
	if g.lastMove != nil {
		m := *g.lastMove
		v.LastMove = &m
	}
	if g.suggestion != nil {
		s := *g.suggestion
		v.Suggestion = &s
	}
	return v
}

// Snapshot returns a deep copy of the state together with the version it was
// taken at, for work done outside the game lock.
func (g *Game) Snapshot() (GameState, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone(), g.version
}

func (g *Game) History() []PositionRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]PositionRecord(nil), g.history...)
}

func (g *Game) IsOwner(playerID string) bool {
	return g.Owner != "" && g.Owner == playerID
}

func (g *Game) MakeMove(playerID string, move Move) (MoveResult, error) {
	if !g.IsOwner(playerID) {
		return MoveResult{}, ErrNotOwner
	}
	g.mu.Lock()
	ply, record, err := g.state.Apply(move)
	if err != nil {
		g.mu.Unlock()
		return MoveResult{}, err
	}
	g.history = append(g.history, record)
	g.moveHistory = append(g.moveHistory, ply)
	g.lastMove = &Move{From: move.From, To: move.To}
	g.suggestion = nil
	g.version++

	result := MoveResult{Ply: ply, Record: record, Over: g.state.Over}
	if g.state.Over && !g.flushed {
		g.flushed = true
		result.Flush = append([]PositionRecord(nil), g.history...)
	}
	view := g.view()
	g.mu.Unlock()

	g.broadcast(ws.MessageTypeGameState, view)
	if result.Over {
		g.broadcast(ws.MessageTypeGameOver, view)
	}
	return result, nil
}

// ApplySuggestion plays the pending suggestion, if any.
func (g *Game) ApplySuggestion(playerID string) (MoveResult, error) {
	g.mu.Lock()
	s := g.suggestion
	g.mu.Unlock()
	if s == nil {
		return MoveResult{}, ErrNoSuggestion
	}
	return g.MakeMove(playerID, s.Move)
}

// SetSuggestion publishes s only if nothing was played since version.
func (g *Game) SetSuggestion(version int, s *Suggestion) bool {
	g.mu.Lock()
	if g.version != version {
		g.mu.Unlock()
		return false
	}
	g.suggestion = s
	g.mu.Unlock()

	g.broadcast(ws.MessageTypeSuggestion, s)
	return true
}

func (g *Game) Reset(playerID string) error {
	if !g.IsOwner(playerID) {
		return ErrNotOwner
	}
	g.mu.Lock()
	g.state = NewGameState()
	g.history = make([]PositionRecord, 0)
	g.moveHistory = make([]Ply, 0)
	g.lastMove = nil
	g.suggestion = nil
	g.flushed = false
	g.version++
	view := g.view()
	g.mu.Unlock()

	g.broadcast(ws.MessageTypeGameState, view)
	return nil
}

func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	connID := fmt.Sprintf("%p", conn)

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		// Keep the existing connection and reject the new one
		g.connections.mu.Unlock()
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(
				websocket.CloseNormalClosure,
				"Connection already exists",
			),
		)
		conn.Close()
		return nil
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()
	g.log.Debug().Str("player", playerID).Str("conn", connID).Msg("registered connection")

	g.broadcast(ws.MessageTypeGameState, g.GetState())
	return nil
}

func (g *Game) UnregisterConnection(playerID string) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if _, exists := g.connections.connections[playerID]; exists {
		delete(g.connections.connections, playerID)
		g.log.Debug().Str("player", playerID).Msg("unregistered connection")
	}
}

// broadcast writes one message to every observer. Writers are serialised by
// the connections mutex; a connection that fails a write is dropped.
func (g *Game) broadcast(msgType ws.MessageType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		g.log.Error().Err(err).Str("type", string(msgType)).Msg("failed to marshal broadcast")
		return
	}
	msg := ws.Message{Type: msgType, Payload: json.RawMessage(data)}

	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()
	for playerID, conn := range g.connections.connections {
		if err := conn.WriteJSON(msg); err != nil {
			g.log.Warn().Err(err).Str("player", playerID).Msg("failed to send, dropping connection")
			delete(g.connections.connections, playerID)
		}
	}
}

// Send writes one message to a single player's connection, if registered.
func (g *Game) Send(playerID string, msgType ws.MessageType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		g.log.Error().Err(err).Str("type", string(msgType)).Msg("failed to marshal message")
		return
	}
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()
	conn, ok := g.connections.connections[playerID]
	if !ok {
		return
	}
	if err := conn.WriteJSON(ws.Message{Type: msgType, Payload: json.RawMessage(data)}); err != nil {
		g.log.Warn().Err(err).Str("player", playerID).Msg("failed to send, dropping connection")
		delete(g.connections.connections, playerID)
	}
}
