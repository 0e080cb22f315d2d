package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/benbeisheim/chessadvisor-backend/internal/model"
	"github.com/benbeisheim/chessadvisor-backend/internal/service"
	"github.com/benbeisheim/chessadvisor-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

type WebSocketController struct {
	gameService *service.GameService
	log         zerolog.Logger
}

func NewWebSocketController(gameService *service.GameService, log zerolog.Logger) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
		log:         log,
	}
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID, _ := c.Locals("wsGameID").(string)
	playerID, _ := c.Locals("wsPlayerID").(string)
	log := wsc.log.With().Str("game", gameID).Str("player", playerID).Logger()

	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		log.Warn().Err(err).Msg("failed to register connection")
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("read error")
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debug().Err(err).Msg("parse error")
			continue
		}
		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			log.Debug().Err(err).Str("type", string(msg.Type)).Msg("handle error")
			wsc.sendError(gameID, playerID, err)
		}
	}
}

// Handle different types of incoming messages
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	ctx := context.Background()
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.WSMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return err
		}
		_, err := wsc.gameService.HandleMove(ctx, gameID, playerID, move)
		return err

	case ws.MessageTypeSuggest:
		wsc.gameService.SuggestAsync(gameID, playerID)
		return nil

	case ws.MessageTypeAcceptSuggest:
		_, err := wsc.gameService.AcceptSuggestion(ctx, gameID, playerID)
		return err

	case ws.MessageTypeReset:
		return wsc.gameService.ResetGame(ctx, gameID, playerID)

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// Errors go back to the sender only, through the game so writes stay
// serialised with broadcasts.
func (wsc *WebSocketController) sendError(gameID, playerID string, err error) {
	wsc.gameService.SendTo(gameID, playerID, ws.MessageTypeError, err.Error())
}
