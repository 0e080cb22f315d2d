package controller

import (
	"errors"

	"github.com/benbeisheim/chessadvisor-backend/internal/model"
	"github.com/benbeisheim/chessadvisor-backend/internal/service"
	"github.com/gofiber/fiber/v2"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, model.ErrNotOwner):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrGameOver):
		return fiber.StatusConflict
	case errors.Is(err, model.ErrNotYourTurn),
		errors.Is(err, model.ErrNoPiece),
		errors.Is(err, model.ErrIllegalMove),
		errors.Is(err, model.ErrOutOfBounds),
		errors.Is(err, model.ErrNoSuggestion):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	playerID := c.Locals("playerID").(string)
	gameID := gc.gameService.CreateGame(playerID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) ListGames(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"games": gc.gameService.ListGames(),
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var move model.WSMove
	if err := c.BodyParser(&move); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid move payload",
		})
	}
	playerID := c.Locals("playerID").(string)
	result, err := gc.gameService.HandleMove(c.UserContext(), c.Params("gameId"), playerID, move)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"ply":    result.Ply,
		"record": result.Record,
		"over":   result.Over,
	})
}

// Suggest runs the advisor synchronously; "move" is null when the side to
// move has no moves.
func (gc *GameController) Suggest(c *fiber.Ctx) error {
	suggestion, err := gc.gameService.Suggest(c.Params("gameId"))
	if err != nil {
		return errorResponse(c, err)
	}
	if suggestion == nil {
		return c.JSON(fiber.Map{"move": nil})
	}
	return c.JSON(fiber.Map{
		"move":  suggestion.Move,
		"score": suggestion.Score,
	})
}

func (gc *GameController) AcceptSuggestion(c *fiber.Ctx) error {
	playerID := c.Locals("playerID").(string)
	result, err := gc.gameService.AcceptSuggestion(c.UserContext(), c.Params("gameId"), playerID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"ply":    result.Ply,
		"record": result.Record,
		"over":   result.Over,
	})
}

func (gc *GameController) ResetGame(c *fiber.Ctx) error {
	playerID := c.Locals("playerID").(string)
	if err := gc.gameService.ResetGame(c.UserContext(), c.Params("gameId"), playerID); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game reset",
	})
}

// Register mounts the REST routes on router, which is expected to carry the
// player ID middleware.
func (gc *GameController) Register(router fiber.Router) {
	router.Get("/games", gc.ListGames)

	gameRoutes := router.Group("/game")
	gameRoutes.Post("/create", gc.CreateGame)
	gameRoutes.Get("/:gameId", gc.GetGameState)
	gameRoutes.Post("/:gameId/move", gc.MakeMove)
	gameRoutes.Post("/:gameId/suggest", gc.Suggest)
	gameRoutes.Post("/:gameId/suggest/accept", gc.AcceptSuggestion)
	gameRoutes.Post("/:gameId/reset", gc.ResetGame)
}
