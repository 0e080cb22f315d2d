package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benbeisheim/chessadvisor-backend/internal/eval"
	"github.com/benbeisheim/chessadvisor-backend/internal/middleware"
	"github.com/benbeisheim/chessadvisor-backend/internal/model"
	"github.com/benbeisheim/chessadvisor-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type nopStore struct{}

func (nopStore) Append(context.Context, []model.PositionRecord) error { return nil }

func newTestApp() *fiber.App {
	gs := service.NewGameService(
		service.NewGameManager(zerolog.Nop()),
		nopStore{},
		eval.NewExtractor(eval.Extended, eval.PseudoRules),
		eval.DefaultModel(eval.Extended),
		zerolog.Nop(),
	)
	app := fiber.New()
	api := app.Group("/api", middleware.EnsurePlayerID(zerolog.Nop()))
	NewGameController(gs).Register(api)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, player, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if player != "" {
		req.Header.Set("X-Player-ID", player)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func createGame(t *testing.T, app *fiber.App, player string) string {
	t.Helper()
	status, body := do(t, app, http.MethodPost, "/api/game/create", player, "")
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	return body["game_id"].(string)
}

const e2e4 = `{"from":{"x":4,"y":6},"to":{"x":4,"y":4}}`

func TestPlayerIDRequired(t *testing.T) {
	app := newTestApp()
	if status, _ := do(t, app, http.MethodPost, "/api/game/create", "", ""); status != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
	if status, _ := do(t, app, http.MethodGet, "/api/games?playerId=alice", "", ""); status != fiber.StatusOK {
		t.Errorf("query player id: status = %d, want 200", status)
	}
}

func TestGameLifecycle(t *testing.T) {
	app := newTestApp()
	gameID := createGame(t, app, "alice")

	status, body := do(t, app, http.MethodGet, "/api/game/"+gameID, "bob", "")
	if status != fiber.StatusOK || body["fen"] != model.StartingFEN || body["toMove"] != "white" {
		t.Fatalf("state = %d %v", status, body)
	}

	status, body = do(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "alice", e2e4)
	if status != fiber.StatusOK || body["over"] != false {
		t.Fatalf("move = %d %v", status, body)
	}

	status, body = do(t, app, http.MethodPost, "/api/game/"+gameID+"/suggest", "bob", "")
	if status != fiber.StatusOK || body["move"] == nil {
		t.Fatalf("suggest = %d %v", status, body)
	}

	status, _ = do(t, app, http.MethodPost, "/api/game/"+gameID+"/suggest/accept", "alice", "")
	if status != fiber.StatusOK {
		t.Fatalf("accept = %d", status)
	}
	_, body = do(t, app, http.MethodGet, "/api/game/"+gameID, "alice", "")
	if body["toMove"] != "white" {
		t.Errorf("after accept toMove = %v", body["toMove"])
	}

	status, _ = do(t, app, http.MethodPost, "/api/game/"+gameID+"/reset", "alice", "")
	if status != fiber.StatusOK {
		t.Fatalf("reset = %d", status)
	}
	_, body = do(t, app, http.MethodGet, "/api/game/"+gameID, "alice", "")
	if body["fen"] != model.StartingFEN {
		t.Errorf("after reset fen = %v", body["fen"])
	}

	_, body = do(t, app, http.MethodGet, "/api/games", "alice", "")
	if games, ok := body["games"].([]interface{}); !ok || len(games) != 1 || games[0] != gameID {
		t.Errorf("games = %v", body["games"])
	}
}

func TestErrorStatuses(t *testing.T) {
	app := newTestApp()
	gameID := createGame(t, app, "alice")
	var tests = []struct {
		name   string
		method string
		path   string
		player string
		body   string
		want   int
	}{
		{"unknown game", http.MethodGet, "/api/game/nope", "alice", "", fiber.StatusNotFound},
		{"foreign move", http.MethodPost, "/api/game/" + gameID + "/move", "bob", e2e4, fiber.StatusForbidden},
		{"foreign reset", http.MethodPost, "/api/game/" + gameID + "/reset", "bob", "", fiber.StatusForbidden},
		{"illegal move", http.MethodPost, "/api/game/" + gameID + "/move", "alice",
			`{"from":{"x":4,"y":6},"to":{"x":4,"y":3}}`, fiber.StatusUnprocessableEntity},
		{"wrong side", http.MethodPost, "/api/game/" + gameID + "/move", "alice",
			`{"from":{"x":4,"y":1},"to":{"x":4,"y":3}}`, fiber.StatusUnprocessableEntity},
		{"bad payload", http.MethodPost, "/api/game/" + gameID + "/move", "alice", `{"from":`, fiber.StatusBadRequest},
		{"nothing to accept", http.MethodPost, "/api/game/" + gameID + "/suggest/accept", "alice", "", fiber.StatusUnprocessableEntity},
	}
	for _, test := range tests {
		if status, body := do(t, app, test.method, test.path, test.player, test.body); status != test.want {
			t.Errorf("%s: status = %d (%v), want %d", test.name, status, body, test.want)
		}
	}
}

func TestOwnerSurvivesInterleavedRequests(t *testing.T) {
	app := newTestApp()
	for i := 0; i < 200; i++ {
		gameID := createGame(t, app, "alice")
		if status, _ := do(t, app, http.MethodGet, "/api/game/"+gameID, "bob", ""); status != fiber.StatusOK {
			t.Fatalf("round %d: bob state = %d", i, status)
		}
		if status, _ := do(t, app, http.MethodPost, "/api/game/"+gameID+"/suggest", "bob", ""); status != fiber.StatusOK {
			t.Fatalf("round %d: bob suggest = %d", i, status)
		}
		if status, body := do(t, app, http.MethodPost, "/api/game/"+gameID+"/move", "alice", e2e4); status != fiber.StatusOK {
			t.Fatalf("round %d: alice move = %d %v", i, status, body)
		}
	}
}
