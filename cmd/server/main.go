package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbeisheim/chessadvisor-backend/internal/config"
	"github.com/benbeisheim/chessadvisor-backend/internal/controller"
	"github.com/benbeisheim/chessadvisor-backend/internal/eval"
	"github.com/benbeisheim/chessadvisor-backend/internal/middleware"
	"github.com/benbeisheim/chessadvisor-backend/internal/service"
	"github.com/benbeisheim/chessadvisor-backend/internal/store"
	"github.com/benbeisheim/chessadvisor-backend/internal/train"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load("server", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	extractor := cfg.Extractor()
	recordStore := store.NewCSVStore(cfg.StorePath, store.DedupePolicy(cfg.Dedupe), log.With().Str("component", "store").Logger())
	retrain := newRetrainer(cfg, extractor, log.With().Str("component", "train").Logger())

	// Initialize services
	gameManager := service.NewGameManager(log)
	gameService := service.NewGameService(
		gameManager,
		recordStore,
		extractor,
		initialEvaluator(ctx, cfg, extractor, retrain, log),
		log.With().Str("component", "service").Logger(),
		service.WithRetrainer(retrain),
	)

	// Initialize controllers
	gameController := controller.NewGameController(gameService)
	wsController := controller.NewWebSocketController(gameService, log.With().Str("component", "ws").Logger())

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins(),
		AllowHeaders:     "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(middleware.RequestLogger(log.With().Str("component", "http").Logger()))

	// Set up WebSocket routes
	app.Use("/ws/*", middleware.EnsurePlayerID(log))
	app.Get("/ws/game/:gameId", middleware.WebSocketUpgrade(), websocket.New(wsController.HandleConnection, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}))

	// Set up REST routes
	api := app.Group("/api", middleware.EnsurePlayerID(log))
	gameController.Register(api)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		return app.Listen(cfg.Addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		err := app.ShutdownWithTimeout(5 * time.Second)
		gameService.Wait()
		return err
	})
	return g.Wait()
}

// newRetrainer fits a model from the record store and saves it next to the
// configured model path.
func newRetrainer(cfg config.Config, extractor *eval.Extractor, log zerolog.Logger) service.Retrainer {
	opts := train.Options{
		Load: train.LoadOptions{Limit: cfg.TrainLimit},
		Fit:  train.FitOptions{Epochs: cfg.TrainEpochs},
	}
	return func(ctx context.Context) (eval.Evaluator, error) {
		model, err := train.TrainFile(ctx, cfg.StorePath, extractor, opts, log)
		if err != nil {
			return nil, err
		}
		if err := model.Save(cfg.ModelPath); err != nil {
			log.Warn().Err(err).Str("path", cfg.ModelPath).Msg("could not save model")
		}
		return model, nil
	}
}

// initialEvaluator prefers a saved model, then one trained from the stored
// history, then the untrained default.
func initialEvaluator(ctx context.Context, cfg config.Config, extractor *eval.Extractor, retrain service.Retrainer, log zerolog.Logger) eval.Evaluator {
	model, err := eval.LoadModel(cfg.ModelPath)
	if err == nil {
		if err = model.Check(extractor); err == nil {
			log.Info().Str("path", cfg.ModelPath).Float64("r2", model.R2).Msg("loaded model")
			return model
		}
	}
	if !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("path", cfg.ModelPath).Msg("ignoring saved model")
	}

	evaluator, err := retrain(ctx)
	if err == nil {
		return evaluator
	}
	if !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Bool("data_error", train.IsDataError(err)).Msg("could not train from history")
	}
	log.Info().Str("variant", string(extractor.Variant)).Msg("using default model")
	return eval.DefaultModel(extractor.Variant)
}
