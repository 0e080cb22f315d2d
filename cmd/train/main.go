// Command train fits the evaluation model from the stored game history and
// writes it to the model path.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/benbeisheim/chessadvisor-backend/internal/config"
	"github.com/benbeisheim/chessadvisor-backend/internal/train"
)

func main() {
	cfg, err := config.Load("train", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	extractor := cfg.Extractor()
	opts := train.Options{
		Load: train.LoadOptions{Limit: cfg.TrainLimit, Threads: runtime.NumCPU()},
		Fit:  train.FitOptions{Epochs: cfg.TrainEpochs},
	}
	model, err := train.TrainFile(ctx, cfg.StorePath, extractor, opts, log)
	if err != nil {
		log.Fatal().Err(err).Bool("data_error", train.IsDataError(err)).Msg("training failed")
	}
	if err := model.Save(cfg.ModelPath); err != nil {
		log.Fatal().Err(err).Str("path", cfg.ModelPath).Msg("could not save model")
	}
	log.Info().
		Str("path", cfg.ModelPath).
		Floats64("weights", model.Weights).
		Float64("bias", model.Bias).
		Float64("r2", model.R2).
		Msg("model saved")
}
