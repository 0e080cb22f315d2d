package train

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/benbeisheim/chessadvisor-backend/internal/eval"
	"github.com/benbeisheim/chessadvisor-backend/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLimit = 100_000
	// Labels are clipped to +-LabelClip and divided by LabelScale.
	LabelClip  = 1500
	LabelScale = 1000
)

type Sample struct {
	FEN      string
	Features []float64
	Target   float64
}

type LoadOptions struct {
	// Limit caps how many data rows are read, before any filtering.
	Limit   int
	Threads int
}

type datasetItem struct {
	fen    string
	target float64
}

// LoadCSV reads a FEN,Evaluation table, filters rows that cannot be used and
// extracts features for the rest.
func LoadCSV(ctx context.Context, r io.Reader, extractor *eval.Extractor, opts LoadOptions) ([]Sample, error) {
	items, err := readItems(r, opts.Limit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoUsableRows
	}
	samples, err := extractFeatures(ctx, items, extractor, opts.Threads)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrNoUsableRows
	}
	return samples, nil
}

func readItems(r io.Reader, limit int) ([]datasetItem, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}
	if err != nil {
		return nil, err
	}
	fenIdx, evalIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case store.ColumnFEN:
			fenIdx = i
		case store.ColumnEvaluation:
			evalIdx = i
		}
	}
	if fenIdx < 0 || evalIdx < 0 {
		return nil, fmt.Errorf("%w: found %v", ErrMissingColumns, header)
	}

	var items []datasetItem
	for read := 0; read < limit; read++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if fenIdx >= len(rec) || evalIdx >= len(rec) {
			continue
		}
		fen := rec[fenIdx]
		if !store.ValidFEN(fen) {
			continue
		}
		value, ok := ParseEvaluation(rec[evalIdx])
		if !ok {
			continue
		}
		items = append(items, datasetItem{fen: fen, target: ScaleLabel(value)})
	}
	return items, nil
}

// ParseEvaluation keeps only digits, '-' and '.' of s and parses the rest,
// so engine notations such as "+1.5" or "#-3" still yield a number.
func ParseEvaluation(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' || r == '.' {
			return r
		}
		return -1
	}, s)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) {
		return 0, false
	}
	return value, true
}

func ScaleLabel(value float64) float64 {
	return math.Max(-LabelClip, math.Min(LabelClip, value)) / LabelScale
}

// extractFeatures fans the rows out to a pool of workers. Output order
// follows input order.
func extractFeatures(ctx context.Context, items []datasetItem, extractor *eval.Extractor, threads int) ([]Sample, error) {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	results := make([]*Sample, len(items))

	g, ctx := errgroup.WithContext(ctx)
	indexes := make(chan int, 128)

	g.Go(func() error {
		defer close(indexes)
		for i := range items {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case indexes <- i:
			}
		}
		return nil
	})

	for t := 0; t < threads; t++ {
		g.Go(func() error {
			for i := range indexes {
				features, err := extractor.Extract(items[i].fen)
				if err != nil {
					continue
				}
				results[i] = &Sample{
					FEN:      items[i].fen,
					Features: features,
					Target:   items[i].target,
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	samples := make([]Sample, 0, len(results))
	for _, s := range results {
		if s != nil {
			samples = append(samples, *s)
		}
	}
	return samples, nil
}
