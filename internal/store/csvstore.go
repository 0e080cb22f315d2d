package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/benbeisheim/chessadvisor-backend/internal/model"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

const (
	ColumnFEN        = "FEN"
	ColumnEvaluation = "Evaluation"
)

// DedupePolicy decides which row survives when a position identifier
// appears more than once.
type DedupePolicy string

const (
	// KeepFirst retains the earliest row, so a stored label is never
	// overwritten by a later game.
	KeepFirst DedupePolicy = "first"
	// KeepLast retains the most recent row.
	KeepLast DedupePolicy = "last"
)

func ParseDedupePolicy(s string) (DedupePolicy, error) {
	switch DedupePolicy(s) {
	case KeepFirst, KeepLast:
		return DedupePolicy(s), nil
	}
	return "", fmt.Errorf("unknown dedupe policy %q", s)
}

// ValidFEN reports whether a general chess library accepts fen.
func ValidFEN(fen string) bool {
	_, err := chess.FEN(fen)
	return err == nil
}

type row struct {
	fen        string
	evaluation string
}

// CSVStore keeps game history in a CSV file with a FEN,Evaluation header.
// It never fails a caller because of what it finds on disk: a missing, empty
// or malformed file is replaced.
type CSVStore struct {
	path   string
	policy DedupePolicy
	log    zerolog.Logger
	mu     sync.Mutex
}

func NewCSVStore(path string, policy DedupePolicy, log zerolog.Logger) *CSVStore {
	if policy == "" {
		policy = KeepFirst
	}
	return &CSVStore{
		path:   path,
		policy: policy,
		log:    log.With().Str("store", path).Logger(),
	}
}

func (s *CSVStore) Path() string {
	return s.path
}

// Append merges records into the file, dropping identifiers that do not parse
// and deduplicating by identifier.
func (s *CSVStore) Append(ctx context.Context, records []model.PositionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries := make([]row, 0, len(records))
	for _, r := range records {
		if !ValidFEN(r.FEN) {
			s.log.Warn().Str("fen", r.FEN).Msg("dropping invalid FEN")
			continue
		}
		entries = append(entries, row{
			fen:        r.FEN,
			evaluation: strconv.FormatFloat(r.Label, 'f', -1, 64),
		})
	}
	if len(entries) == 0 {
		s.log.Warn().Msg("no valid FENs to save from game history")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readRows()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		existing = nil
	case errors.Is(err, errCorrupted):
		s.log.Warn().Err(err).Msg("existing CSV is corrupted, rewriting file")
		existing = nil
	case err != nil:
		return err
	}

	combined := dedupe(append(existing, entries...), s.policy)
	if err := s.writeRows(combined); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.log.Info().
		Int("appended", len(entries)).
		Int("rows", len(combined)).
		Msg("saved game history")
	return nil
}

// Records returns the stored rows whose evaluation parses as a number.
func (s *CSVStore) Records(ctx context.Context) ([]model.PositionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	rows, err := s.readRows()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	result := make([]model.PositionRecord, 0, len(rows))
	for _, r := range rows {
		label, err := strconv.ParseFloat(r.evaluation, 64)
		if err != nil {
			continue
		}
		result = append(result, model.PositionRecord{FEN: r.fen, Label: label})
	}
	return result, nil
}

var errCorrupted = errors.New("corrupted record store")

func (s *CSVStore) readRows() ([]row, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", errCorrupted)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupted, err)
	}
	fenIdx, evalIdx := -1, -1
	for i, name := range header {
		switch name {
		case ColumnFEN:
			fenIdx = i
		case ColumnEvaluation:
			evalIdx = i
		}
	}
	if fenIdx < 0 || evalIdx < 0 {
		return nil, fmt.Errorf("%w: missing headers, found %v", errCorrupted, header)
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupted, err)
	}
	rows := make([]row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, row{fen: rec[fenIdx], evaluation: rec[evalIdx]})
	}
	return rows, nil
}

func (s *CSVStore) writeRows(rows []row) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	w := csv.NewWriter(tmp)
	w.Write([]string{ColumnFEN, ColumnEvaluation})
	for _, r := range rows {
		w.Write([]string{r.fen, r.evaluation})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// dedupe keeps one row per identifier, at the position of the row it keeps.
func dedupe(rows []row, policy DedupePolicy) []row {
	keep := make(map[string]int, len(rows))
	for i, r := range rows {
		if _, seen := keep[r.fen]; seen && policy == KeepFirst {
			continue
		}
		keep[r.fen] = i
	}
	result := make([]row, 0, len(keep))
	for i, r := range rows {
		if keep[r.fen] == i {
			result = append(result, r)
		}
	}
	return result
}
