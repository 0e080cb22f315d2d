package train

import "errors"

// Data errors are fatal to a training call but say nothing about I/O; callers
// typically keep their previous evaluator when they see one.
var (
	ErrMissingColumns = errors.New("missing required columns in CSV")
	ErrNoUsableRows   = errors.New("no valid rows to train on after filtering")
	ErrNotEnoughData  = errors.New("not enough data to train the model")
)

func IsDataError(err error) bool {
	return errors.Is(err, ErrMissingColumns) ||
		errors.Is(err, ErrNoUsableRows) ||
		errors.Is(err, ErrNotEnoughData)
}
