package core

import "errors"

// ErrBaseData is returned when any required fetch of a report fails.
var ErrBaseData = errors.New("could not retrieve base data")

// Result is what crosses the boundary to the UI layer. Errors never escape
// as panics or raw values; they are flattened into Error.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func Fail[T any](err error) Result[T] {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Result[T]{Success: false, Error: msg}
}

// ErrInternal replaces recovered panics and unknown failures at the boundary.
var ErrInternal = errors.New("internal error")

var publicErrors = []error{
	ErrBaseData,
	ErrInvalidPeriod,
	ErrInvalidClockTime,
	ErrEmployeeNotFound,
	ErrShiftAlreadyClosed,
	ErrConflict,
	ErrInvalidRecord,
	ErrInvalidAmount,
	ErrEmptyID,
}

// Public reduces err to the sentinel the caller is allowed to see, hiding
// store-level detail. Unknown errors become ErrInternal.
func Public(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range publicErrors {
		if errors.Is(err, target) {
			return target
		}
	}
	return ErrInternal
}
