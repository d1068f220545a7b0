package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid")
	ErrUnavailable       = errors.New("service unavailable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrIndexMissing      = errors.New("persisted index missing")
	ErrEmptyRetrieval    = errors.New("empty retrieval")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsIndexMissing(err error) bool {
	return errors.Is(err, ErrIndexMissing)
}

func IsEmptyRetrieval(err error) bool {
	return errors.Is(err, ErrEmptyRetrieval)
}
