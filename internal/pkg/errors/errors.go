package errors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalid          = errors.New("invalid")
	ErrTooMany          = errors.New("too many requests")
	ErrInternal         = errors.New("internal")
	ErrOversizedPayload = errors.New("payload too large for store")
	ErrNoValidChunks    = errors.New("no valid text chunks")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsOversizedPayload(err error) bool {
	return errors.Is(err, ErrOversizedPayload)
}
