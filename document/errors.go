package document

import "errors"

var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrInvalidPage     = errors.New("invalid page number")
)
