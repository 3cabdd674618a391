package line

import "errors"

var (
	ErrMissingID      = errors.New("line id is required")
	ErrInvalidProfile = errors.New("conductor profile is not set")
)
