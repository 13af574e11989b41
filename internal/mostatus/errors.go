package mostatus

import "errors"

var (
	// ErrInvalidRange is returned for malformed or inverted date ranges.
	ErrInvalidRange = errors.New("mostatus: invalid date range")
	// ErrUnknownCard is returned for dashboard cards that do not exist.
	ErrUnknownCard = errors.New("mostatus: unknown card")
)
