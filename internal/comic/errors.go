package comic

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrStoryNotFound = errors.New("story not found")
	ErrPageNotFound  = errors.New("page not found")
	ErrNotOwner      = errors.New("story does not belong to the requesting user")
	ErrMissingFields = errors.New("missing required fields")
)

// QuotaExceededError carries the instant the user's quota window resets so
// callers can compute time remaining.
type QuotaExceededError struct {
	ResetAt time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("generation quota exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}
