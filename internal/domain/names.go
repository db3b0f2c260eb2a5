package domain

import (
	"context"
	"errors"
)

// ErrNameNotFound is returned when a lookup succeeds but carries no name.
var ErrNameNotFound = errors.New("station name not found")

// NameLookup resolves the display name of a single station.
type NameLookup interface {
	LookupName(ctx context.Context, id int) (string, error)
}
