package ports

import (
	"context"

	"proxtest/domain/travel"
)

// TableReaderPort loads the two input tables. Implementations validate the
// required columns and numeric fields and return core.SchemaError otherwise.
type TableReaderPort interface {
	ReadLookup(ctx context.Context, path string) ([]travel.LookupRow, error)
	ReadObserved(ctx context.Context, path string) ([]travel.ObservedPair, error)
}
