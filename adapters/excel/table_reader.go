package excel

import (
	"context"
	stderrors "errors"
	"strconv"

	"proxtest/domain/core"
	"proxtest/domain/travel"
	"proxtest/internal"
	"proxtest/internal/errors"
	"proxtest/ports"
)

// TableReaderAdapter loads the lookup and observed-pairs tables from CSV or
// XLSX files and validates their schema
type TableReaderAdapter struct {
	config ExcelConfig
	logger *internal.Logger
}

var _ ports.TableReaderPort = (*TableReaderAdapter)(nil)

// NewTableReaderAdapter creates a table reader
func NewTableReaderAdapter(config ExcelConfig, logger *internal.Logger) *TableReaderAdapter {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &TableReaderAdapter{config: config, logger: logger}
}

// ReadLookup reads the pairwise distance/time table
func (a *TableReaderAdapter) ReadLookup(ctx context.Context, path string) ([]travel.LookupRow, error) {
	records, err := a.readRecords(ctx, "lookup", path)
	if err != nil {
		return nil, err
	}
	rows := make([]travel.LookupRow, len(records))
	for i, rec := range records {
		rows[i] = travel.LookupRow{Origin: rec.origin, Destination: rec.destination, Cost: rec.cost}
	}
	a.logger.Info("loaded %d lookup rows from %s", len(rows), path)
	return rows, nil
}

// ReadObserved reads the observed-pairs table, one row per replicate
func (a *TableReaderAdapter) ReadObserved(ctx context.Context, path string) ([]travel.ObservedPair, error) {
	records, err := a.readRecords(ctx, "observed", path)
	if err != nil {
		return nil, err
	}
	pairs := make([]travel.ObservedPair, len(records))
	for i, rec := range records {
		pairs[i] = travel.ObservedPair{Origin: rec.origin, Destination: rec.destination, Cost: rec.cost}
	}
	a.logger.Info("loaded %d observed replicates from %s", len(pairs), path)
	return pairs, nil
}

type record struct {
	origin      travel.Community
	destination travel.Community
	cost        travel.TravelCost
}

func (a *TableReaderAdapter) readRecords(ctx context.Context, table, path string) ([]record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := NewDataReader(path, a.config, a.logger).ReadData()
	if stderrors.Is(err, core.ErrEmptyInput) {
		return nil, core.NewSchemaError(table, "", -1, err.Error())
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeInputUnreadable, errors.Wrapf(err, "failed to read %s table %s", table, path))
	}
	if err := CheckColumns(table, data); err != nil {
		return nil, err
	}

	out := make([]record, len(data.Rows))
	for i, row := range data.Rows {
		origin := row[travel.ColumnOrigin]
		if a.config.isMissing(origin) {
			return nil, core.NewSchemaError(table, travel.ColumnOrigin, i, "missing community name")
		}
		destination := row[travel.ColumnDestination]
		if a.config.isMissing(destination) {
			return nil, core.NewSchemaError(table, travel.ColumnDestination, i, "missing community name")
		}
		distance, err := a.parseNumber(table, travel.ColumnDistance, i, row[travel.ColumnDistance])
		if err != nil {
			return nil, err
		}
		hours, err := a.parseNumber(table, travel.ColumnTime, i, row[travel.ColumnTime])
		if err != nil {
			return nil, err
		}
		out[i] = record{
			origin:      travel.Community(origin),
			destination: travel.Community(destination),
			cost:        travel.TravelCost{DistanceKm: distance, TimeH: hours},
		}
	}
	return out, nil
}

func (a *TableReaderAdapter) parseNumber(table, column string, row int, value string) (float64, error) {
	if a.config.isMissing(value) {
		return 0, core.NewSchemaError(table, column, row, "missing value")
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, core.NewSchemaError(table, column, row, "not a number: "+strconv.Quote(value))
	}
	return v, nil
}

// CheckColumns fails with a SchemaError naming the first required column
// the data lacks
func CheckColumns(table string, data *ExcelData) error {
	for _, col := range travel.RequiredColumns {
		if !data.HasColumn(col) {
			return core.NewSchemaError(table, col, -1, "required column missing")
		}
	}
	return nil
}
