package app

import (
	"context"

	"proxtest/domain/core"
	"proxtest/domain/stats"
	"proxtest/domain/travel"
	"proxtest/internal"
	"proxtest/internal/errors"
	"proxtest/ports"
)

// ProximityService loads the two input tables, runs the permutation test
// and hands the result to every configured sink
type ProximityService struct {
	reader    ports.TableReaderPort
	battery   ports.BatteryPort
	reporters []ports.ReportPort
	runs      ports.RunRepositoryPort // optional
	logger    *internal.Logger
}

// ProximityRequest names the inputs of one run
type ProximityRequest struct {
	LookupPath      string
	ObservedPath    string
	AugmentLookup   bool // fill keys the lookup lacks from observed costs
	ExcludeObserved bool // treat the lookup file as a full table and drop observed pairs
}

// PreparedInput is a validated run input plus how it was assembled
type PreparedInput struct {
	Input           *ports.TestInput
	Build           travel.LookupBuildStats
	LookupAugmented int
}

// NewProximityService creates the service. runs may be nil.
func NewProximityService(reader ports.TableReaderPort, battery ports.BatteryPort, runs ports.RunRepositoryPort, logger *internal.Logger, reporters ...ports.ReportPort) *ProximityService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ProximityService{
		reader:    reader,
		battery:   battery,
		reporters: reporters,
		runs:      runs,
		logger:    logger,
	}
}

// Prepare reads and validates both tables and assembles the lookup
func (s *ProximityService) Prepare(ctx context.Context, req ProximityRequest) (*PreparedInput, error) {
	observedRows, err := s.reader.ReadObserved(ctx, req.ObservedPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read observed pairs from %s", req.ObservedPath)
	}
	observed, err := travel.NewObservedTable(observedRows)
	if err != nil {
		return nil, errors.Wrap(err, "invalid observed pairs")
	}

	lookupRows, err := s.reader.ReadLookup(ctx, req.LookupPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read lookup table from %s", req.LookupPath)
	}
	lookup, build, err := travel.BuildLookupTable(lookupRows, observed, req.ExcludeObserved)
	if err != nil {
		return nil, errors.Wrap(err, "invalid lookup table")
	}
	if build.SelfPairsDropped > 0 || build.ObservedDropped > 0 {
		s.logger.Debug("lookup: %d rows in, %d self-pairs and %d observed pairs dropped, %d kept",
			build.InputRows, build.SelfPairsDropped, build.ObservedDropped, build.Kept)
	}

	// The ordering comes from the lookup file as read. Augmentation fills
	// costs only and never introduces a community.
	registry := travel.NewCommunityRegistryFromRows(lookupRows)

	prepared := &PreparedInput{Build: build}
	if req.AugmentLookup {
		var added int
		lookup, added, err = lookup.AugmentFromObserved(observed)
		if err != nil {
			return nil, errors.Wrap(err, "failed to augment lookup from observed pairs")
		}
		prepared.LookupAugmented = added
		if added > 0 {
			s.logger.Info("added %d observed pairs missing from the lookup table", added)
		}
	}

	prepared.Input = &ports.TestInput{Lookup: lookup, Observed: observed, Registry: registry}
	return prepared, nil
}

// Run prepares the input, runs the test and publishes the result. A sink
// failure is returned together with the completed result.
func (s *ProximityService) Run(ctx context.Context, req ProximityRequest) (*stats.RunResult, error) {
	prepared, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := s.battery.Run(ctx, prepared.Input)
	if err != nil {
		return nil, errors.Wrap(err, "permutation test failed")
	}
	result.Diagnostics.LookupAugmented = prepared.LookupAugmented

	return result, s.Publish(ctx, result)
}

// Publish sends result to every reporter, then to the run store. Every sink
// is attempted; the first failure is returned.
func (s *ProximityService) Publish(ctx context.Context, result *stats.RunResult) error {
	var first error
	for _, reporter := range s.reporters {
		if err := reporter.Report(ctx, result); err != nil {
			s.logger.Error("report for run %s failed: %v", result.RunID, err)
			if first == nil && errors.IsAppError(err) {
				first = err
			} else if first == nil {
				first = errors.ReportFailed("run", err)
			}
		}
	}

	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, result); err != nil {
			s.logger.Error("saving run %s failed: %v", result.RunID, err)
			if first == nil {
				first = errors.Wrapf(err, "failed to save run %s", result.RunID)
			}
		}
	}
	return first
}

// History lists stored runs, newest first
func (s *ProximityService) History(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	if s.runs == nil {
		return nil, errors.ConfigInvalid("no run store configured")
	}
	return s.runs.ListRuns(ctx, limit)
}

// FindRun returns one stored run by its ID
func (s *ProximityService) FindRun(ctx context.Context, rawID string) (*ports.RunSummary, error) {
	if s.runs == nil {
		return nil, errors.ConfigInvalid("no run store configured")
	}
	id, err := core.ParseRunID(rawID)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	return s.runs.GetRun(ctx, id)
}
