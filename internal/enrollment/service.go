// Package enrollment exposes the fetch entry points: single-year and
// multi-year retrieval of normalized enrollment datasets.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"mischooldata/internal/config"
	"mischooldata/internal/dataprocessing"
	"mischooldata/internal/era"
	"mischooldata/internal/fetch"
	"mischooldata/internal/infrastructure"
	"mischooldata/internal/validation"
	"mischooldata/pkg/contracts/domain"
)

// ErrNoData marks a workbook so malformed that no data rows could be
// identified at any level.
var ErrNoData = errors.New("no data rows identified in workbook")

// Workbook is the decoded spreadsheet surface the service consumes.
type Workbook interface {
	SheetNames() []string
	Rows(name string) ([][]string, error)
	Close() error
}

// WorkbookSource hands the service materialized workbooks. Implemented by
// the fetch client in production and by in-memory fakes in tests.
type WorkbookSource interface {
	FetchWorkbook(ctx context.Context, endYear int, binary bool) (Workbook, error)
}

// NewSource adapts the fetch client to the WorkbookSource interface.
func NewSource(c *fetch.Client) WorkbookSource {
	return clientSource{c: c}
}

type clientSource struct {
	c *fetch.Client
}

func (s clientSource) FetchWorkbook(ctx context.Context, endYear int, binary bool) (Workbook, error) {
	wb, err := s.c.FetchWorkbook(ctx, endYear, binary)
	if err != nil {
		return nil, err
	}
	return wb, nil
}

// Service orchestrates classification, retrieval, extraction, tidying, and
// the optional consistency gate. Stateless between calls: batch years share
// no mutable state and run in parallel safely.
type Service struct {
	source    WorkbookSource
	table     era.Table
	extractor *dataprocessing.Extractor
	valCfg    config.ValidationConfig
	logger    *slog.Logger

	// MaxParallel bounds concurrent year fetches in FetchYears.
	MaxParallel int
}

// NewService creates the fetch service. The era table is passed in explicitly
// so tests can run against synthetic tables.
func NewService(source WorkbookSource, table era.Table, valCfg config.ValidationConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:      source,
		table:       table,
		extractor:   dataprocessing.NewExtractor(logger),
		valCfg:      valCfg,
		logger:      logger,
		MaxParallel: 4,
	}
}

// Dataset is a read-only snapshot of one or more fetched years.
type Dataset struct {
	wide []domain.WideRecord
}

// Wide returns the wide-format records.
func (d *Dataset) Wide() []domain.WideRecord {
	return d.wide
}

// Tidy pivots the dataset into the long format.
func (d *Dataset) Tidy() []domain.TidyRecord {
	return dataprocessing.Tidy(d.wide)
}

// AvailableYears lists every year the era table covers, ascending.
func (s *Service) AvailableYears() []int {
	return s.table.Years()
}

// FetchYear retrieves and normalizes one school year. Input validation and
// retrieval failures are fatal to the call; a missing sheet or column only
// degrades the dataset.
func (s *Service) FetchYear(ctx context.Context, endYear int) (*Dataset, error) {
	profile, err := s.table.Classify(endYear)
	if err != nil {
		return nil, err
	}

	if infrastructure.GetTraceID(ctx) == "" {
		ctx = infrastructure.WithTraceID(ctx, infrastructure.NewTraceID())
	}
	logger := s.logger.With(
		slog.String("trace_id", infrastructure.GetTraceID(ctx)),
		slog.Int("end_year", endYear),
		slog.String("era", profile.Name))

	wb, err := s.source.FetchWorkbook(ctx, endYear, profile.IsBinaryYear(endYear))
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	names := wb.SheetNames()
	byLevel := make(map[domain.Level][]domain.WideRecord, 3)
	for _, level := range []domain.Level{domain.LevelDistrict, domain.LevelBuilding, domain.LevelState} {
		byLevel[level] = s.extractLevel(wb, names, level, profile, endYear, logger)
	}

	// State sheets are missing from several published years; the documented
	// fix is aggregating the district rows instead of reporting zero.
	if len(byLevel[domain.LevelState]) == 0 && len(byLevel[domain.LevelDistrict]) > 0 {
		logger.Info("state sheet absent, synthesizing state aggregate from districts",
			slog.Int("districts", len(byLevel[domain.LevelDistrict])))
		state := dataprocessing.SynthesizeState(byLevel[domain.LevelDistrict], endYear)
		byLevel[domain.LevelState] = []domain.WideRecord{state}
	}

	wide := make([]domain.WideRecord, 0,
		len(byLevel[domain.LevelState])+len(byLevel[domain.LevelDistrict])+len(byLevel[domain.LevelBuilding]))
	wide = append(wide, byLevel[domain.LevelState]...)
	wide = append(wide, byLevel[domain.LevelDistrict]...)
	wide = append(wide, byLevel[domain.LevelBuilding]...)

	if len(wide) == 0 {
		return nil, fmt.Errorf("year %d: %w", endYear, ErrNoData)
	}

	if s.valCfg.RunAfterFetch {
		opts := validation.DefaultOptions()
		opts.AbsoluteTolerance = s.valCfg.AbsoluteTolerance
		opts.StateSumTolerance = s.valCfg.StateSumTolerance
		opts.Advisory = profile.LooseTolerance
		for _, finding := range validation.RunChecks(wide, opts) {
			if !finding.Passed {
				logger.Warn("consistency check failed",
					slog.String("check", finding.Check),
					slog.Bool("advisory", finding.Advisory),
					slog.String("detail", finding.Message))
			}
		}
	}

	logger.Info("year fetched",
		slog.Int("districts", len(byLevel[domain.LevelDistrict])),
		slog.Int("buildings", len(byLevel[domain.LevelBuilding])),
		slog.Int("records", len(wide)))

	return &Dataset{wide: wide}, nil
}

// extractLevel locates and extracts one aggregation level. Absence at any
// step degrades to an empty record set, never an error: failure to extract
// one level must not abort the others.
func (s *Service) extractLevel(wb Workbook, names []string, level domain.Level, profile *era.Profile, endYear int, logger *slog.Logger) []domain.WideRecord {
	name, ok := era.FindSheet(names, profile.SheetPatterns[level])
	if !ok {
		logger.Warn("no sheet found for level",
			slog.String("level", string(level)),
			slog.Any("available", names))
		return nil
	}

	rows, err := wb.Rows(name)
	if err != nil {
		logger.Warn("failed to read sheet",
			slog.String("level", string(level)),
			slog.String("sheet", name),
			slog.String("error", err.Error()))
		return nil
	}

	skip := era.ResolveSkip(rows, profile.HeaderSkip)
	if skip != profile.HeaderSkip {
		logger.Warn("header-skip probe overrode era table",
			slog.String("sheet", name),
			slog.Int("declared", profile.HeaderSkip),
			slog.Int("probed", skip))
	}

	sheet := domain.NewRawSheet(name, rows, skip)
	if sheet == nil {
		return nil
	}
	return s.extractor.ExtractLevel(sheet, level, profile, endYear)
}

// FetchYears batches single-year fetches, continuing past per-year failures.
// It returns whatever succeeded plus one diagnostic per failed year, and
// never an error: partial failure is the expected mode for a 30-year span.
func (s *Service) FetchYears(ctx context.Context, endYears []int) (*Dataset, []domain.Diagnostic) {
	type yearResult struct {
		endYear int
		wide    []domain.WideRecord
	}

	var (
		mu          sync.Mutex
		results     []yearResult
		diagnostics []domain.Diagnostic
	)

	g := new(errgroup.Group)
	g.SetLimit(s.maxParallel())

	for _, endYear := range endYears {
		endYear := endYear
		g.Go(func() error {
			yearCtx := infrastructure.WithTraceID(ctx, infrastructure.NewTraceID())
			ds, err := s.FetchYear(yearCtx, endYear)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				diagnostics = append(diagnostics, domain.Diagnostic{
					EndYear: endYear,
					Stage:   failureStage(err),
					Message: err.Error(),
					TraceID: infrastructure.GetTraceID(yearCtx),
				})
				return nil
			}
			results = append(results, yearResult{endYear: endYear, wide: ds.wide})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Unreachable: every goroutine records its failure as a diagnostic
		// and returns nil.
		s.logger.Error("batch fetch group failed", slog.String("error", err.Error()))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].endYear < results[j].endYear })
	sort.Slice(diagnostics, func(i, j int) bool { return diagnostics[i].EndYear < diagnostics[j].EndYear })

	combined := &Dataset{}
	for _, r := range results {
		combined.wide = append(combined.wide, r.wide...)
	}

	s.logger.Info("batch fetch complete",
		slog.Int("requested", len(endYears)),
		slog.Int("succeeded", len(results)),
		slog.Int("failed", len(diagnostics)))

	return combined, diagnostics
}

func (s *Service) maxParallel() int {
	if s.MaxParallel < 1 {
		return 1
	}
	return s.MaxParallel
}

// failureStage buckets a per-year error for its diagnostic entry.
func failureStage(err error) string {
	var yearErr *era.ErrYearOutOfRange
	if errors.As(err, &yearErr) {
		return "validate"
	}
	var retErr *fetch.RetrievalError
	if errors.As(err, &retErr) {
		return "retrieval"
	}
	if errors.Is(err, ErrNoData) {
		return "extract"
	}
	return "retrieval"
}
