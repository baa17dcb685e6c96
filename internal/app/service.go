// Package app wires the pipeline stages into one batch service:
// read -> screen -> group -> per-bucket summarize -> assemble.
//
// Data flows strictly forward; each stage is a pure transformation over its
// input. Buckets are summarized in parallel since no bucket depends on any
// other, and each task only reads its own bucket's pairs.
package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/ageincome/internal/adapters/extract"
	"github.com/okian/ageincome/internal/config"
	"github.com/okian/ageincome/internal/domain/grouping"
	"github.com/okian/ageincome/internal/domain/model"
	"github.com/okian/ageincome/internal/domain/screen"
	"github.com/okian/ageincome/internal/domain/summary"
	"github.com/okian/ageincome/pkg/logger"
	"github.com/okian/ageincome/pkg/metrics"
)

// The ASEC supplement reports income for the calendar year before the
// survey year.
const incomeYearOffset = 1

// Diagnostics summarizes one run for operators. Drop counters cover the
// expected, low-rate exclusions; anything fatal surfaces as an error from
// Run instead.
type Diagnostics struct {
	RunID         string
	RowsRead      int
	RowsMalformed int
	ScreenedOut   int
	Drops         grouping.Drops
	BucketsBuilt  int // buckets with at least one surviving record
	BucketsThin   int // omitted: fewer than the minimum cell size
	CellsEmitted  int
	Duration      time.Duration
}

// Service runs the aggregation pipeline for one configuration.
type Service struct {
	cfg    *config.Config
	runID  string
	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock injects the time source stamped into the artifact metadata.
// Fixing the clock makes a run reproducible byte for byte.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service for the given configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:   cfg,
		runID: uuid.NewString(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("pipeline")
	}
	return s
}

// Run executes the pipeline and returns the assembled artifact. Expected
// exclusions (malformed rows, invalid weights, thin cells) are counted in
// Diagnostics; contract violations and an unreadable source abort the run
// with no partial output.
func (s *Service) Run(ctx context.Context) (*model.RunOutput, Diagnostics, error) {
	start := time.Now()
	diag := Diagnostics{RunID: s.runID}

	out, err := s.run(ctx, &diag)
	diag.Duration = time.Since(start)
	metrics.ObserveRunDuration(diag.Duration.Seconds())
	if err != nil {
		metrics.RecordRunFailed()
		return nil, diag, err
	}

	s.logger.Info(ctx, "run complete",
		logger.String("run_id", diag.RunID),
		logger.Int("rows_read", diag.RowsRead),
		logger.Int("rows_malformed", diag.RowsMalformed),
		logger.Int("screened_out", diag.ScreenedOut),
		logger.Int("rows_dropped", diag.Drops.Total()),
		logger.Int("cells_emitted", diag.CellsEmitted),
		logger.String("duration", diag.Duration.String()),
	)
	return out, diag, nil
}

func (s *Service) run(ctx context.Context, diag *Diagnostics) (*model.RunOutput, error) {
	// Reject out-of-bounds parameters before any work starts; a zero worker
	// count would stall the summarize stage instead of failing.
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	filter := s.buildFilter()
	reader := extract.New(
		extract.WithIncomeVariable(s.cfg.IncomeVariable),
		extract.WithWeightVariable(s.cfg.WeightVariable),
	)

	layout, err := reader.Describe(ctx, s.cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("describing extract: %w", err)
	}
	if layout.UsedLegacyWeight {
		s.logger.Warn(ctx, "weight column not found; using legacy WTSUPP naming",
			logger.String("wanted", s.cfg.WeightVariable))
	}
	if !layout.HasEmployment && filter.Codes() != nil {
		// Without the status column every record would fail the screen
		// and the output would be empty, which helps nobody. Match the
		// published fallback: proceed unscreened, loudly.
		s.logger.Warn(ctx, "extract has no employment status column; disabling worker screen")
		filter = screen.New(screen.WithAll())
	}

	index := grouping.New(
		grouping.WithAgeRange(s.cfg.AgeMin, s.cfg.AgeMax),
		grouping.WithZeroIncome(s.cfg.IncludeZeroIncome),
	)

	stats, err := reader.Read(ctx, s.cfg.InputPath, func(rec model.Record) {
		if !filter.Include(rec) {
			diag.ScreenedOut++
			return
		}
		index.Add(rec)
	})
	if err != nil {
		return nil, fmt.Errorf("reading extract: %w", err)
	}

	diag.RowsRead = stats.RowsRead
	diag.RowsMalformed = stats.RowsMalformed
	diag.Drops = index.Drops()
	diag.BucketsBuilt = index.Len()

	metrics.AddRecordsRead(stats.RowsRead)
	metrics.AddRowsDropped("malformed", stats.RowsMalformed)
	metrics.AddRowsDropped("screened", diag.ScreenedOut)
	metrics.AddRowsDropped("invalid_weight", diag.Drops.InvalidWeight)
	metrics.AddRowsDropped("income_sentinel", diag.Drops.IncomeSentinel)
	metrics.AddRowsDropped("income_excluded", diag.Drops.IncomeExcluded)
	metrics.AddRowsDropped("age_out_of_range", diag.Drops.AgeOutOfRange)

	cells, thin, err := s.summarize(ctx, index)
	if err != nil {
		return nil, err
	}
	diag.BucketsThin = thin
	diag.CellsEmitted = len(cells)

	params := summary.Params{
		IncomeVariable: s.cfg.IncomeVariable,
		WeightVariable: s.cfg.WeightVariable,
		Population:     filter.Describe(),
		IncludeZero:    s.cfg.IncludeZeroIncome,
		Ranks:          s.cfg.Percentiles,
		YearOffset:     incomeYearOffset,
	}
	return summary.Assemble(cells, params, s.now()), nil
}

func (s *Service) buildFilter() *screen.Filter {
	if s.cfg.NoWorkerScreen {
		return screen.New(screen.WithAll())
	}
	if len(s.cfg.ScreenCodes) > 0 {
		return screen.New(screen.WithCodes(s.cfg.ScreenCodes...))
	}
	return screen.New()
}

// summarize computes a BucketSummary per bucket with bounded parallelism.
// Bucket keys are disjoint, so tasks write into distinct slots of a results
// slice and no lock is needed; the merge afterwards is a plain insert per
// key. Keys are walked in sorted order so any failure is reported
// deterministically.
func (s *Service) summarize(ctx context.Context, index *grouping.Index) (map[model.BucketKey]model.BucketSummary, int, error) {
	buckets := index.Buckets()

	keys := make([]model.BucketKey, 0, len(buckets))
	thin := 0
	for key, pairs := range buckets {
		metrics.AddRecordsGrouped(len(pairs))
		if len(pairs) < s.cfg.MinCellSize {
			thin++
			metrics.RecordBucketOmitted("thin")
			continue
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		return keys[i].Age < keys[j].Age
	})

	metrics.SetWorkerCount(s.cfg.WorkerCount)

	results := make([]model.BucketSummary, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.WorkerCount)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			began := time.Now()
			cell, err := summary.Build(buckets[key], s.cfg.Percentiles)
			if err != nil {
				return fmt.Errorf("bucket year=%d age=%d: %w", key.Year, key.Age, err)
			}
			metrics.ObserveBucketCompute(time.Since(began).Seconds())
			metrics.RecordBucketComputed()
			results[i] = cell
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, thin, err
	}

	cells := make(map[model.BucketKey]model.BucketSummary, len(keys))
	for i, key := range keys {
		cells[key] = results[i]
	}
	return cells, thin, nil
}
