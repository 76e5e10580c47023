package comparison

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"PredictLens/internal/model"
)

// Source declares one model's results file.
type Source struct {
	Name    string
	Path    string
	Mapping ColumnMapping
}

// Report is the output of one comparison run.
type Report struct {
	Merged   *model.MergedTable    `json:"merged"`
	Metrics  []model.MetricSummary `json:"metrics"`
	Warnings []Warning             `json:"warnings"`
}

// Service runs the comparison pipeline: load, normalize, align, aggregate.
type Service struct {
	normalizer *Normalizer
	aligner    *Aligner
	logger     *zap.Logger
}

// NewService creates a comparison Service.
func NewService(policy MatchPolicy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		normalizer: NewNormalizer(policy, logger),
		aligner:    NewAligner(logger),
		logger:     logger,
	}
}

// loadConcurrency bounds how many result files are read at once.
const loadConcurrency = 4

// Run loads every source from disk and compares them. The first source is the
// reference. A missing or malformed file aborts the run and loads that have not
// started yet are skipped.
func (s *Service) Run(sources []Source) (*Report, error) {
	raws := make([]model.RawTable, len(sources))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(loadConcurrency)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := LoadFile(src.Path)
			if err != nil {
				return fmt.Errorf("load %s: %w", src.Name, err)
			}
			raws[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s.Compare(sources, raws)
}

// Compare normalizes already-loaded raw tables, one per source, and merges them.
func (s *Service) Compare(sources []Source, raws []model.RawTable) (*Report, error) {
	if len(sources) != len(raws) {
		return nil, fmt.Errorf("compare: %d sources but %d tables", len(sources), len(raws))
	}

	report := &Report{}
	tables := make([]*model.SourceTable, len(sources))
	names := make([]string, len(sources))
	for i, src := range sources {
		table, warnings, err := s.normalizer.Normalize(raws[i], src.Name, src.Mapping)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", src.Name, err)
		}
		tables[i] = table
		names[i] = src.Name
		report.Warnings = append(report.Warnings, warnings...)
		if !table.HasKind(model.KindPredicted) {
			report.Warnings = append(report.Warnings, Warning{Source: src.Name, Message: "no predicted column detected"})
		}
	}

	merged, warnings, err := s.aligner.Align(tables)
	if err != nil {
		return nil, fmt.Errorf("align: %w", err)
	}
	report.Merged = merged
	report.Warnings = append(report.Warnings, warnings...)
	report.Metrics = Aggregate(merged, names)

	s.logger.Info("comparison complete",
		zap.Int("sources", len(sources)),
		zap.Int("rows", len(merged.Rows)),
		zap.Int("warnings", len(report.Warnings)))
	return report, nil
}
