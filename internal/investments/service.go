// Package investments ties ingestion, optimization and persistence together.
package investments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/investment-optimizer/internal/allocation"
	"github.com/iwvelando/investment-optimizer/internal/ingest"
	"github.com/iwvelando/investment-optimizer/internal/metrics"
	"github.com/iwvelando/investment-optimizer/internal/store"
	"github.com/iwvelando/investment-optimizer/pkg/constants"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrNoStore is returned by operations on stored results when the Service
// was built without a store.
var ErrNoStore = errors.New("no result store configured")

// ErrorKind classifies service errors for the transport layer.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindBadInput
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadInput:
		return "bad_input"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Kind reports how err should be surfaced to a client.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, allocation.ErrInvalidInput), ingest.IsInputError(err):
		return KindBadInput
	case errors.Is(err, store.ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// Options configures a Service.
type Options struct {
	// Store holds results. A nil Store gives a solve-only Service.
	Store               store.Store
	Logger              *zap.Logger
	Metrics             *metrics.Metrics
	Limits              allocation.Limits
	Ingest              ingest.Options
	MaxConcurrentSolves int
	// SolveTimeout bounds a single optimization; zero disables the bound.
	SolveTimeout time.Duration
}

// Service runs optimizations and manages their stored results.
type Service struct {
	store   store.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	limits  allocation.Limits
	ingest  ingest.Options
	timeout time.Duration
	sem     *semaphore.Weighted
}

// Submission is the outcome of Submit.
type Submission struct {
	Result *allocation.Result
	Record *store.Record
}

// NewService builds a Service from opts.
func NewService(opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := opts.MaxConcurrentSolves
	if concurrency <= 0 {
		concurrency = constants.DefaultMaxConcurrentSolves
	}

	return &Service{
		store:   opts.Store,
		logger:  logger,
		metrics: opts.Metrics,
		limits:  opts.Limits,
		ingest:  opts.Ingest,
		timeout: opts.SolveTimeout,
		sem:     semaphore.NewWeighted(int64(concurrency)),
	}, nil
}

// Submit parses the uploaded table, optimizes it and stores the result.
func (s *Service) Submit(ctx context.Context, fileName string, r io.Reader) (*Submission, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	logger := s.logger.With(zap.String("op", "investments.Submit"), zap.String("fileName", fileName))

	table, err := ingest.Read(fileName, r, s.ingest)
	if err != nil {
		if ingest.IsInputError(err) {
			s.metrics.ObserveSolve(metrics.OutcomeBadInput, 0)
		}
		logger.Warn("failed to read upload", zap.Error(err))
		return nil, err
	}

	result, err := s.Solve(ctx, table)
	if err != nil {
		return nil, err
	}

	record, err := s.Save(ctx, fileName, result)
	if err != nil {
		return nil, err
	}

	logger.Info("optimization stored",
		zap.String("id", record.ID.String()),
		zap.Float64("maxProfit", result.MaxProfit),
	)
	return &Submission{Result: result, Record: record}, nil
}

// Solve optimizes a parsed table. At most MaxConcurrentSolves calls run at
// once; the others wait or give up when ctx ends.
func (s *Service) Solve(ctx context.Context, table *ingest.Table) (*allocation.Result, error) {
	logger := s.logger.With(zap.String("op", "investments.Solve"))

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.metrics.ObserveSolve(metrics.OutcomeCancelled, 0)
		return nil, fmt.Errorf("waiting for a solver slot: %w", err)
	}
	defer s.sem.Release(1)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := allocation.OptimizeWithLimits(ctx, s.limits, table.Levels, table.Profits)
	elapsed := time.Since(start)
	if err != nil {
		outcome := solveOutcome(err)
		s.metrics.ObserveSolve(outcome, elapsed)
		if outcome == metrics.OutcomeBadInput {
			logger.Warn("rejected input", zap.Error(err))
		} else {
			logger.Error("optimization failed", zap.Error(err))
		}
		return nil, err
	}

	s.metrics.ObserveSolve(metrics.OutcomeSuccess, elapsed)
	logger.Debug("optimization finished",
		zap.Int("levels", len(table.Levels)),
		zap.Int("enterprises", len(result.Distribution)),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func solveOutcome(err error) string {
	switch {
	case errors.Is(err, allocation.ErrInvalidInput):
		return metrics.OutcomeBadInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCancelled
	default:
		return metrics.OutcomeError
	}
}

// Save stores result under fileName.
func (s *Service) Save(ctx context.Context, fileName string, result *allocation.Result) (*store.Record, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	record := store.NewRecord(fileName, result)
	if err := s.store.Create(ctx, record); err != nil {
		s.logger.Error("failed to save results",
			zap.String("op", "investments.Save"),
			zap.String("fileName", fileName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save results: %w", err)
	}
	return record, nil
}

// Update re-optimizes an uploaded table and replaces the stored result with
// the given id, keeping its id and creation time.
func (s *Service) Update(ctx context.Context, id uuid.UUID, fileName string, r io.Reader) (*Submission, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	logger := s.logger.With(
		zap.String("op", "investments.Update"),
		zap.String("id", id.String()),
		zap.String("fileName", fileName),
	)

	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	table, err := ingest.Read(fileName, r, s.ingest)
	if err != nil {
		if ingest.IsInputError(err) {
			s.metrics.ObserveSolve(metrics.OutcomeBadInput, 0)
		}
		logger.Warn("failed to read upload", zap.Error(err))
		return nil, err
	}

	result, err := s.Solve(ctx, table)
	if err != nil {
		return nil, err
	}

	record := store.NewRecord(fileName, result)
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	if err := s.store.Update(ctx, record); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Error("failed to update results", zap.Error(err))
			return nil, fmt.Errorf("failed to update results: %w", err)
		}
		return nil, err
	}

	logger.Info("optimization replaced", zap.Float64("maxProfit", result.MaxProfit))
	return &Submission{Result: result, Record: record}, nil
}

// Last returns the most recently stored result.
func (s *Service) Last(ctx context.Context) (*store.Record, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.Last(ctx)
}

// List returns every stored result, oldest first. The slice is never nil.
func (s *Service) List(ctx context.Context) ([]store.Record, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []store.Record{}
	}
	return records, nil
}

// Get returns the stored result with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*store.Record, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.Get(ctx, id)
}

// Delete removes the stored result with the given id.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if s.store == nil {
		return ErrNoStore
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("deleted stored result",
		zap.String("op", "investments.Delete"),
		zap.String("id", id.String()),
	)
	return nil
}
