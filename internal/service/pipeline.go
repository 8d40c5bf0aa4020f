// Package service sequences one ETL run: fetch, mask, ensure table, load.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/login-etl/internal/errs"
	"github.com/and161185/login-etl/internal/mask"
	"github.com/and161185/login-etl/internal/model"
	"github.com/and161185/login-etl/internal/repository"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// Stage names carried by errs.StageError.
const (
	StageContainers = "containers"
	StageFetch      = "fetch"
	StageMask       = "mask"
	StageSchema     = "ensure_table"
	StageLoad       = "load"
)

var errAlreadyRun = errors.New("pipeline already ran")

// Fetcher supplies one batch of raw login events per call. Ack removes a batch
// from its source and is only called after the batch is committed.
type Fetcher interface {
	FetchBatch(ctx context.Context) (model.Batch, error)
	Ack(ctx context.Context, b model.Batch) error
}

// Pipeline runs once. It takes ownership of repo and closes it when Run returns.
type Pipeline struct {
	fetcher Fetcher
	repo    repository.LoginRepository
	log     *zap.Logger
	runID   uuid.UUID
	now     func() time.Time

	state State
	rows  int
}

// NewPipeline constructs a Pipeline in StateInit with a fresh run ID.
func NewPipeline(fetcher Fetcher, repo repository.LoginRepository, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.Must(uuid.NewV4())
	return &Pipeline{
		fetcher: fetcher,
		repo:    repo,
		log:     log.With(zap.String("run_id", id.String())),
		runID:   id,
		now:     time.Now,
		state:   StateInit,
	}
}

// State returns the current state; after Run it is StateDone or StateFailed.
func (p *Pipeline) State() State { return p.state }

// RunID identifies this run in logs.
func (p *Pipeline) RunID() uuid.UUID { return p.runID }

// Rows returns the number of rows committed by Load.
func (p *Pipeline) Rows() int { return p.rows }

// Run drives the state machine to DONE, or to FAILED returning *errs.StageError.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	if p.state != StateInit {
		return errAlreadyRun
	}
	start := p.now()
	p.log.Info("pipeline started")

	if p.repo != nil {
		defer func() {
			if cerr := p.repo.Close(context.WithoutCancel(ctx)); cerr != nil {
				p.log.Warn("close database", zap.Error(cerr))
			}
		}()
	}
	defer func() {
		if err != nil {
			p.log.Error("pipeline failed",
				zap.Stringer("state", p.state),
				zap.Duration("elapsed", p.now().Sub(start)),
				zap.Error(err),
			)
			return
		}
		p.log.Info("pipeline done",
			zap.Int("rows", p.rows),
			zap.Duration("elapsed", p.now().Sub(start)),
		)
	}()

	t := p.now()
	if p.fetcher == nil || p.repo == nil {
		return p.fail(StageContainers, errs.ErrMissingHandle)
	}
	p.advance(StateContainersReady, t)

	t = p.now()
	batch, err := p.fetcher.FetchBatch(ctx)
	if err != nil {
		return p.fail(StageFetch, err)
	}
	p.advance(StateFetched, t, zap.Int("events", len(batch.Events)))

	t = p.now()
	records, err := mask.Records(batch.Events, batch.CreateDate)
	if err != nil {
		return p.fail(StageMask, err)
	}
	p.advance(StateMasked, t, zap.Int("records", len(records)))

	t = p.now()
	if err := p.repo.EnsureTable(ctx); err != nil {
		return p.fail(StageSchema, err)
	}
	p.advance(StateTableReady, t)

	t = p.now()
	if err := p.repo.Load(ctx, records); err != nil {
		return p.fail(StageLoad, err)
	}
	p.rows = len(records)
	p.advance(StateLoaded, t, zap.Int("rows", p.rows))

	// Rows are committed; an unacknowledged batch is redelivered and loaded again.
	if err := p.fetcher.Ack(ctx, batch); err != nil {
		p.log.Warn("ack batch", zap.Int("messages", len(batch.Receipts)), zap.Error(err))
	}

	p.advance(StateDone, p.now())
	return nil
}

func (p *Pipeline) advance(to State, since time.Time, fields ...zap.Field) {
	from := p.state
	p.state = to
	p.log.Info("transition", append([]zap.Field{
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Duration("took", p.now().Sub(since)),
	}, fields...)...)
}

func (p *Pipeline) fail(stage string, err error) error {
	p.log.Info("transition",
		zap.Stringer("from", p.state),
		zap.Stringer("to", StateFailed),
		zap.String("stage", stage),
	)
	p.state = StateFailed
	return &errs.StageError{Stage: stage, Err: err}
}
