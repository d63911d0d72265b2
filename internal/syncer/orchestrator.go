package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dialboard/backend/internal/alerts"
	"github.com/dialboard/backend/internal/cache"
	"github.com/dialboard/backend/internal/ingestion"
	"github.com/dialboard/backend/internal/kpi"
	"github.com/dialboard/backend/internal/metrics"
	"github.com/dialboard/backend/internal/normalize"
	"github.com/dialboard/backend/internal/quality"
	"github.com/dialboard/backend/internal/source"
	"github.com/dialboard/backend/internal/types"
	"github.com/dialboard/backend/internal/websocket"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrSyncInProgress is returned when a sync is requested while one is running
var ErrSyncInProgress = errors.New("sync already in progress")

// Cache keys written by the orchestrator after each successful run
const (
	KeySnapshot  = "dashboard:snapshot"
	KeyOperators = "dashboard:operators"
	KeyAggregate = "dashboard:aggregate"
	KeyQuality   = "dashboard:quality"
)

// maxStoredErrors bounds the error history kept for the status endpoint
const maxStoredErrors = 10

// Status describes the orchestrator for the sync status endpoint
type Status struct {
	Running    bool       `json:"running"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	NextSyncAt *time.Time `json:"nextSyncAt,omitempty"`
	LastErrors []string   `json:"lastErrors,omitempty"`
}

// Orchestrator runs the fetch-normalize-compute-cache pipeline, either on
// demand or on a fixed schedule. A failed run leaves the previously cached
// results untouched so the dashboard keeps serving the last good data.
type Orchestrator struct {
	src          source.Source
	sourceID     string
	fetchTimeout time.Duration

	aliases normalize.AliasTable
	engine  *kpi.Engine
	auditor *quality.Auditor
	cache   *cache.TieredCache
	hub     *websocket.Hub
	ttl     time.Duration

	cron    *cron.Cron
	entryID cron.EntryID

	mu         sync.Mutex
	running    bool
	lastSyncAt time.Time
	lastErrors []string

	logger zerolog.Logger
}

// Options configures an Orchestrator
type Options struct {
	Source       source.Source
	SourceID     string
	FetchTimeout time.Duration
	Aliases      normalize.AliasTable
	Engine       *kpi.Engine
	Auditor      *quality.Auditor
	Cache        *cache.TieredCache
	Hub          *websocket.Hub
	TTL          time.Duration
	Logger       zerolog.Logger
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(opts Options) *Orchestrator {
	return &Orchestrator{
		src:          opts.Source,
		sourceID:     opts.SourceID,
		fetchTimeout: opts.FetchTimeout,
		aliases:      opts.Aliases,
		engine:       opts.Engine,
		auditor:      opts.Auditor,
		cache:        opts.Cache,
		hub:          opts.Hub,
		ttl:          opts.TTL,
		logger:       opts.Logger.With().Str("component", "syncer").Logger(),
	}
}

// SyncNow runs one full sync. Concurrent calls are rejected with
// ErrSyncInProgress rather than queued.
func (o *Orchestrator) SyncNow(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return ErrSyncInProgress
	}
	o.running = true
	o.mu.Unlock()

	start := time.Now()
	err := o.run(ctx)

	o.mu.Lock()
	o.running = false
	o.lastSyncAt = time.Now()
	if err != nil {
		o.lastErrors = append(o.lastErrors, err.Error())
		if len(o.lastErrors) > maxStoredErrors {
			o.lastErrors = o.lastErrors[len(o.lastErrors)-maxStoredErrors:]
		}
	}
	o.mu.Unlock()

	metrics.Get().RecordSyncRun(time.Since(start), err != nil)

	if err != nil {
		o.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("sync failed, keeping previous results")
		return err
	}
	o.logger.Info().Dur("duration", time.Since(start)).Msg("sync completed")
	return nil
}

// run executes the pipeline against the upstream source
func (o *Orchestrator) run(ctx context.Context) error {
	if err := o.src.Ping(ctx); err != nil {
		return fmt.Errorf("source unreachable: %w", err)
	}

	rows, err := source.FetchRows(ctx, o.src, o.sourceID, o.fetchTimeout)
	if err != nil {
		return fmt.Errorf("fetch rows: %w", err)
	}
	if len(rows) == 0 {
		return errors.New("source returned no rows")
	}

	return o.process(rows)
}

// ProcessRows runs the pipeline over externally supplied rows, first row
// included as headers. Used by the row push endpoint.
func (o *Orchestrator) ProcessRows(rows []types.RawRow) error {
	if len(rows) == 0 {
		return errors.New("no rows supplied")
	}
	return o.process(rows)
}

func (o *Orchestrator) process(rows []types.RawRow) error {
	cm := ingestion.BuildColumnMap(rows[0])
	if !cm.HasRequired() {
		return errors.New("header row is missing required columns")
	}
	data := rows[1:]

	normalizer := normalize.NewNormalizer(o.aliases)
	builder := ingestion.NewBuilder(normalizer, o.logger)
	records := builder.BuildAll(data, cm)
	metrics.Get().RecordRowsProcessed(len(records), len(data)-len(records))

	report := o.auditor.Audit(data, cm)

	operators := o.engine.ComputePerOperator(records)
	alerts.CheckOperatorAlerts(operators)
	aggregate := o.engine.ComputeAggregate(records)
	metrics.Get().UpdateOperatorStats(operators)

	snapshot := types.Snapshot{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Operators: operators,
		Aggregate: aggregate,
		Quality:   &report,
	}

	o.cache.Set(KeySnapshot, snapshot, o.ttl, cache.PriorityHigh)
	o.cache.Set(KeyOperators, operators, o.ttl, cache.PriorityMedium)
	o.cache.Set(KeyAggregate, aggregate, o.ttl, cache.PriorityMedium)
	o.cache.Set(KeyQuality, report, o.ttl, cache.PriorityLow)

	o.broadcast(snapshot)

	o.logger.Info().
		Int("rows", len(data)).
		Int("records", len(records)).
		Int("operators", len(operators)).
		Float64("quality_score", report.QualityScore).
		Msg("pipeline run processed")
	return nil
}

func (o *Orchestrator) broadcast(snapshot types.Snapshot) {
	if o.hub == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		o.logger.Error().Err(err).Msg("failed to marshal snapshot")
		return
	}
	o.hub.Broadcast(data)
}

// StartAutoSync schedules a sync every intervalMinutes. Ticks that land
// while a run is still in progress are skipped by the SyncNow guard.
func (o *Orchestrator) StartAutoSync(intervalMinutes int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cron != nil {
		return errors.New("auto sync already started")
	}

	c := cron.New()
	id, err := c.AddFunc(fmt.Sprintf("@every %dm", intervalMinutes), func() {
		if err := o.SyncNow(context.Background()); err != nil && !errors.Is(err, ErrSyncInProgress) {
			o.logger.Warn().Err(err).Msg("scheduled sync failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sync: %w", err)
	}

	o.cron = c
	o.entryID = id
	c.Start()

	o.logger.Info().Int("interval_minutes", intervalMinutes).Msg("auto sync started")
	return nil
}

// StopAutoSync stops the schedule, waiting for an in-flight run to finish
func (o *Orchestrator) StopAutoSync() {
	o.mu.Lock()
	c := o.cron
	o.cron = nil
	o.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
		o.logger.Info().Msg("auto sync stopped")
	}
}

// Status returns the current sync status
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := Status{
		Running:    o.running,
		LastErrors: append([]string(nil), o.lastErrors...),
	}
	if !o.lastSyncAt.IsZero() {
		t := o.lastSyncAt
		st.LastSyncAt = &t
	}
	if o.cron != nil {
		next := o.cron.Entry(o.entryID).Next
		if !next.IsZero() {
			st.NextSyncAt = &next
		}
	}
	return st
}
