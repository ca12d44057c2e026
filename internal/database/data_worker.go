package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"neron/internal/graph"
	"neron/internal/logger"
	"neron/internal/output"
	"neron/internal/theme"
)

const defaultPollInterval = 20 * time.Second

// DataWorker keeps a dataset in sync with its source: Load -> Transform ->
// Check, then hands changed payloads to OnUpdate and optionally mirrors them
// into a second store.
type DataWorker struct {
	loader   Loader
	themes   *theme.Store
	mirror   Importer
	onUpdate func(*output.PipelinePayload)
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	last    *graph.Dataset
	wg      sync.WaitGroup
}

// WorkerOption configures a DataWorker.
type WorkerOption func(*DataWorker)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) WorkerOption {
	return func(w *DataWorker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithMirror copies every changed dataset into another store.
func WithMirror(m Importer) WorkerOption {
	return func(w *DataWorker) { w.mirror = m }
}

// WithLogger sets the worker's logger.
func WithLogger(l *logger.Logger) WorkerOption {
	return func(w *DataWorker) { w.log = l.With("component", "worker") }
}

// NewDataWorker creates a new worker instance.
func NewDataWorker(loader Loader, themes *theme.Store, onUpdate func(*output.PipelinePayload), opts ...WorkerOption) (*DataWorker, error) {
	if loader == nil || onUpdate == nil {
		return nil, errors.New("loader and update callback are required")
	}
	w := &DataWorker{
		loader:   loader,
		themes:   themes,
		onUpdate: onUpdate,
		interval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins the periodic reload loop.
func (w *DataWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("worker already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	w.mu.Unlock()

	go w.loop(ctx)
	return nil
}

// Stop gracefully stops the worker.
func (w *DataWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.running = false
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

// Prime records ds as the dataset the consumer already holds, so a reload
// that finds the same data does not report it again.
func (w *DataWorker) Prime(ds graph.Dataset) {
	w.mu.Lock()
	w.last = &ds
	w.mu.Unlock()
}

// PullOnce executes a single reload cycle immediately. It reports whether the
// dataset changed.
func (w *DataWorker) PullOnce(ctx context.Context) (bool, error) {
	return w.execute(ctx)
}

func (w *DataWorker) loop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.execute(ctx); err != nil {
				w.log.Warn("dataset reload failed", "err", err)
			}
		}
	}
}

func (w *DataWorker) currentTheme() theme.Theme {
	if w.themes == nil {
		return theme.MustGet(theme.Default)
	}
	return w.themes.Current()
}

func (w *DataWorker) execute(ctx context.Context) (bool, error) {
	payload, err := output.RunPipeline(ctx, w.loader, w.currentTheme())
	if err != nil {
		return false, fmt.Errorf("pipeline execution failed: %w", err)
	}

	w.mu.Lock()
	unchanged := w.last != nil && reflect.DeepEqual(*w.last, payload.Dataset)
	if !unchanged {
		ds := payload.Dataset
		w.last = &ds
	}
	w.mu.Unlock()
	if unchanged {
		return false, nil
	}

	w.log.Info("dataset changed", "entities", payload.Summary.Entities, "relations", payload.Summary.Relations)
	w.onUpdate(payload)

	if w.mirror != nil {
		res, err := w.mirror.Import(ctx, payload.Dataset)
		if err != nil {
			return true, fmt.Errorf("mirror dataset: %w", err)
		}
		w.log.Debug("dataset mirrored", "entities", res.Entities, "relations", res.Relations, "skipped", res.Skipped)
	}
	return true, nil
}
