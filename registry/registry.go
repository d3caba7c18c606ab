// Package registry loads classifier bundles from a model directory and
// swaps them atomically when the files on disk change.
package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"pulsewatch/ml"
	"pulsewatch/msrf"
)

const (
	paramsFileName = "hmm_params.json"
	reloadDebounce = 500 * time.Millisecond
)

// ErrNoModel is returned by Current before the first successful load.
var ErrNoModel = errors.New("no model loaded")

// Bundle is one loaded model generation.
type Bundle struct {
	Classifier *msrf.Classifier
	Dir        string
	LoadedAt   time.Time
}

// Load reads hmm_params.json plus expert_0.json through
// expert_{n-1}.json from dir and assembles a classifier.
func Load(dir string) (*Bundle, error) {
	params, err := msrf.LoadParams(filepath.Join(dir, paramsFileName))
	if err != nil {
		return nil, err
	}

	experts := make([]msrf.Expert, 0, params.NStates)
	for k := 0; k < params.NStates; k++ {
		path := filepath.Join(dir, fmt.Sprintf("expert_%d.json", k))
		model, err := ml.LoadModelFile(path)
		if err != nil {
			return nil, fmt.Errorf("load expert %d: %w", k, err)
		}
		experts = append(experts, msrf.ExpertFunc(model.PredictSingle))
	}

	classifier, err := msrf.NewClassifier(params, experts)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Classifier: classifier,
		Dir:        dir,
		LoadedAt:   time.Now(),
	}, nil
}

// Registry holds the current bundle and reloads it on demand.
type Registry struct {
	mu       sync.RWMutex
	dir      string
	current  *Bundle
	onReload func(*Bundle)
	logger   *zap.Logger
}

// New creates a registry for dir. Call Reload to load the first bundle.
func New(dir string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{dir: dir, logger: logger}
}

// OnReload registers a callback invoked after every successful load.
func (r *Registry) OnReload(fn func(*Bundle)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReload = fn
}

// Current returns the active bundle, or ErrNoModel before the first
// successful load.
func (r *Registry) Current() (*Bundle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.current == nil {
		return nil, ErrNoModel
	}
	return r.current, nil
}

// Reload loads a fresh bundle from the model directory. On failure the
// previous bundle stays active.
func (r *Registry) Reload() error {
	bundle, err := Load(r.dir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.current = bundle
	fn := r.onReload
	r.mu.Unlock()

	r.logger.Info("model loaded",
		zap.String("dir", bundle.Dir),
		zap.Int("n_states", bundle.Classifier.NStates()),
		zap.String("mode", bundle.Classifier.Mode()),
		zap.Int("n_features", bundle.Classifier.NFeatures()))

	if fn != nil {
		fn(bundle)
	}
	return nil
}

// Watch reloads the bundle whenever files in the model directory
// change. Events are debounced so a multi-file export triggers one
// reload. The watcher stops when ctx is cancelled.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}

	go func() {
		defer watcher.Close()

		var pending <-chan time.Time
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				r.logger.Debug("model directory changed",
					zap.String("file", event.Name), zap.String("op", event.Op.String()))
				pending = time.After(reloadDebounce)

			case <-pending:
				pending = nil
				if err := r.Reload(); err != nil {
					r.logger.Error("model reload failed, keeping previous model", zap.Error(err))
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn("model watcher error", zap.Error(err))

			case <-ctx.Done():
				return
			}
		}
	}()

	r.logger.Info("watching model directory", zap.String("dir", r.dir))
	return nil
}
