package audit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/GoCodeAlone/capreg"
)

// AssemblyFunc receives the result of every re-assembly run by a watcher.
type AssemblyFunc func(set *capreg.AssembledModuleSet, err error)

// ManifestWatcher re-runs a task assembly whenever its manifest file changes,
// so operators see the module set a freshly verified (or revoked) manifest
// would receive.
type ManifestWatcher struct {
	registry   *capreg.ModuleRegistry
	config     *capreg.RuntimeConfig
	logger     capreg.Logger
	path       string
	properties capreg.TaskProperties
	onAssembly AssemblyFunc

	// mu serializes re-assemblies triggered by file events and schedules.
	mu sync.Mutex
}

// NewManifestWatcher creates a watcher for the manifest at path.
func NewManifestWatcher(reg *capreg.ModuleRegistry, cfg *capreg.RuntimeConfig, logger capreg.Logger, path string, props capreg.TaskProperties, fn AssemblyFunc) *ManifestWatcher {
	return &ManifestWatcher{
		registry:   reg,
		config:     cfg,
		logger:     logger,
		path:       path,
		properties: props,
		onAssembly: fn,
	}
}

// Assemble loads the manifest and runs one assembly.
func (w *ManifestWatcher) Assemble() (*capreg.AssembledModuleSet, error) {
	manifest, err := capreg.LoadManifest(w.path)
	if err != nil {
		return nil, err
	}
	return w.registry.Assemble(capreg.NewRuntimeContext(w.config, w.logger), capreg.NewTaskContext(w.properties, manifest))
}

// Run assembles once, then again after every write to the manifest, until
// ctx is done. The directory is watched rather than the file so editors that
// replace the file on save are followed.
func (w *ManifestWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	w.reassemble()
	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			w.logger.Debug("Manifest changed", "path", w.path, "op", event.Op.String())
			w.reassemble()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("Manifest watcher overflowed, reassembling", "path", w.path)
				w.reassemble()
				continue
			}
			w.logger.Error("Manifest watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *ManifestWatcher) reassemble() {
	w.mu.Lock()
	defer w.mu.Unlock()
	set, err := w.Assemble()
	if err != nil {
		w.logger.Error("Reassembly failed", "path", w.path, "error", err)
	}
	if w.onAssembly != nil {
		w.onAssembly(set, err)
	}
}
