package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/trailstone/osgraph/internal/core/domain"
	"github.com/trailstone/osgraph/internal/core/ports/driven"
	"github.com/trailstone/osgraph/internal/logger"
)

// Ensure SearcherConfigStore implements the interface.
var _ driven.SearcherConfigStore = (*SearcherConfigStore)(nil)

// configFile is the on-disk TOML shape: one [searchers.<id>] table per
// searcher.
type configFile struct {
	Searchers map[string]domain.SearcherConfig `toml:"searchers"`
}

// SearcherConfigStore is a TOML-backed implementation of
// driven.SearcherConfigStore. It answers lookups from an in-memory
// snapshot and rereads the file when the watcher reports a change, so
// enabling a searcher does not need a restart.
type SearcherConfigStore struct {
	mu       sync.RWMutex
	filePath string
	configs  map[string]domain.SearcherConfig

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSearcherConfigStore creates a config store reading from the given
// TOML file. If path is empty, defaults to ~/.osgraph/searchers.toml.
func NewSearcherConfigStore(path string) (*SearcherConfigStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".osgraph", "searchers.toml")
	}

	s := &SearcherConfigStore{
		filePath: path,
		configs:  make(map[string]domain.SearcherConfig),
		done:     make(chan struct{}),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Watch starts reloading the file on change. Safe to skip in tests.
func (s *SearcherConfigStore) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	// Watch the directory, not the file: editors that write via
	// rename-and-replace would otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching config directory: %w", err)
	}

	s.watcher = watcher
	go s.watchLoop()
	return nil
}

// Close stops the watcher, if one was started.
func (s *SearcherConfigStore) Close() error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Path returns the config file path.
func (s *SearcherConfigStore) Path() string {
	return s.filePath
}

// Lookup returns the configuration for a searcher id.
func (s *SearcherConfigStore) Lookup(id string) (domain.SearcherConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[id]
	return cfg, ok
}

// Enabled returns all enabled searchers sorted by id.
func (s *SearcherConfigStore) Enabled() []domain.Searcher {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchers := make([]domain.Searcher, 0, len(s.configs))
	for _, cfg := range s.configs {
		if cfg.Enabled {
			searchers = append(searchers, cfg.Searcher)
		}
	}
	sort.Slice(searchers, func(i, j int) bool {
		return searchers[i].ID < searchers[j].ID
	})
	return searchers
}

// load parses the config file into the in-memory snapshot. A missing
// file is an empty configuration, not an error.
func (s *SearcherConfigStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	var cfg configFile
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	configs := make(map[string]domain.SearcherConfig, len(cfg.Searchers))
	for id, sc := range cfg.Searchers {
		// The table key is authoritative for the id.
		sc.ID = id
		configs[id] = sc
	}

	s.mu.Lock()
	s.configs = configs
	s.mu.Unlock()
	return nil
}

func (s *SearcherConfigStore) watchLoop() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name != s.filePath {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if err := s.load(); err != nil {
				// Keep serving the previous snapshot on a bad edit.
				logger.Warn("config reload failed: %v", err)
				continue
			}
			logger.Info("searcher config reloaded from %s", s.filePath)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error: %v", err)
		}
	}
}
