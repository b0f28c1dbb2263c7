package config

import (
	"path/filepath"
	"sync"

	"portsync/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watcher reloads the config file on change and notifies subscribers.
// Only hot-reloadable settings (log level, scheduler interval) should be
// consumed from reload events; structural settings require a restart.
type Watcher struct {
	path string

	mu       sync.Mutex
	onChange []func(*Config)
	viper    *viper.Viper
}

// NewWatcher builds a watcher for the given config path. Watch begins once
// Start is called.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Watcher{path: abs}, nil
}

// OnChange registers a callback invoked with the freshly parsed config after
// each successful reload. Callbacks run on the fsnotify goroutine and must
// not block.
func (w *Watcher) OnChange(fn func(*Config)) {
	if w == nil || fn == nil {
		return
	}
	w.mu.Lock()
	w.onChange = append(w.onChange, fn)
	w.mu.Unlock()
}

// Start begins watching the config file. Reload failures keep the previous
// configuration and are logged.
func (w *Watcher) Start() error {
	v := viper.New()
	v.SetConfigFile(w.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	w.mu.Lock()
	w.viper = v
	w.mu.Unlock()

	v.OnConfigChange(func(evt fsnotify.Event) {
		if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			logger.Warnf("config reload failed, keeping previous config: %v", err)
			return
		}
		logger.Infof("config reloaded from %s", w.path)
		w.mu.Lock()
		callbacks := make([]func(*Config), len(w.onChange))
		copy(callbacks, w.onChange)
		w.mu.Unlock()
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	v.WatchConfig()
	return nil
}
