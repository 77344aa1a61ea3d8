package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/kylelemons/godebug/pretty"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	goutils "go.viam.com/utils"

	"go.viam.com/bodypaint/logging"
)

// Read reads a config from the given file, on top of the defaults.
func Read(filePath string) (*Config, error) {
	//nolint:gosec
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	cfg, err := FromReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %s", filePath)
	}
	return cfg, nil
}

// FromReader decodes a JSON5 config from r on top of the defaults and validates it. Comments and
// trailing commas are allowed; unknown fields are rejected.
func FromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	var attrs map[string]interface{}
	if err := json5.Unmarshal(data, &attrs); err != nil {
		return nil, errors.Wrap(err, "failed to decode config from json")
	}
	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrap(err, "failed to decode config attributes")
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	return cfg, nil
}

// reloadDebounce is how long the watched file must stay quiet before it is reread. Editors often write
// a file in several steps.
const reloadDebounce = 50 * time.Millisecond

// reloader decides what to do with a change to the watched file.
type reloader struct {
	mu       sync.Mutex
	path     string
	current  *Config
	logger   logging.Logger
	onChange func(*Config)
}

func (rl *reloader) relevant(event fsnotify.Event) bool {
	return filepath.Clean(event.Name) == rl.path && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create))
}

func (rl *reloader) reload() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	next, err := Read(rl.path)
	if err != nil {
		rl.logger.Warnw("ignoring invalid config reload", "path", rl.path, "error", err)
		return
	}
	if err := rl.current.CheckReload(next); err != nil {
		rl.logger.Warnw("rejecting config reload", "path", rl.path, "error", err)
		return
	}
	if *next == *rl.current {
		return
	}
	rl.logger.Infow("config reloaded", "path", rl.path, "diff", pretty.Compare(rl.current, next))
	rl.current = next
	rl.onChange(next.Copy())
}

// Watch calls onChange with every valid new version of the file at path until ctx is done. Bursts of
// writes are coalesced into one reload.
// Invalid files and resolution changes relative to current are logged and skipped.
// The directory is watched rather than the file so that editors that replace the file on
// save are followed.
func Watch(ctx context.Context, path string, current *Config, logger logging.Logger, onChange func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "cannot create config watcher")
	}
	defer goutils.UncheckedErrorFunc(watcher.Close)
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "cannot watch %s", path)
	}

	rl := &reloader{path: abs, current: current.Copy(), logger: logger, onChange: onChange}
	debounced := debounce.New(reloadDebounce)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if rl.relevant(event) {
				debounced(func() {
					if ctx.Err() == nil {
						rl.reload()
					}
				})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("config watcher error", "error", err)
		}
	}
}
