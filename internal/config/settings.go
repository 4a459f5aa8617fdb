package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/hray3182/catcare/internal/notify"
)

const reloadDebounce = 250 * time.Millisecond

// SettingsStore keeps the notification settings in a YAML file. The file is
// read once at start, rewritten on every Update and re-read when edited
// by hand.
type SettingsStore struct {
	path string
	log  zerolog.Logger

	mu      sync.RWMutex
	current notify.Settings
	subs    []chan notify.Settings
}

func NewSettingsStore(path string, log zerolog.Logger) *SettingsStore {
	return &SettingsStore{
		path:    path,
		log:     log,
		current: notify.DefaultSettings(),
	}
}

// Load reads the settings file. A missing file leaves the defaults in place
// and writes them out so the user has something to edit.
func (s *SettingsStore) Load() (notify.Settings, error) {
	settings, err := s.parse()
	if errors.Is(err, os.ErrNotExist) {
		def := notify.DefaultSettings()
		if err := s.write(def); err != nil {
			return def, err
		}
		s.set(def)
		return def, nil
	}
	if err != nil {
		return s.Current(), err
	}
	s.set(settings)
	return settings, nil
}

func (s *SettingsStore) parse() (notify.Settings, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return notify.Settings{}, err
	}
	settings := notify.DefaultSettings()
	if err := yaml.Unmarshal(b, &settings); err != nil {
		return notify.Settings{}, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return settings, nil
}

// Current returns a copy of the active settings.
func (s *SettingsStore) Current() notify.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update persists settings and publishes them to subscribers.
func (s *SettingsStore) Update(settings notify.Settings) error {
	if err := s.write(settings); err != nil {
		return err
	}
	s.set(settings)
	return nil
}

func (s *SettingsStore) write(settings notify.Settings) error {
	b, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

func (s *SettingsStore) set(settings notify.Settings) {
	s.mu.Lock()
	s.current = settings
	subs := append([]chan notify.Settings(nil), s.subs...)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- settings:
		default:
			// Subscriber is behind; it will still read Current() when it catches up.
		}
	}
}

// Subscribe returns a channel that receives every committed settings value.
func (s *SettingsStore) Subscribe() <-chan notify.Settings {
	ch := make(chan notify.Settings, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// Watch reloads the file whenever it changes on disk until ctx is done.
func (s *SettingsStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(s.path)
	file := filepath.Base(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	var (
		tmu   sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		settings, err := s.parse()
		if err != nil {
			s.log.Warn().Err(err).Str("path", s.path).Msg("settings reload failed, keeping previous values")
			return
		}
		if settings == s.Current() {
			return
		}
		s.set(settings)
		s.log.Info().Str("path", s.path).Msg("notification settings reloaded")
	}

	for {
		select {
		case <-ctx.Done():
			tmu.Lock()
			if timer != nil {
				timer.Stop()
			}
			tmu.Unlock()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Editors and our own atomic rename emit bursts of events.
			tmu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, reload)
			tmu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Str("dir", dir).Msg("settings watch error")
		}
	}
}
