package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keshon/datastore"

	"github.com/keshon/textcmd/pkg/cmd"
)

const (
	defaultHistoryLimit = 20
	saveInterval        = 30 * time.Second

	settingsKey = "settings"
	guildPrefix = "guild:"
	directKey   = "guild:@direct"
)

var ErrNoSettings = errors.New("no persisted settings")

// Storage persists the runtime settings snapshot and a bounded per-guild
// command history in a JSON file. Writes reach the file on the next autosave
// and on Close.
type Storage struct {
	ds           *datastore.DataStore
	stop         context.CancelFunc
	mu           sync.Mutex
	historyLimit int
}

// Record is what is stored per guild. Direct messages share one record.
type Record struct {
	CommandsHistoryList []CommandHistoryRecord `json:"cmd_history"`
}

func New(filePath string, historyLimit int) (*Storage, error) {
	ctx, stop := context.WithCancel(context.Background())
	ds, err := datastore.New(ctx, filePath, datastore.WithSaveInterval(saveInterval))
	if err != nil {
		stop()
		return nil, fmt.Errorf("open datastore %s: %w", filePath, err)
	}
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &Storage{ds: ds, stop: stop, historyLimit: historyLimit}, nil
}

// Close stops the autosave loop and writes the file one last time.
func (s *Storage) Close() error {
	s.stop()
	return s.ds.Close()
}

// LoadSettings returns the persisted settings snapshot, or ErrNoSettings when
// none was saved yet.
func (s *Storage) LoadSettings() (cmd.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap cmd.Snapshot
	exists, err := s.ds.Get(settingsKey, &snap)
	if err != nil {
		return cmd.Snapshot{}, fmt.Errorf("load settings: %w", err)
	}
	if !exists {
		return cmd.Snapshot{}, ErrNoSettings
	}
	return snap, nil
}

// SaveSettings stores snap. It is flushed to disk with the next autosave.
func (s *Storage) SaveSettings(snap cmd.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ds.Set(settingsKey, snap); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func guildKey(guildID string) string {
	if guildID == "" {
		return directKey
	}
	return guildPrefix + guildID
}

// guildRecord returns the stored record or an empty one. Must be called with
// s.mu held.
func (s *Storage) guildRecord(guildID string) (*Record, error) {
	key := guildKey(guildID)
	var record Record
	if _, err := s.ds.Get(key, &record); err != nil {
		return nil, fmt.Errorf("load guild record %s: %w", key, err)
	}
	if record.CommandsHistoryList == nil {
		record.CommandsHistoryList = []CommandHistoryRecord{}
	}
	return &record, nil
}
