package storage

import (
	"fmt"
	"time"
)

type CommandHistoryRecord struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Args      []string  `json:"args,omitempty"`
	Failed    bool      `json:"failed,omitempty"`
	Datetime  time.Time `json:"datetime"`
}

// AppendCommandHistory adds rec to the guild's history, dropping the oldest
// entries beyond the history limit.
func (s *Storage) AppendCommandHistory(guildID string, rec CommandHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.guildRecord(guildID)
	if err != nil {
		return err
	}

	record.CommandsHistoryList = append(record.CommandsHistoryList, rec)
	if n := len(record.CommandsHistoryList); n > s.historyLimit {
		record.CommandsHistoryList = record.CommandsHistoryList[n-s.historyLimit:]
	}
	if err := s.ds.Set(guildKey(guildID), record); err != nil {
		return fmt.Errorf("append command history: %w", err)
	}
	return nil
}

// FetchCommandHistory returns the guild's history, oldest first.
func (s *Storage) FetchCommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.guildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return append([]CommandHistoryRecord(nil), record.CommandsHistoryList...), nil
}
