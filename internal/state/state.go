package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

// defaultSaveInterval is the number of MarkProcessed calls between
// automatic checkpoint saves.
const defaultSaveInterval = 10

// Checkpoint is the on-disk processing state.
type Checkpoint struct {
	ProcessedIDs    []string `json:"processed_ids"`
	LastProcessedID string   `json:"last_processed_id,omitempty"`
	LastRun         string   `json:"last_run,omitempty"` // RFC 3339
	SinceDate       string   `json:"since_date,omitempty"`
	TotalProcessed  int      `json:"total_processed"`
	TotalWritten    int      `json:"total_written"`
}

// Manager persists processing state so an interrupted run can resume.
// The state file is guarded by a flock so two concurrent runs cannot
// clobber each other's checkpoint.
type Manager struct {
	path         string
	lock         *flock.Flock
	logger       *slog.Logger
	saveInterval int

	processed       map[string]struct{}
	lastProcessedID string
	lastRun         time.Time
	sinceDate       string
	totalProcessed  int
	totalWritten    int
	unsaved         int
}

// NewManager creates a state manager for the given checkpoint path.
func NewManager(path string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		path:         path,
		lock:         flock.New(path + ".lock"),
		logger:       logger,
		saveInterval: defaultSaveInterval,
		processed:    make(map[string]struct{}),
	}
}

// Load acquires the state file lock and reads the checkpoint if one
// exists. It returns true when a previous checkpoint was loaded.
func (m *Manager) Load() (bool, error) {
	ok, err := m.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("lock state file: %w", err)
	}
	if !ok {
		return false, fmt.Errorf("state file %s is locked by another run", m.path)
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Debug("no existing state file, starting fresh")
			return false, nil
		}
		return false, fmt.Errorf("read state file: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		m.logger.Warn("state file is corrupt, starting fresh", "error", err.Error())
		return false, nil
	}

	m.processed = make(map[string]struct{}, len(cp.ProcessedIDs))
	for _, id := range cp.ProcessedIDs {
		m.processed[id] = struct{}{}
	}
	m.lastProcessedID = cp.LastProcessedID
	m.sinceDate = cp.SinceDate
	m.totalProcessed = cp.TotalProcessed
	m.totalWritten = cp.TotalWritten
	if cp.LastRun != "" {
		if ts, err := time.Parse(time.RFC3339, cp.LastRun); err == nil {
			m.lastRun = ts
		}
	}

	m.logger.Debug("loaded checkpoint", "processed", len(m.processed))
	return true, nil
}

// Save writes the checkpoint atomically (temp file + rename).
func (m *Manager) Save() error {
	m.lastRun = time.Now()

	ids := make([]string, 0, len(m.processed))
	for id := range m.processed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cp := Checkpoint{
		ProcessedIDs:    ids,
		LastProcessedID: m.lastProcessedID,
		LastRun:         m.lastRun.Format(time.RFC3339),
		SinceDate:       m.sinceDate,
		TotalProcessed:  m.totalProcessed,
		TotalWritten:    m.totalWritten,
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), filepath.Base(m.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}

	m.unsaved = 0
	return nil
}

// Close releases the state file lock.
func (m *Manager) Close() error {
	return m.lock.Unlock()
}

// IsProcessed reports whether a message ID has already been processed.
func (m *Manager) IsProcessed(messageID string) bool {
	_, ok := m.processed[messageID]
	return ok
}

// MarkProcessed records a message as processed, auto-saving every
// saveInterval marks so an interrupt loses little progress.
func (m *Manager) MarkProcessed(messageID string) {
	if _, ok := m.processed[messageID]; ok {
		return
	}
	m.processed[messageID] = struct{}{}
	m.lastProcessedID = messageID
	m.totalProcessed++
	m.unsaved++

	if m.unsaved >= m.saveInterval {
		if err := m.Save(); err != nil {
			m.logger.Warn("auto-save failed", "error", err.Error())
		}
	}
}

// MarkWritten adds to the count of rows written to the sheet.
func (m *Manager) MarkWritten(count int) {
	m.totalWritten += count
}

// SetSinceDate records the --since filter used for this session.
func (m *Manager) SetSinceDate(since string) {
	m.sinceDate = since
}

// SinceDate returns the --since filter from the loaded checkpoint.
func (m *Manager) SinceDate() string {
	return m.sinceDate
}

// Unprocessed filters a candidate ID list down to IDs not yet processed.
func (m *Manager) Unprocessed(messageIDs []string) []string {
	out := make([]string, 0, len(messageIDs))
	for _, id := range messageIDs {
		if !m.IsProcessed(id) {
			out = append(out, id)
		}
	}
	return out
}

// HasPreviousSession reports whether the loaded checkpoint contains
// progress from an earlier run.
func (m *Manager) HasPreviousSession() bool {
	return len(m.processed) > 0
}

// Reset clears all tracking data and deletes the state file.
func (m *Manager) Reset() error {
	m.processed = make(map[string]struct{})
	m.lastProcessedID = ""
	m.sinceDate = ""
	m.totalProcessed = 0
	m.totalWritten = 0
	m.unsaved = 0

	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete state file: %w", err)
	}
	return nil
}

// Summary renders a human-readable progress report.
func (m *Manager) Summary() string {
	s := ""
	if !m.lastRun.IsZero() {
		s += fmt.Sprintf("Last run: %s\n", m.lastRun.Format(time.RFC3339))
	}
	if m.sinceDate != "" {
		s += fmt.Sprintf("Processing emails since: %s\n", m.sinceDate)
	}
	s += fmt.Sprintf("Messages processed: %d\n", m.totalProcessed)
	s += fmt.Sprintf("Rows written to sheet: %d\n", m.totalWritten)
	s += fmt.Sprintf("Unique messages tracked: %d", len(m.processed))
	return s
}
