package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	focusFile = "focus.json"
)

// FocusState is the namespace and node the CLI last navigated to. Commands
// that take an optional namespace or root fall back to it.
type FocusState struct {
	NamespaceID string `json:"namespace_id"`

	// RootID is the tree root within the namespace; empty means the
	// namespace's designated root.
	RootID string `json:"root_id,omitempty"`

	// NodeID is the last node opened in a detail view.
	NodeID string `json:"node_id,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// LoadFocus reads focus.json from the resolved directory.
// Returns nil, nil when nothing has been focused yet.
func (m *Manager) LoadFocus(overrideDir string) (*FocusState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, focusFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading focus state: %w", err)
	}

	state := &FocusState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing focus state: %w", err)
	}
	return state, nil
}

// SaveFocus writes focus.json, creating ~/.ledgerview/ if needed.
func (m *Manager) SaveFocus(state *FocusState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil focus state")
	}
	if state.NamespaceID == "" {
		return errors.New("focus state requires a namespace")
	}

	dir, err := m.Ensure(overrideDir)
	if err != nil {
		return err
	}

	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling focus state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, focusFile), data, 0o600); err != nil {
		return fmt.Errorf("writing focus state: %w", err)
	}
	return nil
}

// ClearFocus removes focus.json. A missing file is not an error.
func (m *Manager) ClearFocus(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil || dir == "" {
		return err
	}

	if err := os.Remove(filepath.Join(dir, focusFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing focus state: %w", err)
	}
	return nil
}
