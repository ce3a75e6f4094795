// Package model provides fitted-state tracking, persistence and the shared
// interfaces for margin calibrators.
package model

import (
	"sync"

	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

// StateManager manages the fitted state of a calibrator in a thread-safe manner.
type StateManager struct {
	Fitted bool // Public for gob encoding
	mu     sync.RWMutex

	// NResiduals is the size of the residual set seen during fitting.
	NResiduals int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{
		Fitted: false,
	}
}

// IsFitted returns whether the calibrator has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the calibrator as fitted on n residuals.
func (s *StateManager) SetFitted(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
	s.NResiduals = n
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NResiduals = 0
}

// RequireFitted returns a NotFittedError naming the component and the
// method that was called too early.
func (s *StateManager) RequireFitted(name, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(name, method)
	}
	return nil
}

// State represents the complete fitted state.
// This can be used for serialization and debugging.
type State struct {
	Fitted     bool `json:"fitted"`
	NResiduals int  `json:"n_residuals,omitempty"`
}

// GetState returns the current state as a State struct.
func (s *StateManager) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return State{
		Fitted:     s.Fitted,
		NResiduals: s.NResiduals,
	}
}

// SetState sets the state from a State struct.
func (s *StateManager) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Fitted = state.Fitted
	s.NResiduals = state.NResiduals
}
