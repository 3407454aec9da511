// Package model provides the shared estimator plumbing: fitted-state
// tracking, the Fit/Predict interfaces and weight persistence.
package model

import (
	"sync"

	gdErrors "github.com/YuminosukeSato/gdreg/pkg/errors"
)

// StateManager tracks whether an estimator has been fitted and the shape of
// the data it saw. It is safe for concurrent use.
type StateManager struct {
	mu        sync.RWMutex
	fitted    bool
	nFeatures int
	nSamples  int
}

// NewStateManager creates a StateManager in the not-fitted state.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the model as fitted with the given training shape.
func (s *StateManager) SetFitted(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// Reset returns the model to the not-fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nFeatures = 0
	s.nSamples = 0
}

// GetDimensions returns the number of features and samples seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}

// RequireFitted returns a NotFittedError naming modelName and method if the
// model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return gdErrors.NewNotFittedError(modelName, method)
	}
	return nil
}

// RequireFeatures checks that a fitted model receives the feature count it
// was trained with.
func (s *StateManager) RequireFeatures(op string, got int) error {
	nFeatures, _ := s.GetDimensions()
	if got != nFeatures {
		return gdErrors.NewDimensionError(op, nFeatures, got, 1)
	}
	return nil
}
