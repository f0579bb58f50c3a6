package inmemorystore

import (
	"sync"

	"github.com/vk/pipegridgo/internal/artifact"
)

// Status is the execution state of a block.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	// StatusSkipped marks blocks that never ran because an ancestor failed
	// or the run was canceled.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	}
	return "unknown"
}

// Store keeps status, output artifact and error per block name.
type Store struct {
	states  sync.Map // block name -> Status
	outputs sync.Map // block name -> artifact.Artifact
	errors  sync.Map // block name -> error
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

func (s *Store) SetStatus(block string, status Status) {
	s.states.Store(block, status)
}

// Status returns StatusPending for blocks without a recorded status.
func (s *Store) Status(block string) Status {
	status, ok := s.states.Load(block)
	if !ok {
		return StatusPending
	}
	return status.(Status)
}

// Skip marks block as skipped unless it already finished.
func (s *Store) Skip(block string) {
	switch s.Status(block) {
	case StatusCompleted, StatusFailed:
		return
	}
	s.states.Store(block, StatusSkipped)
}

func (s *Store) SetOutput(block string, output artifact.Artifact) {
	s.outputs.Store(block, output)
}

// Output returns the artifact block produced, or nil.
func (s *Store) Output(block string) artifact.Artifact {
	output, ok := s.outputs.Load(block)
	if !ok {
		return nil
	}
	return output.(artifact.Artifact)
}

// Fail records err and marks block as failed.
func (s *Store) Fail(block string, err error) {
	s.errors.Store(block, err)
	s.states.Store(block, StatusFailed)
}

// Error returns the error block failed with, or nil.
func (s *Store) Error(block string) error {
	err, ok := s.errors.Load(block)
	if !ok {
		return nil
	}
	return err.(error)
}

// Statuses returns a snapshot of every recorded status.
func (s *Store) Statuses() map[string]Status {
	out := make(map[string]Status)
	s.states.Range(func(k, v any) bool {
		out[k.(string)] = v.(Status)
		return true
	})
	return out
}

// Outputs returns a snapshot of every recorded output.
func (s *Store) Outputs() map[string]artifact.Artifact {
	out := make(map[string]artifact.Artifact)
	s.outputs.Range(func(k, v any) bool {
		out[k.(string)] = v.(artifact.Artifact)
		return true
	})
	return out
}
