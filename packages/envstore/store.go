package envstore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/courierhq/courier/packages/model"
)

// Store holds environments and tracks which one is active. All access is
// serialized; a write from one goroutine is visible to the next read.
// Returned environments are clones; mutation goes through SetVariable,
// never through a returned map.
type Store struct {
	mu       sync.RWMutex
	envs     map[string]*model.Environment
	activeID string
}

func NewStore() *Store {
	return &Store{
		envs: make(map[string]*model.Environment),
	}
}

// Detached builds a single-environment store around a clone of env, already
// active. Runs that must not touch a shared environment execute against a
// detached store.
func Detached(env *model.Environment) *Store {
	s := NewStore()
	if env != nil {
		clone := env.Clone()
		clone.IsActive = true
		s.envs[clone.ID] = clone
		s.activeID = clone.ID
	}
	return s
}

func (s *Store) CreateEnvironment(env *model.Environment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.envs[env.ID]; exists {
		return fmt.Errorf("environment %s already exists", env.ID)
	}
	clone := env.Clone()
	if clone.IsActive {
		for _, other := range s.envs {
			other.IsActive = false
		}
		s.activeID = clone.ID
	}
	s.envs[clone.ID] = clone
	return nil
}

func (s *Store) GetEnvironment(id string) (*model.Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	env, ok := s.envs[id]
	if !ok {
		return nil, fmt.Errorf("environment not found: %s", id)
	}
	return env.Clone(), nil
}

func (s *Store) ListEnvironments() []*model.Environment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	envs := make([]*model.Environment, 0, len(s.envs))
	for _, env := range s.envs {
		envs = append(envs, env.Clone())
	}
	sort.Slice(envs, func(i, j int) bool { return envs[i].Name < envs[j].Name })
	return envs
}

func (s *Store) DeleteEnvironment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.envs[id]; !ok {
		return fmt.Errorf("environment not found: %s", id)
	}
	delete(s.envs, id)
	if s.activeID == id {
		s.activeID = ""
	}
	return nil
}

// Activate marks one environment active and deactivates every other. The
// at-most-one-active invariant is enforced here, not by callers.
func (s *Store) Activate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.envs[id]
	if !ok {
		return fmt.Errorf("environment not found: %s", id)
	}
	for _, env := range s.envs {
		env.IsActive = false
	}
	target.IsActive = true
	s.activeID = id
	return nil
}

// ActiveEnvironment returns a clone of the active environment, or nil when
// none is active.
func (s *Store) ActiveEnvironment() *model.Environment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" {
		return nil
	}
	env, ok := s.envs[s.activeID]
	if !ok {
		return nil
	}
	return env.Clone()
}

func (s *Store) SetVariable(envID, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, ok := s.envs[envID]
	if !ok {
		return fmt.Errorf("environment not found: %s", envID)
	}
	env.Variables[name] = value
	env.UpdatedAt = time.Now()
	return nil
}

func (s *Store) UnsetVariable(envID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, ok := s.envs[envID]
	if !ok {
		return fmt.Errorf("environment not found: %s", envID)
	}
	delete(env.Variables, name)
	env.UpdatedAt = time.Now()
	return nil
}

func (s *Store) GetVariable(envID, name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	env, ok := s.envs[envID]
	if !ok {
		return "", false
	}
	v, ok := env.Variables[name]
	return v, ok
}

// Snapshot returns an isolated copy of one environment for a detached run.
func (s *Store) Snapshot(id string) (*model.Environment, error) {
	return s.GetEnvironment(id)
}
