package inmemorystore

import (
	"context"
	"sync"

	"github.com/specialistvlad/evalgrid/internal/model"
	"github.com/specialistvlad/evalgrid/internal/nodestore"
)

// Store implements nodestore.Store on top of sync.Map.
type Store struct {
	states  sync.Map // Key: step name, Value: model.Status
	results sync.Map // Key: step name, Value: *model.StepResult
}

func New() nodestore.Store {
	return &Store{}
}

func (s *Store) SetStatus(ctx context.Context, name string, status model.Status) error {
	s.states.Store(name, status)
	return nil
}

func (s *Store) GetStatus(ctx context.Context, name string) (model.Status, error) {
	status, ok := s.states.Load(name)
	if !ok {
		return model.StatusPending, nil
	}
	return status.(model.Status), nil
}

func (s *Store) SetResult(ctx context.Context, name string, result *model.StepResult) error {
	s.results.Store(name, result)
	return nil
}

func (s *Store) GetResult(ctx context.Context, name string) (*model.StepResult, bool) {
	result, ok := s.results.Load(name)
	if !ok {
		return nil, false
	}
	return result.(*model.StepResult), true
}

func (s *Store) Results(ctx context.Context) map[string]*model.StepResult {
	out := make(map[string]*model.StepResult)
	s.results.Range(func(key, value any) bool {
		out[key.(string)] = value.(*model.StepResult)
		return true
	})
	return out
}
