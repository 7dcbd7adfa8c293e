package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Btuvia/MZ-sub001/internal/repository"
	"github.com/Btuvia/MZ-sub001/pkg/models"
)

// fakeTaskStore is an in-memory TaskStore. failUpdates injects a store error
// for specific task ids to exercise per-item failure isolation.
type fakeTaskStore struct {
	mu          sync.Mutex
	tasks       map[string]*models.Task
	order       []string
	failCreates bool
	failUpdates map[string]bool
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{
		tasks:       map[string]*models.Task{},
		failUpdates: map[string]bool{},
	}
}

func (s *fakeTaskStore) Create(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreates {
		return fmt.Errorf("store unavailable")
	}
	cp := *t
	s.tasks[t.ID] = &cp
	s.order = append(s.order, t.ID)
	return nil
}

func (s *fakeTaskStore) Get(_ context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, repository.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTaskStore) Update(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; !ok {
		return fmt.Errorf("task %s: %w", t.ID, repository.ErrNotFound)
	}
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *fakeTaskStore) UpdateStatus(_ context.Context, id string, status models.TaskStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdates[id] {
		return fmt.Errorf("store unavailable")
	}
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, repository.ErrNotFound)
	}
	t.Status = status
	t.UpdatedAt = updatedAt
	return nil
}

func (s *fakeTaskStore) List(_ context.Context, hints repository.TaskFilterHints) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Task
	for _, id := range s.order {
		t := s.tasks[id]
		if len(hints.Statuses) > 0 && !containsStatus(hints.Statuses, t.Status) {
			continue
		}
		if hints.InstanceID != nil && (t.InstanceID == nil || *t.InstanceID != *hints.InstanceID) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeTaskStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("task %s: %w", id, repository.ErrNotFound)
	}
	delete(s.tasks, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func containsStatus(statuses []models.TaskStatus, s models.TaskStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

type fakeWorkflowStore struct {
	mu    sync.Mutex
	defs  map[string]*models.WorkflowDefinition
	usage map[string]int
}

func newFakeWorkflowStore(defs ...*models.WorkflowDefinition) *fakeWorkflowStore {
	s := &fakeWorkflowStore{defs: map[string]*models.WorkflowDefinition{}, usage: map[string]int{}}
	for _, d := range defs {
		s.defs[d.ID] = d
	}
	return s
}

func (s *fakeWorkflowStore) Create(_ context.Context, d *models.WorkflowDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs[d.ID] = d
	return nil
}

func (s *fakeWorkflowStore) Get(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.defs[id]
	if !ok {
		return nil, fmt.Errorf("workflow %s: %w", id, repository.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (s *fakeWorkflowStore) List(_ context.Context) ([]*models.WorkflowDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.WorkflowDefinition
	for _, d := range s.defs {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeWorkflowStore) IncrementUsage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defs[id]; !ok {
		return fmt.Errorf("workflow %s: %w", id, repository.ErrNotFound)
	}
	s.usage[id]++
	return nil
}

type fakeInstanceStore struct {
	mu        sync.Mutex
	instances map[string]*models.WorkflowInstance
}

func newFakeInstanceStore() *fakeInstanceStore {
	return &fakeInstanceStore{instances: map[string]*models.WorkflowInstance{}}
}

func (s *fakeInstanceStore) Create(_ context.Context, inst *models.WorkflowInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[inst.ID] = copyInstance(inst)
	return nil
}

func (s *fakeInstanceStore) Get(_ context.Context, id string) (*models.WorkflowInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		return nil, fmt.Errorf("instance %s: %w", id, repository.ErrNotFound)
	}
	return copyInstance(inst), nil
}

func (s *fakeInstanceStore) Update(_ context.Context, inst *models.WorkflowInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[inst.ID]; !ok {
		return fmt.Errorf("instance %s: %w", inst.ID, repository.ErrNotFound)
	}
	s.instances[inst.ID] = copyInstance(inst)
	return nil
}

func (s *fakeInstanceStore) ListActive(_ context.Context) ([]*models.WorkflowInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.WorkflowInstance
	for _, inst := range s.instances {
		if inst.Status == models.InstanceStatusActive {
			out = append(out, copyInstance(inst))
		}
	}
	return out, nil
}

func copyInstance(inst *models.WorkflowInstance) *models.WorkflowInstance {
	cp := *inst
	cp.TaskIDsByStep = map[int]string{}
	for k, v := range inst.TaskIDsByStep {
		cp.TaskIDsByStep[k] = v
	}
	return &cp
}

type fakeSubjectStore struct {
	subjects map[string]*models.Subject
}

func newFakeSubjectStore(subjects ...*models.Subject) *fakeSubjectStore {
	s := &fakeSubjectStore{subjects: map[string]*models.Subject{}}
	for _, subject := range subjects {
		s.subjects[subject.ID] = subject
	}
	return s
}

func (s *fakeSubjectStore) Create(_ context.Context, subject *models.Subject) error {
	s.subjects[subject.ID] = subject
	return nil
}

func (s *fakeSubjectStore) Get(_ context.Context, id string) (*models.Subject, error) {
	subject, ok := s.subjects[id]
	if !ok {
		return nil, fmt.Errorf("subject %s: %w", id, repository.ErrNotFound)
	}
	return subject, nil
}

func (s *fakeSubjectStore) List(_ context.Context) ([]*models.Subject, error) {
	var out []*models.Subject
	for _, subject := range s.subjects {
		out = append(out, subject)
	}
	return out, nil
}
