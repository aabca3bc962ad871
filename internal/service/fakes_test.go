package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tmarkell/scribe-api/internal/domain"
	"github.com/tmarkell/scribe-api/internal/events"
	"github.com/tmarkell/scribe-api/internal/platform/engine"
	"github.com/tmarkell/scribe-api/internal/store"
)

// fakeTaskStore is an in-memory TaskStore with the same terminal-state
// guards as the postgres implementation.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.ProcessingTask

	createErr error
	getErr    error
	deleteErr error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.ProcessingTask)}
}

func (f *fakeTaskStore) Create(_ context.Context, task *domain.ProcessingTask) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.ProcessingTask, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) SetExternalReference(_ context.Context, id uuid.UUID, ref, phase string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.ExternalReference != nil {
		return store.ErrUpdateFailed
	}
	task.ExternalReference = &ref
	task.ExternalPhase = phase
	task.Status = domain.TaskStatusProcessing
	return nil
}

func (f *fakeTaskStore) UpdatePhase(_ context.Context, id uuid.UUID, phase string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok || task.Status.IsTerminal() {
		return nil
	}
	task.ExternalPhase = phase
	task.Status = domain.TaskStatusProcessing
	return nil
}

func (f *fakeTaskStore) Complete(_ context.Context, id uuid.UUID, result store.TaskCompletion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	if task.Status.IsTerminal() {
		return store.ErrTerminalState
	}
	task.Status = domain.TaskStatusCompleted
	task.ExternalPhase = domain.PhaseComplete
	task.Title = result.Title
	task.SummaryBlob = result.SummaryBlob
	task.SummaryIV = result.SummaryIV
	task.TranscriptBlob = result.TranscriptBlob
	task.TranscriptIV = result.TranscriptIV
	task.Confidence = result.Confidence
	task.ProcessingTimeSeconds = result.ProcessingTimeSeconds
	task.AudioDurationSeconds = result.AudioDurationSeconds
	task.RealTimeFactor = result.RealTimeFactor
	processedAt := result.ProcessedAt
	task.ProcessedAt = &processedAt
	return nil
}

func (f *fakeTaskStore) MarkFailed(_ context.Context, id uuid.UUID, message, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	if task.Status.IsTerminal() {
		return store.ErrTerminalState
	}
	task.Status = domain.TaskStatusFailed
	task.ErrorMessage = message
	task.ErrorCode = code
	return nil
}

func (f *fakeTaskStore) ListUnresolvedByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.ProcessingTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ProcessingTask
	for _, task := range f.tasks {
		if task.OwnerID == ownerID && !task.Status.IsTerminal() {
			copied := *task
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

// snapshot returns the stored row, or nil.
func (f *fakeTaskStore) snapshot(id uuid.UUID) *domain.ProcessingTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil
	}
	copied := *task
	return &copied
}

func (f *fakeTaskStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// fakeTagStore is an in-memory TagStore with idempotent upserts.
type fakeTagStore struct {
	mu         sync.Mutex
	tagsByName map[string]uuid.UUID
	joins      map[uuid.UUID]map[uuid.UUID]string // taskID -> tagID -> name

	upsertErr error
}

func newFakeTagStore() *fakeTagStore {
	return &fakeTagStore{
		tagsByName: make(map[string]uuid.UUID),
		joins:      make(map[uuid.UUID]map[uuid.UUID]string),
	}
}

func (f *fakeTagStore) UpsertTag(_ context.Context, name string) (uuid.UUID, error) {
	if f.upsertErr != nil {
		return uuid.Nil, f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.tagsByName[name]; ok {
		return id, nil
	}
	id := uuid.New()
	f.tagsByName[name] = id
	return id, nil
}

func (f *fakeTagStore) AttachTag(_ context.Context, taskID, tagID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joins[taskID] == nil {
		f.joins[taskID] = make(map[uuid.UUID]string)
	}
	var name string
	for n, id := range f.tagsByName {
		if id == tagID {
			name = n
			break
		}
	}
	f.joins[taskID][tagID] = name
	return nil
}

func (f *fakeTagStore) ListTagsForTask(_ context.Context, taskID uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, name := range f.joins[taskID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// fakeEngine is a scripted EngineClient.
type fakeEngine struct {
	mu sync.Mutex

	submitResult *engine.SubmitResult
	submitErr    error
	submitCalls  int

	statusQueue []*engine.StatusResult
	statusErr   error
	statusCalls int

	healthResult *engine.HealthResult
	healthErr    error
}

func (f *fakeEngine) SubmitFile(_ context.Context, _ string, _ []byte, _ engine.SubmitOptions) (*engine.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.submitResult, nil
}

func (f *fakeEngine) TaskStatus(_ context.Context, _ string) (*engine.StatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if len(f.statusQueue) == 0 {
		return &engine.StatusResult{Status: domain.PhasePending}, nil
	}
	next := f.statusQueue[0]
	if len(f.statusQueue) > 1 {
		f.statusQueue = f.statusQueue[1:]
	}
	return next, nil
}

func (f *fakeEngine) Health(_ context.Context) (*engine.HealthResult, error) {
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return f.healthResult, nil
}

// fakeNotifier records delivered events.
type fakeNotifier struct {
	mu     sync.Mutex
	events []*events.TaskEvent
	owners []uuid.UUID
	err    error
}

func (f *fakeNotifier) NotifyOwner(_ context.Context, ownerID uuid.UUID, event *events.TaskEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	f.owners = append(f.owners, ownerID)
	return nil
}

func (f *fakeNotifier) delivered() []*events.TaskEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*events.TaskEvent, len(f.events))
	copy(out, f.events)
	return out
}

// fakeAuditor records audit actions, optionally failing every call.
type fakeAuditor struct {
	mu      sync.Mutex
	actions []string
	err     error
}

func (f *fakeAuditor) Record(_ context.Context, action string, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	if f.err != nil {
		return f.err
	}
	return nil
}

func (f *fakeAuditor) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.actions))
	copy(out, f.actions)
	return out
}
