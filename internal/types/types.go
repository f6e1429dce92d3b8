package types

import (
	"sync"
	"time"
)

// StepStatus is the lifecycle state of a single step within one execution.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// WorkflowStatus is the overall state of a workflow execution.
type WorkflowStatus string

const (
	WorkflowPending   WorkflowStatus = "pending"
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
	WorkflowCancelled WorkflowStatus = "cancelled"
)

// StepResult holds the outcome of executing a single step.
// A completed result carries no error; a failed result always does.
type StepResult struct {
	StepName   string         `json:"step_name"`
	Status     StepStatus     `json:"status"`
	Message    string         `json:"message,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Completed reports whether the step finished successfully.
func (r *StepResult) Completed() bool { return r.Status == StepCompleted }

// Failed reports whether the step finished with an error.
func (r *StepResult) Failed() bool { return r.Status == StepFailed }

// WorkflowData is the shared key-value bag steps read from and write to.
// It is the sole channel of inter-step communication: sequential steps see
// the cumulative writes of every step before them.
//
// The internal mutex only keeps the maps structurally sound when steps run
// in parallel. It does not serialize overlapping writes: two parallel steps
// writing the same key is last-write-wins, and workflows that opt into
// parallel execution must keep their steps' key sets disjoint.
type WorkflowData struct {
	mu   sync.RWMutex
	data map[string]any
	meta map[string]any
}

// NewWorkflowData creates an empty data bag.
func NewWorkflowData() *WorkflowData {
	return &WorkflowData{
		data: make(map[string]any),
		meta: make(map[string]any),
	}
}

// NewWorkflowDataFrom creates a data bag seeded from the given map.
func NewWorkflowDataFrom(initial map[string]any) *WorkflowData {
	d := NewWorkflowData()
	for k, v := range initial {
		d.data[k] = v
	}
	return d
}

// Get returns the value stored under key.
func (d *WorkflowData) Get(key string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.data[key]
	return v, ok
}

// GetString returns the value under key if it is a string, or the fallback
// if it is absent or of another type.
func (d *WorkflowData) GetString(key, fallback string) string {
	v, ok := d.Get(key)
	if !ok {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

// Set stores value under key, replacing any previous value.
func (d *WorkflowData) Set(key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.data[key] = value
}

// Update stores every entry of values into the bag.
func (d *WorkflowData) Update(values map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for k, v := range values {
		d.data[k] = v
	}
}

// Has checks whether key is present.
func (d *WorkflowData) Has(key string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.data[key]
	return ok
}

// Remove deletes key and returns its previous value, if any.
func (d *WorkflowData) Remove(key string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.data[key]
	delete(d.data, key)
	return v, ok
}

// Keys returns all keys currently in the bag.
func (d *WorkflowData) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	keys := make([]string, 0, len(d.data))
	for k := range d.data {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a shallow copy of the bag contents.
func (d *WorkflowData) Snapshot() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]any, len(d.data))
	for k, v := range d.data {
		out[k] = v
	}
	return out
}

// SetMetadata stores a metadata entry, kept separate from step data.
func (d *WorkflowData) SetMetadata(key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.meta[key] = value
}

// Metadata returns a shallow copy of the metadata entries.
func (d *WorkflowData) Metadata() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]any, len(d.meta))
	for k, v := range d.meta {
		out[k] = v
	}
	return out
}

// Execution is the record of one engine run: per-step results in the order
// they were recorded plus the aggregate outcome. It is mutated only by the
// engine during the run and frozen once Complete is called.
type Execution struct {
	ID           string         `json:"id"`
	WorkflowName string         `json:"workflow_name"`
	Status       WorkflowStatus `json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at"`
	CurrentStep  int            `json:"current_step"`
	Error        string         `json:"error,omitempty"`
	Steps        []StepResult   `json:"steps"`
}

// NewExecution creates a pending execution record.
func NewExecution(id, workflowName string) *Execution {
	return &Execution{
		ID:           id,
		WorkflowName: workflowName,
		Status:       WorkflowPending,
		StartedAt:    time.Now().UTC(),
		Steps:        make([]StepResult, 0),
	}
}

// AddStepResult appends a step result. A failed result marks the whole
// execution failed and records the step's error as the execution error.
func (e *Execution) AddStepResult(result *StepResult) {
	e.Steps = append(e.Steps, *result)
	if result.Failed() {
		e.Status = WorkflowFailed
		if e.Error == "" {
			e.Error = result.Error
		}
	}
}

// StepResult returns the recorded result for the named step.
func (e *Execution) StepResult(name string) (*StepResult, bool) {
	for i := range e.Steps {
		if e.Steps[i].StepName == name {
			return &e.Steps[i], true
		}
	}
	return nil, false
}

// Complete freezes the execution. A run that is still marked running
// becomes completed; failed and cancelled states are preserved.
func (e *Execution) Complete() {
	e.CompletedAt = time.Now().UTC()
	if e.Status == WorkflowRunning || e.Status == WorkflowPending {
		e.Status = WorkflowCompleted
	}
}

// Duration returns the wall-clock time of the run so far, or of the whole
// run once completed.
func (e *Execution) Duration() time.Duration {
	end := e.CompletedAt
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return end.Sub(e.StartedAt)
}

// CompletedSteps counts step results that finished successfully.
func (e *Execution) CompletedSteps() int {
	n := 0
	for i := range e.Steps {
		if e.Steps[i].Completed() {
			n++
		}
	}
	return n
}
