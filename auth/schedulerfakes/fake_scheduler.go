package fakescheduler

import (
	"sync"
	"time"
)

// Task is one call to Every.
type Task struct {
	Interval time.Duration

	mu      sync.Mutex
	fn      func()
	stopped bool
	stops   int
}

// Run invokes the callback even if the task was stopped, the way a tick already in flight would.
func (t *Task) Run() {
	t.fn()
}

// Stopped reports whether stop has been called.
func (t *Task) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Stops counts calls to stop, including repeated ones.
func (t *Task) Stops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops
}

// FakeScheduler records tasks and only runs them when told to.
type FakeScheduler struct {
	mu    sync.Mutex
	tasks []*Task
}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

func (s *FakeScheduler) Every(d time.Duration, fn func()) func() {
	task := &Task{Interval: d, fn: fn}
	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()

	return func() {
		task.mu.Lock()
		defer task.mu.Unlock()
		task.stopped = true
		task.stops++
	}
}

// Tick runs every task that has not been stopped.
func (s *FakeScheduler) Tick() {
	for _, task := range s.Tasks() {
		if !task.Stopped() {
			task.Run()
		}
	}
}

// Tasks returns every task ever scheduled, oldest first.
func (s *FakeScheduler) Tasks() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Task(nil), s.tasks...)
}

// Active counts tasks that have not been stopped.
func (s *FakeScheduler) Active() int {
	n := 0
	for _, task := range s.Tasks() {
		if !task.Stopped() {
			n++
		}
	}
	return n
}
