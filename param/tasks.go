package param

import (
	"fmt"
	"log"
)

type task struct {
	id       TaskID
	name     string
	complete bool
}

// RegisterTask adds a task to the start-up handshake. The task is not
// complete until TaskRegistrationComplete is called for it.
func (r *Registry) RegisterTask(id TaskID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tasks {
		if t.id == id {
			return fmt.Errorf("%w: %d", ErrTaskRegistered, id)
		}
	}
	if len(r.tasks) >= r.taskTotal {
		return ErrTaskTableFull
	}
	r.tasks = append(r.tasks, task{id: id, name: truncate(name, TaskNameLen-1)})
	return nil
}

// TaskRegistrationComplete marks a registered task complete. When the last
// expected task completes, AllTasksRegistered is closed and the hooks
// installed with OnAllTasksRegistered run, exactly once.
func (r *Registry) TaskRegistrationComplete(id TaskID) error {
	r.mu.Lock()

	var t *task
	for i := range r.tasks {
		if r.tasks[i].id == id {
			t = &r.tasks[i]
			break
		}
	}
	if t == nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownTask, id)
	}
	if t.complete {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskComplete, t.name)
	}
	t.complete = true
	r.completed++

	fired := r.completed == r.taskTotal
	var hooks []func()
	if fired {
		close(r.allDone)
		hooks = r.onAllDone
		r.onAllDone = nil
	}
	r.mu.Unlock()

	if !fired {
		return nil
	}
	log.Printf("[Params] All %d tasks registered\r\n", r.taskTotal)
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// AllTasksRegistered returns a channel closed once every expected task has
// completed registration.
func (r *Registry) AllTasksRegistered() <-chan struct{} { return r.allDone }

// OnAllTasksRegistered runs fn once all tasks have registered. If that has
// already happened fn runs immediately on the caller's goroutine.
func (r *Registry) OnAllTasksRegistered(fn func()) {
	r.mu.Lock()
	select {
	case <-r.allDone:
		r.mu.Unlock()
		fn()
		return
	default:
	}
	r.onAllDone = append(r.onAllDone, fn)
	r.mu.Unlock()
}

// TaskComplete reports whether id has completed registration.
func (r *Registry) TaskComplete(id TaskID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tasks {
		if t.id == id {
			return t.complete
		}
	}
	return false
}
