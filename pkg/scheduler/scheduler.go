package scheduler

import "sort"

// TaskID identifies a scheduled task.
type TaskID uint64

// Scheduler runs delayed tasks counted in simulation ticks. It is not safe for
// concurrent use; the tick loop is its only caller.
type Scheduler struct {
	tick   uint64
	nextID TaskID
	tasks  map[TaskID]*task
	owners map[interface{}]map[TaskID]struct{}
}

type task struct {
	id     TaskID
	due    uint64
	fn     func()
	owners []interface{}
}

func New() *Scheduler {
	return &Scheduler{
		tasks:  make(map[TaskID]*task),
		owners: make(map[interface{}]map[TaskID]struct{}),
	}
}

// Tick returns the number of times Advance has been called.
func (s *Scheduler) Tick() uint64 {
	return s.tick
}

// Pending returns the number of tasks that have not yet run or been cancelled.
func (s *Scheduler) Pending() int {
	return len(s.tasks)
}

// After schedules fn to run once ticks calls to Advance have happened. A delay
// of zero runs on the next Advance. The task is cancelled when any of its
// owners is passed to CancelOwner. Owners must be comparable.
func (s *Scheduler) After(ticks uint64, fn func(), owners ...interface{}) TaskID {
	if ticks == 0 {
		ticks = 1
	}
	s.nextID++
	t := &task{
		id:     s.nextID,
		due:    s.tick + ticks,
		fn:     fn,
		owners: owners,
	}
	s.tasks[t.id] = t
	for _, owner := range owners {
		ids, ok := s.owners[owner]
		if !ok {
			ids = make(map[TaskID]struct{})
			s.owners[owner] = ids
		}
		ids[t.id] = struct{}{}
	}
	return t.id
}

// Cancel removes a task. It reports whether the task was still pending.
func (s *Scheduler) Cancel(id TaskID) bool {
	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	s.remove(t)
	return true
}

// CancelOwner cancels every pending task owned by owner and returns how many
// were cancelled.
func (s *Scheduler) CancelOwner(owner interface{}) int {
	ids, ok := s.owners[owner]
	if !ok {
		return 0
	}
	n := 0
	for id := range ids {
		if t, ok := s.tasks[id]; ok {
			s.remove(t)
			n++
		}
	}
	delete(s.owners, owner)
	return n
}

// Advance moves the clock forward one tick and runs every task that is due,
// in due order then scheduling order. Tasks scheduled by a running task are
// never run in the same Advance.
func (s *Scheduler) Advance() int {
	s.tick++

	due := make([]*task, 0)
	for _, t := range s.tasks {
		if t.due <= s.tick {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].id < due[j].id
	})

	ran := 0
	for _, t := range due {
		// an earlier task in this batch may have cancelled it
		if _, ok := s.tasks[t.id]; !ok {
			continue
		}
		s.remove(t)
		t.fn()
		ran++
	}
	return ran
}

// Clear cancels every pending task.
func (s *Scheduler) Clear() {
	s.tasks = make(map[TaskID]*task)
	s.owners = make(map[interface{}]map[TaskID]struct{})
}

func (s *Scheduler) remove(t *task) {
	delete(s.tasks, t.id)
	for _, owner := range t.owners {
		if ids, ok := s.owners[owner]; ok {
			delete(ids, t.id)
			if len(ids) == 0 {
				delete(s.owners, owner)
			}
		}
	}
}
