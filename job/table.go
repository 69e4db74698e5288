package job

import (
	"errors"
	"slices"
)

// ErrTableNotEmpty is returned by Reset while jobs are still outstanding.
var ErrTableNotEmpty = errors.New("framejob: job table not empty")

// Table tracks outstanding jobs by id.
type Table struct {
	jobs map[uint32]*Job
	next uint32
}

// NewTable creates an empty job table.
func NewTable() *Table {
	return &Table{jobs: make(map[uint32]*Job)}
}

// NextID returns the next frame-local job id and advances the counter.
func (t *Table) NextID() uint32 {
	n := t.next
	t.next++
	return n
}

// Put records j as outstanding.
func (t *Table) Put(j *Job) {
	t.jobs[j.ID] = j
}

// Take removes and returns the job with the given id.
// It reports false when the id is not outstanding.
func (t *Table) Take(jobID uint32) (*Job, bool) {
	j, ok := t.jobs[jobID]
	if ok {
		delete(t.jobs, jobID)
	}
	return j, ok
}

// Len returns the number of outstanding jobs.
func (t *Table) Len() int { return len(t.jobs) }

// IDs returns the outstanding job ids in ascending order.
func (t *Table) IDs() []uint32 {
	ids := make([]uint32, 0, len(t.jobs))
	for jobID := range t.jobs {
		ids = append(ids, jobID)
	}
	slices.Sort(ids)
	return ids
}

// Reset rewinds the id counter to zero. It fails if any job is still
// outstanding, since a recycled id could then collide with a live one.
func (t *Table) Reset() error {
	if len(t.jobs) != 0 {
		return ErrTableNotEmpty
	}
	t.next = 0
	return nil
}
