package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsInDueOrder(t *testing.T) {
	s := New()
	var ran []string
	s.After(3, func() { ran = append(ran, "c") })
	s.After(1, func() { ran = append(ran, "a") })
	s.After(1, func() { ran = append(ran, "b") })
	s.After(0, func() { ran = append(ran, "zero") })

	assert.Equal(t, 3, s.Advance())
	assert.Equal(t, []string{"a", "b", "zero"}, ran)
	assert.Equal(t, 0, s.Advance())
	assert.Equal(t, 1, s.Advance())
	assert.Equal(t, []string{"a", "b", "zero", "c"}, ran)
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, uint64(3), s.Tick())
}

func TestScheduler_Cancel(t *testing.T) {
	s := New()
	fired := false
	id := s.After(2, func() { fired = true })

	assert.True(t, s.Cancel(id))
	assert.False(t, s.Cancel(id))
	s.Advance()
	s.Advance()
	assert.False(t, fired)
}

func TestScheduler_CancelOwner(t *testing.T) {
	type fruit struct{ n int }
	a, b, c := &fruit{1}, &fruit{2}, &fruit{3}

	s := New()
	var ran []int
	s.After(2, func() { ran = append(ran, 1) }, a, b)
	s.After(2, func() { ran = append(ran, 2) }, b)
	s.After(2, func() { ran = append(ran, 3) }, c)

	assert.Equal(t, 2, s.CancelOwner(b))
	assert.Equal(t, 0, s.CancelOwner(b))
	// a's only task was shared with b
	assert.Equal(t, 0, s.CancelOwner(a))

	s.Advance()
	s.Advance()
	assert.Equal(t, []int{3}, ran)
}

func TestScheduler_TaskCancelsLaterTaskInSameTick(t *testing.T) {
	s := New()
	owner := "player"
	fired := false
	s.After(1, func() { s.CancelOwner(owner) })
	s.After(1, func() { fired = true }, owner)

	assert.Equal(t, 1, s.Advance())
	assert.False(t, fired)
}

func TestScheduler_TaskScheduledDuringAdvanceWaits(t *testing.T) {
	s := New()
	count := 0
	s.After(1, func() {
		count++
		s.After(0, func() { count++ })
	})

	s.Advance()
	assert.Equal(t, 1, count)
	s.Advance()
	assert.Equal(t, 2, count)
}

func TestScheduler_Clear(t *testing.T) {
	s := New()
	s.After(1, func() { t.Fatal("cleared task ran") }, "owner")
	s.Clear()
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 0, s.CancelOwner("owner"))
	s.Advance()
}
