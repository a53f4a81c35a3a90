package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsGetCreatesAndReuses(t *testing.T) {
	s := NewSessions(time.Hour)

	id, c1 := s.Get("")
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	c1.AddItem(item("p1", "1"), 1)
	id2, c2 := s.Get(id)
	assert.Equal(t, id, id2)
	assert.Same(t, c1, c2)
	assert.Equal(t, 1, s.Len())
}

func TestSessionsReplaceMalformedIDs(t *testing.T) {
	s := NewSessions(time.Hour)

	id, _ := s.Get("../../etc/passwd")
	assert.NotEqual(t, "../../etc/passwd", id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestSessionsKeepUnknownValidIDs(t *testing.T) {
	s := NewSessions(time.Hour)
	want := uuid.NewString()

	got, _ := s.Get(want)
	assert.Equal(t, want, got)

	_, ok := s.Lookup(want)
	assert.True(t, ok)
	_, ok = s.Lookup(uuid.NewString())
	assert.False(t, ok)
}

func TestSweepDropsIdleCarts(t *testing.T) {
	s := NewSessions(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	idle, _ := s.Get("")
	now = now.Add(30 * time.Minute)
	active, _ := s.Get("")

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, s.Sweep())

	_, ok := s.Lookup(idle)
	assert.False(t, ok)
	_, ok = s.Lookup(active)
	assert.True(t, ok)
}

func TestRunStopsOnCancel(t *testing.T) {
	s := NewSessions(time.Nanosecond)
	s.Get("")

	ctx, cancel := context.WithCancel(context.Background())
	removed := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond, func(n int) {
			select {
			case removed <- n:
			default:
			}
		})
		close(done)
	}()

	select {
	case n := <-removed:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor never swept")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOnResizeTracksCreatesAndSweeps(t *testing.T) {
	s := NewSessions(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	var sizes []int
	s.OnResize(func(n int) { sizes = append(sizes, n) })

	id, _ := s.Get("")
	s.Get("")
	s.Get(id)
	s.Lookup(uuid.NewString())
	assert.Equal(t, []int{1, 2}, sizes)

	now = now.Add(2 * time.Hour)
	s.Sweep()
	assert.Equal(t, []int{1, 2, 0}, sizes)
}
