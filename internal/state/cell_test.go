package state

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
)

func TestCell_GetReturnsCopy(t *testing.T) {
	c := NewCell([]string{"a", "b"}, slices.Clone[[]string])

	got := c.Get()
	got[0] = "z"

	if c.Get()[0] != "a" {
		t.Fatalf("Get should clone; stored value was mutated to %v", c.Get())
	}
}

func TestCell_SetIfCurrent(t *testing.T) {
	c := NewCell(1, nil)

	token := c.Token()
	c.Set(2)

	if c.SetIfCurrent(token, 3) {
		t.Fatalf("SetIfCurrent with stale token = true, want false")
	}
	if got := c.Get(); got != 2 {
		t.Fatalf("value = %d, want 2", got)
	}

	if !c.SetIfCurrent(c.Token(), 4) {
		t.Fatalf("SetIfCurrent with current token = false, want true")
	}
	if got := c.Get(); got != 4 {
		t.Fatalf("value = %d, want 4", got)
	}
}

func TestCell_UpdateAdvancesToken(t *testing.T) {
	c := NewCell(10, nil)
	before := c.Token()

	prev, token := c.Update(func(v int) int { return v + 1 })

	if prev != 10 {
		t.Fatalf("prev = %d, want 10", prev)
	}
	if token <= before {
		t.Fatalf("token = %d, want > %d", token, before)
	}
	if c.Get() != 11 {
		t.Fatalf("value = %d, want 11", c.Get())
	}
}

func TestOptimistic_CommitKeepsValue(t *testing.T) {
	c := NewCell(false, nil)
	var seen bool

	outcome, err := Optimistic(context.Background(), c,
		func(v bool) bool { return !v },
		func(_ context.Context, applied bool) error {
			seen = applied
			if !c.Get() {
				t.Errorf("value not applied before commit")
			}
			return nil
		})

	if err != nil || outcome != Committed {
		t.Fatalf("Optimistic = %v, %v; want Committed, nil", outcome, err)
	}
	if !seen || !c.Get() {
		t.Fatalf("applied = %v, value = %v; want true, true", seen, c.Get())
	}
}

func TestOptimistic_FailureRestoresSnapshot(t *testing.T) {
	c := NewCell([]string{"a", "b", "c"}, slices.Clone[[]string])
	boom := errors.New("boom")

	outcome, err := Optimistic(context.Background(), c,
		func(v []string) []string { return []string{v[2], v[0], v[1]} },
		func(context.Context, []string) error { return boom })

	if !errors.Is(err, boom) || outcome != Restored {
		t.Fatalf("Optimistic = %v, %v; want Restored, boom", outcome, err)
	}
	if got := c.Get(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("value = %v, want original order", got)
	}
}

func TestOptimistic_FailureAfterConcurrentWriteIsSuperseded(t *testing.T) {
	c := NewCell(1, nil)
	boom := errors.New("boom")

	outcome, err := Optimistic(context.Background(), c,
		func(v int) int { return v + 1 },
		func(context.Context, int) error {
			c.Set(42)
			return boom
		})

	if !errors.Is(err, boom) || outcome != Superseded {
		t.Fatalf("Optimistic = %v, %v; want Superseded, boom", outcome, err)
	}
	if got := c.Get(); got != 42 {
		t.Fatalf("value = %d, want concurrent write 42 kept", got)
	}
}

func TestCell_ConcurrentAccess(t *testing.T) {
	c := NewCell(0, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Update(func(v int) int { return v + 1 })
		}()
		go func() {
			defer wg.Done()
			_ = c.Get()
		}()
	}
	wg.Wait()
	if got := c.Get(); got != 50 {
		t.Fatalf("value = %d, want 50", got)
	}
}
