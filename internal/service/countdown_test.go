package service

import (
	"context"
	"testing"
	"time"
)

func TestCountdown_WrapsToPeriod(t *testing.T) {
	t.Parallel()

	c := NewCountdown(10, nil)
	// start from 3 like a countdown that has been running for a while
	for i := 0; i < 7; i++ {
		c.Tick()
	}
	if got := c.State().SecondsRemaining; got != 3 {
		t.Fatalf("remaining = %d; want 3", got)
	}

	want := []int{2, 1, 0, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0, 10}
	for i, w := range want {
		if got := c.Tick(); got != w {
			t.Fatalf("tick %d: got %d; want %d", i, got, w)
		}
	}
}

func TestCountdown_ResetAndRestart(t *testing.T) {
	t.Parallel()

	var observed []int
	c := NewCountdown(5, func(n int) { observed = append(observed, n) })
	c.Tick()
	c.Tick()
	c.Restart()
	if got := c.State().SecondsRemaining; got != 5 {
		t.Fatalf("after Restart remaining = %d; want 5", got)
	}

	c.Reset(9015)
	st := c.State()
	if st.SecondsRemaining != 9015 || st.PeriodSeconds != 9015 || st.Display != "02:30:15" {
		t.Fatalf("unexpected state after Reset: %+v", st)
	}
	if len(observed) != 2 || observed[0] != 4 || observed[1] != 3 {
		t.Fatalf("observer saw %v", observed)
	}
}

func TestCountdown_NonPositivePeriodPinsAtZero(t *testing.T) {
	t.Parallel()

	c := NewCountdown(0, nil)
	for i := 0; i < 3; i++ {
		if got := c.Tick(); got != 0 {
			t.Fatalf("tick %d = %d; want 0", i, got)
		}
	}
	c.Reset(-4)
	if st := c.State(); st.PeriodSeconds != 0 || st.SecondsRemaining != 0 {
		t.Fatalf("negative period should clamp to 0, got %+v", st)
	}
}

func TestCountdown_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	c := NewCountdown(100, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(40 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	frozen := c.State().SecondsRemaining
	if frozen >= 100 {
		t.Fatalf("countdown never ticked")
	}
	time.Sleep(20 * time.Millisecond)
	if got := c.State().SecondsRemaining; got != frozen {
		t.Fatalf("countdown moved after cancel: %d -> %d", frozen, got)
	}
}

func TestFormatHMS(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   int
		want string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{7200, "02:00:00"},
		{9015, "02:30:15"},
		{359999, "99:59:59"},
		{360000, "00:00:00"},
		{-1, "00:00:00"},
	}
	for _, tc := range cases {
		if got := FormatHMS(tc.in); got != tc.want {
			t.Fatalf("FormatHMS(%d) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
