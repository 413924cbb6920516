package timeutil

import (
	"testing"
	"time"
)

func TestFrameInterval(t *testing.T) {
	tests := []struct {
		fps  float64
		want time.Duration
	}{
		{60, 16666666 * time.Nanosecond},
		{30, 33333333 * time.Nanosecond},
		{0, 16666666 * time.Nanosecond},
		{-5, 16666666 * time.Nanosecond},
		{1000, time.Millisecond},
	}
	for _, tt := range tests {
		if got := FrameInterval(tt.fps); got != tt.want {
			t.Errorf("FrameInterval(%v) = %v, want %v", tt.fps, got, tt.want)
		}
	}
}

func TestRealClock_NewTicker(t *testing.T) {
	clock := RealClock{}
	ticker := clock.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Error("ticker did not fire")
	}
}

func TestMockClock_AdvanceFiresDueTickers(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	clock := NewMockClock(start)
	ticker := clock.NewTicker(16 * time.Millisecond)

	clock.Advance(10 * time.Millisecond)
	select {
	case <-ticker.C():
		t.Fatal("ticker fired early")
	default:
	}

	clock.Advance(6 * time.Millisecond)
	select {
	case got := <-ticker.C():
		if want := start.Add(16 * time.Millisecond); !got.Equal(want) {
			t.Errorf("tick at %v, want %v", got, want)
		}
	default:
		t.Fatal("ticker did not fire when due")
	}

	if got := clock.Now(); !got.Equal(start.Add(16 * time.Millisecond)) {
		t.Errorf("Now() = %v", got)
	}
}

func TestMockTicker_BuffersOneTick(t *testing.T) {
	clock := NewMockClock(time.Time{})
	ticker := clock.NewTicker(time.Millisecond)

	for i := 0; i < 5; i++ {
		clock.Advance(time.Millisecond)
	}
	<-ticker.C()
	select {
	case <-ticker.C():
		t.Error("more than one tick was pending")
	default:
	}
}

func TestMockTicker_StopAndReset(t *testing.T) {
	clock := NewMockClock(time.Time{})
	ticker := clock.NewTicker(time.Millisecond)
	mt := clock.Tickers()[0]

	ticker.Stop()
	if !mt.Stopped() {
		t.Fatal("Stopped() = false after Stop")
	}
	clock.Advance(time.Second)
	select {
	case <-ticker.C():
		t.Error("stopped ticker fired")
	default:
	}

	ticker.Reset(2 * time.Millisecond)
	if mt.Stopped() || mt.Interval() != 2*time.Millisecond {
		t.Errorf("after Reset: stopped=%v interval=%v", mt.Stopped(), mt.Interval())
	}
	clock.Advance(2 * time.Millisecond)
	<-ticker.C()
}

func TestMockTicker_Trigger(t *testing.T) {
	clock := NewMockClock(time.Time{})
	ticker := clock.NewTicker(time.Hour)
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	clock.Tickers()[0].Trigger(at)
	if got := <-ticker.C(); !got.Equal(at) {
		t.Errorf("Trigger delivered %v, want %v", got, at)
	}
}
