package circuitbreaker

import (
	"testing"
	"time"
)

func TestTripsAfterConsecutiveFailures(t *testing.T) {
	b := New(3, 1, time.Minute)
	for i := 0; i < 3; i++ {
		if !b.AllowRequest() {
			t.Fatalf("closed breaker must allow request %d", i)
		}
		b.RecordFailure()
	}
	if b.GetState() != StateOpen {
		t.Fatalf("expected open state, got %s", b.GetState())
	}
	if b.AllowRequest() {
		t.Fatalf("open breaker inside cooldown must reject requests")
	}
}

func TestSuccessResetsFailureRun(t *testing.T) {
	b := New(3, 1, time.Minute)
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	if b.GetState() != StateClosed {
		t.Fatalf("interrupted failure run must not trip the breaker, state=%s", b.GetState())
	}
}

func TestHalfOpenTrialClosesOnSuccess(t *testing.T) {
	b := New(1, 2, 10*time.Millisecond)
	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	if !b.AllowRequest() {
		t.Fatalf("breaker past cooldown must allow a trial request")
	}
	if b.GetState() != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", b.GetState())
	}
	b.RecordSuccess()
	b.RecordSuccess()
	if b.GetState() != StateClosed {
		t.Fatalf("expected closed after %d trial successes, got %s", 2, b.GetState())
	}
}

func TestHalfOpenTrialFailureReopens(t *testing.T) {
	b := New(1, 1, 10*time.Millisecond)
	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	b.AllowRequest()
	b.RecordFailure()
	if b.GetState() != StateOpen {
		t.Fatalf("expected reopened breaker, got %s", b.GetState())
	}
	if b.AllowRequest() {
		t.Fatalf("freshly reopened breaker must reject requests")
	}
}
