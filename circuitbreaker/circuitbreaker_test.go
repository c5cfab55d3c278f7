package circuitbreaker

import (
	"testing"
	"time"
)

func TestClosedAllowsRequests(t *testing.T) {
	cb := New(Config{Name: "test", Threshold: 3, Cooldown: time.Minute})

	if !cb.Allow() {
		t.Error("closed circuit should allow requests")
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want CLOSED", cb.State())
	}
}

func TestOpensAfterThreshold(t *testing.T) {
	cb := New(Config{Name: "test", Threshold: 3, Cooldown: time.Minute})

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != StateClosed {
		t.Fatal("circuit should remain closed below threshold")
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want OPEN after %d failures", cb.State(), 3)
	}
	if cb.Allow() {
		t.Error("open circuit should block requests")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(Config{Name: "test", Threshold: 3, Cooldown: time.Minute})

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	if cb.Failures() != 0 {
		t.Errorf("failures = %d, want 0 after success", cb.Failures())
	}
}

func TestHalfOpenAfterCooldown(t *testing.T) {
	cb := New(Config{Name: "test", Threshold: 1, Cooldown: 10 * time.Millisecond})

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatal("circuit should open after threshold of 1")
	}

	time.Sleep(15 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("expected one test request after cooldown")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("state = %v, want HALF-OPEN", cb.State())
	}

	// Second concurrent request in half-open is blocked
	if cb.Allow() {
		t.Error("half-open circuit should block additional requests")
	}

	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want CLOSED after test success", cb.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(Config{Name: "test", Threshold: 1, Cooldown: 10 * time.Millisecond})

	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	cb.Allow() // transitions to half-open

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Errorf("state = %v, want OPEN after half-open failure", cb.State())
	}
}

func TestReset(t *testing.T) {
	cb := New(Config{Name: "test", Threshold: 1, Cooldown: time.Hour})

	cb.RecordFailure()
	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want CLOSED after reset", cb.State())
	}
	if !cb.Allow() {
		t.Error("reset circuit should allow requests")
	}
}

func TestTimeUntilRetry(t *testing.T) {
	cb := New(Config{Name: "test", Threshold: 1, Cooldown: time.Hour})

	if cb.TimeUntilRetry() != 0 {
		t.Error("closed circuit should report zero retry wait")
	}

	cb.RecordFailure()
	if cb.TimeUntilRetry() <= 0 {
		t.Error("open circuit should report positive retry wait")
	}
}
