package health

import (
	"testing"
	"time"
)

func TestNewHealthy(t *testing.T) {
	status := NewHealthy("imu", "ring buffer within capacity")

	if status.Component != "imu" {
		t.Errorf("component = %q, want %q", status.Component, "imu")
	}
	if !status.Healthy {
		t.Error("expected Healthy to be true")
	}
	if status.State != StateHealthy {
		t.Errorf("state = %q, want %q", status.State, StateHealthy)
	}
	if status.Message != "ring buffer within capacity" {
		t.Errorf("message = %q", status.Message)
	}
	if status.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestNewUnhealthy(t *testing.T) {
	status := NewUnhealthy("journal", "disk full")

	if status.Healthy {
		t.Error("expected Healthy to be false")
	}
	if status.State != StateUnhealthy {
		t.Errorf("state = %q, want %q", status.State, StateUnhealthy)
	}
}

func TestNewDegraded(t *testing.T) {
	status := NewDegraded("ingress", "dispatch queue above high-water mark")

	if status.Healthy {
		t.Error("expected Healthy to be false for degraded")
	}
	if status.State != StateDegraded {
		t.Errorf("state = %q, want %q", status.State, StateDegraded)
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		sub       []Status
		wantState State
	}{
		{
			name:      "no sub-components",
			sub:       nil,
			wantState: StateHealthy,
		},
		{
			name: "all healthy",
			sub: []Status{
				NewHealthy("ingress", "ok"),
				NewHealthy("journal", "ok"),
				NewHealthy("bridge", "ok"),
			},
			wantState: StateHealthy,
		},
		{
			name: "one unhealthy dominates",
			sub: []Status{
				NewHealthy("ingress", "ok"),
				NewUnhealthy("journal", "disk full"),
				NewDegraded("bridge", "sink slow"),
			},
			wantState: StateUnhealthy,
		},
		{
			name: "degraded without unhealthy",
			sub: []Status{
				NewHealthy("ingress", "ok"),
				NewDegraded("bridge", "sink slow"),
			},
			wantState: StateDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := Aggregate("signalbus", tt.sub)

			if status.Component != "signalbus" {
				t.Errorf("component = %q, want %q", status.Component, "signalbus")
			}
			if status.State != tt.wantState {
				t.Errorf("state = %q, want %q", status.State, tt.wantState)
			}
			if len(status.SubStatuses) != len(tt.sub) {
				t.Errorf("sub-statuses = %d, want %d", len(status.SubStatuses), len(tt.sub))
			}
		})
	}
}

func TestAggregate_DoesNotModifyInput(t *testing.T) {
	sub := []Status{
		NewHealthy("ingress", "ok"),
		NewHealthy("journal", "ok"),
	}

	status := Aggregate("signalbus", sub)
	status.SubStatuses[0].Component = "mutated"

	if sub[0].Component != "ingress" {
		t.Error("aggregate should copy, not alias, its input")
	}
}

func TestHelperTimestamps(t *testing.T) {
	before := time.Now()
	status := NewHealthy("imu", "ok")
	after := time.Now()

	if status.Timestamp.Before(before) || status.Timestamp.After(after) {
		t.Error("timestamp should fall between creation bounds")
	}
}
