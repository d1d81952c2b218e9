package metrics

import "testing"

func TestHealthTracker_Overall(t *testing.T) {
	tests := []struct {
		name   string
		states map[string]Status
		want   Status
	}{
		{
			name:   "no components",
			states: map[string]Status{},
			want:   StatusHealthy,
		},
		{
			name: "all healthy",
			states: map[string]Status{
				ComponentDictionary:  StatusHealthy,
				ComponentIndexEngine: StatusHealthy,
			},
			want: StatusHealthy,
		},
		{
			name: "one degraded degrades the service",
			states: map[string]Status{
				ComponentDictionary:  StatusDegraded,
				ComponentIndexEngine: StatusHealthy,
			},
			want: StatusDegraded,
		},
		{
			name: "two degraded fail the service",
			states: map[string]Status{
				ComponentDictionary: StatusDegraded,
				ComponentConfig:     StatusDegraded,
			},
			want: StatusUnhealthy,
		},
		{
			name: "any unhealthy fails the service",
			states: map[string]Status{
				ComponentDictionary:  StatusHealthy,
				ComponentIndexEngine: StatusUnhealthy,
			},
			want: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewHealthTracker()
			for comp, st := range tt.states {
				tracker.Set(comp, st, "")
			}
			if got := tracker.Overall(); got != tt.want {
				t.Errorf("Overall() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHealthTracker_SetOverwrites(t *testing.T) {
	tracker := NewHealthTracker()
	tracker.Set(ComponentIndexEngine, StatusUnhealthy, "connection refused")
	tracker.Set(ComponentIndexEngine, StatusHealthy, "")

	if got := tracker.Overall(); got != StatusHealthy {
		t.Errorf("Overall() = %s after recovery, want healthy", got)
	}
	components := tracker.Components()
	if ch := components[ComponentIndexEngine]; ch.LastError != "" {
		t.Errorf("LastError = %q, want cleared", ch.LastError)
	}
	if ch := components[ComponentIndexEngine]; ch.CheckedAt.IsZero() {
		t.Error("CheckedAt should be stamped")
	}
}
