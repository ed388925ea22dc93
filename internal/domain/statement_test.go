package domain

import "testing"

func TestStatement_Servable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		st     Statement
		strict bool
		want   bool
	}{
		{"active unmoderated", Statement{Active: true, Mod: ModUnmoderated, Velocity: 1}, false, true},
		{"approved under strict", Statement{Active: true, Mod: ModApproved, Velocity: 1}, true, true},
		{"unmoderated under strict", Statement{Active: true, Mod: ModUnmoderated, Velocity: 1}, true, false},
		{"banned", Statement{Active: true, Mod: ModBanned, Velocity: 1}, false, false},
		{"zero velocity", Statement{Active: true, Mod: ModApproved, Velocity: 0}, false, false},
		{"inactive", Statement{Active: false, Mod: ModApproved, Velocity: 1}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.st.Servable(tt.strict); got != tt.want {
				t.Errorf("Servable(%v) = %v, want %v", tt.strict, got, tt.want)
			}
		})
	}
}

func TestLangMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		have, want string
		match      bool
	}{
		{"en", "en", true},
		{"en-US", "en", true},
		{"en", "en-GB", true},
		{"pt_BR", "pt", true},
		{"en", "de", false},
		{"", "en", false},
		{"en", "", false},
	}

	for _, tt := range tests {
		if got := LangMatches(tt.have, tt.want); got != tt.match {
			t.Errorf("LangMatches(%q, %q) = %v, want %v", tt.have, tt.want, got, tt.match)
		}
	}
}

func TestSnapshot_WeightFor_Defaults(t *testing.T) {
	t.Parallel()

	var nilSnap *PrioritySnapshot
	if nilSnap.WeightFor(1) != DefaultPriority {
		t.Error("nil snapshot must default")
	}

	s := &PrioritySnapshot{Weights: map[int64]float64{1: 4, 2: 0, 3: -1}}
	if s.WeightFor(1) != 4 {
		t.Error("stored weight not returned")
	}
	if s.WeightFor(2) != DefaultPriority || s.WeightFor(3) != DefaultPriority {
		t.Error("non-positive weights must default")
	}
	if s.WeightFor(99) != DefaultPriority {
		t.Error("missing entry must default")
	}
}
