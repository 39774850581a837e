package referee

import "testing"

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		name string
		o    Outcome
		want string
	}{
		{"limit", Outcome{Kind: EndLimit}, "RESULT LIMIT"},
		{"result", Outcome{Kind: EndResult, Agent: "A", Text: "RESULT A 25 23"}, "RESULT A 25 23"},
		{"timeout", disqualifyTimeout("B", 4), "RESULT Joueur B disqualifié (timeout)"},
		{"invalid", disqualifyInvalid("A", "18X", 0), "RESULT Joueur A disqualifié (coup invalide : 18X)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.o.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutcome_Disqualified(t *testing.T) {
	for kind, want := range map[EndKind]bool{
		EndResult:      false,
		EndLimit:       false,
		EndTimeout:     true,
		EndInvalidMove: true,
	} {
		if got := (Outcome{Kind: kind}).Disqualified(); got != want {
			t.Errorf("Outcome{%s}.Disqualified() = %v, want %v", kind, got, want)
		}
	}
}

func TestExitCode(t *testing.T) {
	err := &ExitError{Code: 3}
	if code, ok := ExitCode(err); !ok || code != 3 {
		t.Errorf("ExitCode() = %d, %v; want 3, true", code, ok)
	}
	if _, ok := ExitCode(ErrTimeout); ok {
		t.Error("ExitCode(ErrTimeout) reported an exit code")
	}
	if err.Error() != "referee: exit status 3" {
		t.Errorf("Error() = %q", err.Error())
	}
}
