package display

import "testing"

func TestStatus(t *testing.T) {
	if got := Status(true); got != "SUCCESS" {
		t.Errorf("Status(true) = %q", got)
	}
	if got := Status(false); got != "FAILED" {
		t.Errorf("Status(false) = %q", got)
	}
}

func TestReason(t *testing.T) {
	cases := []struct {
		code, want string
	}{
		{"exit_status", "Non-zero exit"},
		{"launch", "Could not start assembler"},
		{"fault", "Unexpected error"},
		{"", ""},
		{"signal", "signal"},
	}
	for _, tc := range cases {
		if got := Reason(tc.code); got != tc.want {
			t.Errorf("Reason(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}
