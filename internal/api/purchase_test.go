package api

import "testing"

func TestNextPOSequence(t *testing.T) {
	prefix := "PO-20250314-"

	cases := []struct {
		name  string
		codes []string
		want  int
	}{
		{"empty", nil, 1},
		{"single", []string{"PO-20250314-0001"}, 2},
		{"gap in sequence", []string{"PO-20250314-0001", "PO-20250314-0007"}, 8},
		{"other dates ignored", []string{"PO-20250313-0042"}, 1},
		{"malformed suffix skipped", []string{"PO-20250314-abcd", "PO-20250314-0003"}, 4},
		{"only malformed", []string{"PO-20250314-xyz"}, 1},
		{"beyond padding width", []string{"PO-20250314-10000"}, 10001},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := nextPOSequence(prefix, tc.codes)
			if got != tc.want {
				t.Fatalf("nextPOSequence(%v) = %d, want %d", tc.codes, got, tc.want)
			}
		})
	}
}
