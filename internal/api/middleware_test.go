package api

import "testing"

func TestPermissionsSatisfied(t *testing.T) {
	cases := []struct {
		name   string
		held   map[string]bool
		wanted []string
		want   bool
	}{
		{
			"wildcard grants everything",
			map[string]bool{"*": true},
			[]string{"inventory.write", "catalog.write"},
			true,
		},
		{
			"all wanted codes held",
			map[string]bool{"inventory.write": true, "catalog.write": true},
			[]string{"inventory.write"},
			true,
		},
		{
			"one wanted code missing",
			map[string]bool{"inventory.write": true},
			[]string{"inventory.write", "catalog.write"},
			false,
		},
		{
			"empty permission set",
			map[string]bool{},
			[]string{"inventory.write"},
			false,
		},
		{
			"no wanted codes always passes",
			map[string]bool{},
			nil,
			true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := permissionsSatisfied(tc.held, tc.wanted); got != tc.want {
				t.Fatalf("permissionsSatisfied(%v, %v) = %v, want %v", tc.held, tc.wanted, got, tc.want)
			}
		})
	}
}
