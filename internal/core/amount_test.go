package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.50", "1.5", true},
		{"1,50", "1.5", true},
		{"0", "0", true},
		{"1.500,50", "1500.5", true},
		{"R$ 1.500,50", "1500.5", true},
		{"$ 42", "42", true},
		{"€99,90", "99.9", true},
		{"1000000000", "1000000000", true}, // ceiling itself is accepted
		{"abc", "", false},
		{"-5", "", false},
		{"1.500.00.00", "", false},
		{"2000000000", "", false},
		{"1,2,3", "", false},
		{"", "", false},
		{"R$", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tc.in, err)
			}
			if got.String() != tc.out {
				t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.out)
			}
		} else if err == nil {
			t.Fatalf("ParseAmount(%q) expected error, got %s", tc.in, got)
		}
	}
}
