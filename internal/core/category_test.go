package core

import (
	"reflect"
	"testing"
)

func TestNormalizeCategory(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"food", "Food", true},
		{"  public   transport ", "Public Transport", true},
		{"RENT", "Rent", true},
		{"", "", false},
		{"   ", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizeCategory(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("NormalizeCategory(%q) = %q, %v; want %q", tc.in, got, err, tc.out)
			}
		} else if err == nil {
			t.Fatalf("NormalizeCategory(%q) expected error", tc.in)
		}
	}
}

func TestCheckCategory(t *testing.T) {
	known := []string{"Food", "Transport", "Housing", "Health"}

	t.Run("exact match is case-insensitive and canonical", func(t *testing.T) {
		m := CheckCategory("fOOd", known)
		if !m.Known || m.Category != "Food" {
			t.Fatalf("expected canonical known match, got %+v", m)
		}
	})

	t.Run("substring match suggests without rejecting", func(t *testing.T) {
		m := CheckCategory("Trans", known)
		if m.Known {
			t.Fatalf("partial match must not count as known: %+v", m)
		}
		if !reflect.DeepEqual(m.Suggestions, []string{"Transport"}) {
			t.Fatalf("expected Transport suggestion, got %v", m.Suggestions)
		}
	})

	t.Run("substring works in both directions", func(t *testing.T) {
		m := CheckCategory("Health Insurance", known)
		if !reflect.DeepEqual(m.Suggestions, []string{"Health"}) {
			t.Fatalf("expected Health suggestion, got %v", m.Suggestions)
		}
	})

	t.Run("new category has no suggestions", func(t *testing.T) {
		m := CheckCategory("Pets", known)
		if m.Known || len(m.Suggestions) != 0 {
			t.Fatalf("expected unknown with no suggestions, got %+v", m)
		}
	})
}
