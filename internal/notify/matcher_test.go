package notify

import (
	"reflect"
	"testing"
)

func TestParseMatchers(t *testing.T) {
	cases := []struct {
		in   string
		want Matchers
	}{
		{"", nil},
		{" , ,", nil},
		{"ada", Matchers{"ada"}},
		{" ada , alovelace ", Matchers{"ada", "alovelace"}},
		{"ada,ADA,Ada", Matchers{"ada"}},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseMatchers(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ParseMatchers(%q) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	m := ParseMatchers("ada, lovelace@example.org")

	cases := []struct {
		author string
		want   bool
	}{
		{"Ada Lovelace <ada@example.org>", true},
		{"A. Lovelace <LOVELACE@example.org>", true},
		{"Charles Babbage <cb@example.org>", false},
		{"", false},
	}

	for _, tc := range cases {
		t.Run(tc.author, func(t *testing.T) {
			if got := m.Match(tc.author); got != tc.want {
				t.Errorf("Match(%q) = %v, want %v", tc.author, got, tc.want)
			}
		})
	}

	if Matchers(nil).Match("anyone") {
		t.Error("no matchers must match nothing")
	}
}
