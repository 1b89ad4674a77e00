package utils

import "testing"

func TestParseNumOrZero(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"", "0"},
		{"   ", "0"},
		{"10", "10"},
		{" 12.5 ", "12.5"},
		{"-3", "-3"},
		{"abc", "0"},
		{"1,000", "0"},
		{"12abc", "0"},
	}
	for _, tc := range cases {
		d := ParseNumOrZero(tc.in)
		if d.String() != tc.expected {
			t.Fatalf("ParseNumOrZero(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestFormatFixed2(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"0", "0.00"},
		{"0.2275", "0.23"},
		{"15.75", "15.75"},
		{"1.005", "1.01"},
		{"2", "2.00"},
	}
	for _, tc := range cases {
		if got := FormatFixed2(ParseNumOrZero(tc.in)); got != tc.expected {
			t.Fatalf("FormatFixed2(%s) expected %s, got %s", tc.in, tc.expected, got)
		}
	}
}
