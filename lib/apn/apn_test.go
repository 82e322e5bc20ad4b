package apn

import "testing"

func TestFormat(t *testing.T) {
	for _, test := range []struct {
		input    string
		expected string
	}{
		{"17604612023", "176-04-612-023"},
		{"176-04-612-023", "176-04-612-023"},
		{"176.04.612.023", "176-04-612-023"},
		{" 176 04 612 023 ", "176-04-612-023"},
		{"1234567890", "1234567890"},
		{"123456789012", "123456789012"},
		{"not an apn", "not an apn"},
		{"", ""},
	} {
		got := Format(test.input)
		if got != test.expected {
			t.Errorf("Format(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestValid(t *testing.T) {
	for _, test := range []struct {
		input    string
		expected bool
	}{
		{"176-04-612-023", true},
		{"17604612023", true},
		{"176.04.612.023", true},
		{"176-04-612-02", false},
		{"hello", false},
		{"", false},
	} {
		got := Valid(test.input)
		if got != test.expected {
			t.Errorf("Valid(%q) = %v, expected %v", test.input, got, test.expected)
		}
	}
}
