package phone

import "testing"

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"abc":              "",
		"+7":               "+7",
		"+777":             "+7 (77",
		"+7777":            "+7 (777",
		"+77771":           "+7 (777) 1",
		"+77771234":        "+7 (777) 123-4",
		"+77771234567":     "+7 (777) 123-45-67",
		"+7 777 123 45 67": "+7 (777) 123-45-67",
		"+7777123456789":   "+7 (777) 123-45-67",
		"77771234567":      "+7 (777) 123-45-67",
		"7":                "+7",
		"87771234567":      "8 (777) 123-45-67",
		"8":                "8",
		"8777":             "8 (777",
		"123":              "123",
		"1234":             "123 4",
		"1234567":          "123 456-7",
		"123456789":        "123 456-78-9",
		"1234567890":       "123 456-78-90",
		"(777) 123-45-67":  "+7 (771) 234-56-7",
	}
	for in, want := range cases {
		if got := Format(in); got != want {
			t.Errorf("Format(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestFormat_Idempotent(t *testing.T) {
	for _, in := range []string{"+77771234567", "87771234567", "1234567890"} {
		once := Format(in)
		if twice := Format(once); twice != once {
			t.Errorf("Format not stable for %q: %q then %q", in, once, twice)
		}
	}
}

func TestClean(t *testing.T) {
	if got := Clean("+7 (777) 123-45-67"); got != "+77771234567" {
		t.Fatalf("unexpected clean result %q", got)
	}
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"+7 (777) 123-45-67": true,
		"+7 (777) 123-45":    false,
		"87771234567":        true,
		"8777123456":         false,
		"77771234567":        true,
		"1234567890":         true,
		"123456789":          false,
		"":                   false,
	}
	for in, want := range cases {
		if got := Valid(in); got != want {
			t.Errorf("Valid(%q): expected %v, got %v", in, want, got)
		}
	}
}
