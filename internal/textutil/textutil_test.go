package textutil

import "testing"

func TestReplaceVarReferences(t *testing.T) {
	env := map[string]string{"USER": "anna", "HOME": "/home/anna"}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	got := ReplaceVarReferences("$test: ${USER}; home: ${HOME}", lookup)
	want := "$test: anna; home: /home/anna"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Unknown references become empty strings.
	if got := ReplaceVarReferences("x${NOPE}y", lookup); got != "xy" {
		t.Errorf("got %q, want xy", got)
	}

	// No references: unchanged.
	if got := ReplaceVarReferences("plain $text", lookup); got != "plain $text" {
		t.Errorf("got %q, want unchanged input", got)
	}
}

func TestUnindent(t *testing.T) {
	indented := "\n            line one\n            line two"
	if got := Unindent(indented); got != "line one\nline two" {
		t.Errorf("got %q", got)
	}

	mixed := "    a\n      b"
	if got := Unindent(mixed); got != "a\n  b" {
		t.Errorf("got %q", got)
	}

	if got := Unindent(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestListDifference(t *testing.T) {
	onlyA, onlyB := ListDifference([]string{"a", "b", "c"}, []string{"b", "c", "d"})
	if len(onlyA) != 1 || onlyA[0] != "a" {
		t.Errorf("onlyA = %v, want [a]", onlyA)
	}
	if len(onlyB) != 1 || onlyB[0] != "d" {
		t.Errorf("onlyB = %v, want [d]", onlyB)
	}
}

func TestExtendSafe(t *testing.T) {
	dst := map[string]int{"a": 1, "b": 2}
	dup := ExtendSafe(dst, map[string]int{"b": 20, "c": 3})

	if len(dup) != 1 || dup[0] != "b" {
		t.Errorf("dup = %v, want [b]", dup)
	}
	if dst["b"] != 20 || dst["c"] != 3 || dst["a"] != 1 {
		t.Errorf("dst = %v", dst)
	}
}

func TestIsBlank(t *testing.T) {
	for _, s := range []string{"", "  ", "\n \n", "\t\n"} {
		if !IsBlank(s) {
			t.Errorf("IsBlank(%q) = false, want true", s)
		}
	}
	if IsBlank(" x \n") {
		t.Error("IsBlank with content = true, want false")
	}
}

func TestTrimLines(t *testing.T) {
	if got := TrimLines("  a \n\tb\t"); got != "a\nb" {
		t.Errorf("got %q, want %q", got, "a\nb")
	}
}
