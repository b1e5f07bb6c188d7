package sqlvars

import (
	"errors"
	"testing"
)

// --------------------------------
// Test utilities
// --------------------------------

// mustSubstitute substitutes and fails the test on error.
func mustSubstitute(t *testing.T, template string, vars Vars) string {
	t.Helper()
	out, err := Substitute(template, vars)
	if err != nil {
		t.Fatalf("Substitute(%q) unexpected error: %v", template, err)
	}
	return out
}

// assertVarError asserts that err is a *VarError wrapping sentinel and
// naming the given placeholder.
func assertVarError(t *testing.T, err error, sentinel error, name string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", sentinel)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("errors.Is(%v, %v) = false", err, sentinel)
	}
	var ve *VarError
	if !errors.As(err, &ve) {
		t.Fatalf("error %T is not *VarError", err)
	}
	if ve.Name != name {
		t.Fatalf("VarError.Name = %q, want %q", ve.Name, name)
	}
}

// TestSubstitute_NoPlaceholders verifies that templates without any
// placeholder pass through unchanged, whatever vars are supplied.
func TestSubstitute_NoPlaceholders(t *testing.T) {
	templates := []string{
		"",
		"SELECT * FROM t",
		"SELECT * FROM t WHERE a = ? AND b = ?",
		"SELECT '{literal}' FROM t -- comment\n",
		"price > $1 and tag = '$x'",
		"curly { and dollar $ apart",
	}
	varSets := []Vars{
		nil,
		{},
		{"X": "whatever"},
	}

	for _, tpl := range templates {
		for _, vars := range varSets {
			if got := mustSubstitute(t, tpl, vars); got != tpl {
				t.Fatalf("Substitute(%q) = %q, want unchanged", tpl, got)
			}
		}
	}
}

// TestSubstitute_Defaults verifies the default-fallback rule.
func TestSubstitute_Defaults(t *testing.T) {
	tests := []struct {
		tpl  string
		want string
	}{
		{"{$DIR=ASC}", "ASC"},
		{"{$X=}", ""},
		{"ORDER BY y {$DIR=ASC}", "ORDER BY y ASC"},
		{"{$LIMIT=10} rows", "10 rows"},
		{"{$OP=<=}", "<="},
		{"{$W=a b\tc}", "a b\tc"},
	}
	for _, tt := range tests {
		if got := mustSubstitute(t, tt.tpl, nil); got != tt.want {
			t.Fatalf("Substitute(%q) = %q, want %q", tt.tpl, got, tt.want)
		}
	}
}

// TestSubstitute_SuppliedPrecedence verifies that a supplied value
// always beats a template default.
func TestSubstitute_SuppliedPrecedence(t *testing.T) {
	if got := mustSubstitute(t, "{$X=A}", Vars{"X": "B"}); got != "B" {
		t.Fatalf("supplied value did not win: got %q", got)
	}
	if got := mustSubstitute(t, "{$X=}", Vars{"X": "B"}); got != "B" {
		t.Fatalf("supplied value did not win over empty default: got %q", got)
	}
}

// TestSubstitute_Missing verifies the failure for a placeholder with
// no value and no default.
func TestSubstitute_Missing(t *testing.T) {
	_, err := Substitute("SELECT * FROM {$TABLE}", nil)
	assertVarError(t, err, ErrMissingVar, "TABLE")

	// Other vars present, the named one absent.
	_, err = Substitute("{$A} {$B}", Vars{"A": "x"})
	assertVarError(t, err, ErrMissingVar, "B")
}

// TestSubstitute_InvalidValue verifies the value grammar on supplied
// values: allow-listed bytes only and never "--".
func TestSubstitute_InvalidValue(t *testing.T) {
	bad := []string{
		"a--b",
		"--",
		"x;y",
		"it's",
		"a%b",
		"semi;",
		"back\\slash",
		"new\nline",
	}
	for _, v := range bad {
		_, err := Substitute("{$N=}", Vars{"N": v})
		assertVarError(t, err, ErrInvalidVarValue, "N")
	}

	good := []string{
		"",
		"ASC",
		"users_2024",
		"a.b-c:d",
		"x <= y",
		"?",
		"a\tb",
		"0123456789",
	}
	for _, v := range good {
		if got := mustSubstitute(t, "{$N=}", Vars{"N": v}); got != v {
			t.Fatalf("value %q: got %q", v, got)
		}
	}
}

// TestSubstitute_MultiplePlaceholders verifies that non-overlapping
// placeholders resolve independently.
func TestSubstitute_MultiplePlaceholders(t *testing.T) {
	tpl := "SELECT {$COLS=*} FROM {$TABLE} ORDER BY {$ORD=id} {$DIR=ASC}"
	got := mustSubstitute(t, tpl, Vars{"TABLE": "users", "DIR": "DESC"})
	want := "SELECT * FROM users ORDER BY id DESC"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	// Same placeholder name twice resolves the same both times.
	got = mustSubstitute(t, "{$A=1}+{$A=2}", Vars{"A": "9"})
	if got != "9+9" {
		t.Fatalf("got %q, want %q", got, "9+9")
	}
}

// TestSubstitute_MalformedLeftAlone verifies that sequences not
// matching the grammar stay literal text.
func TestSubstitute_MalformedLeftAlone(t *testing.T) {
	tests := []string{
		"{$}",
		"{$ NAME}",
		"{$NAME",
		"{$NAME=DEF",
		"{$NA ME}",
		"{NAME}",
		"{$NAME!}",
		"trailing {$",
	}
	for _, tpl := range tests {
		if got := mustSubstitute(t, tpl, Vars{"NAME": "v", "NA": "v"}); got != tpl {
			t.Fatalf("Substitute(%q) = %q, want untouched", tpl, got)
		}
	}
}

// TestSubstitute_NameCharset verifies the full name alphabet,
// including dot and dash.
func TestSubstitute_NameCharset(t *testing.T) {
	got := mustSubstitute(t, "{$a.b-c_9}", Vars{"a.b-c_9": "ok"})
	if got != "ok" {
		t.Fatalf("got %q, want %q", got, "ok")
	}
}

// TestSubstitute_PreservesSurroundings verifies that nothing outside
// matched placeholders is altered, including whitespace, newlines and
// comments.
func TestSubstitute_PreservesSurroundings(t *testing.T) {
	tpl := "SELECT *\n  FROM t -- keep {$this} comment? no: it matches\n WHERE x = ?"
	got := mustSubstitute(t, tpl, Vars{"this": "THAT"})
	want := "SELECT *\n  FROM t -- keep THAT comment? no: it matches\n WHERE x = ?"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// TestSubstitute_Idempotent verifies that a placeholder-free result
// substitutes to itself.
func TestSubstitute_Idempotent(t *testing.T) {
	once := mustSubstitute(t, "ORDER BY y {$DIR=ASC}", nil)
	twice := mustSubstitute(t, once, nil)
	if once != twice {
		t.Fatalf("not idempotent: %q then %q", once, twice)
	}
}

// TestSubstitute_Deterministic runs the same input repeatedly and
// expects identical output; the substitutor keeps no hidden state.
func TestSubstitute_Deterministic(t *testing.T) {
	tpl := "{$A=1} {$B} {$C=x}"
	vars := Vars{"B": "b", "C": "c"}
	first := mustSubstitute(t, tpl, vars)
	for i := 0; i < 50; i++ {
		if got := mustSubstitute(t, tpl, vars); got != first {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
}

// TestSubstitute_FailFast verifies that the first offending
// placeholder aborts the whole substitution with no partial output.
func TestSubstitute_FailFast(t *testing.T) {
	out, err := Substitute("{$A=ok} {$B} {$C=never}", nil)
	assertVarError(t, err, ErrMissingVar, "B")
	if out != "" {
		t.Fatalf("partial output returned: %q", out)
	}
}
