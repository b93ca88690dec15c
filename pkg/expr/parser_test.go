package expr

import (
	"testing"

	"github.com/minz/fpxpp/pkg/macro"
)

func eval(t *testing.T, expression string, macros *macro.Table) (bool, int) {
	t.Helper()
	return Evaluate(expression, macros, func(line string, m *macro.Table) (string, bool) {
		return line, false
	})
}

func TestSingleLiteralIdentity(t *testing.T) {
	cases := []int{0, 1, -1, 42, 1000000}
	for _, n := range cases {
		ok, v := eval(t, itoa(n), macro.NewTable())
		if v != n {
			t.Errorf("evaluate(%d): value = %d, want %d", n, v, n)
		}
		if ok != (n != 0) {
			t.Errorf("evaluate(%d): ok = %v, want %v", n, ok, n != 0)
		}
	}
}

func itoa(n int) string {
	if n < 0 {
		return "-" + itoa(-n)
	}
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func TestPrecedence(t *testing.T) {
	_, v := eval(t, "1+2*3", macro.NewTable())
	if v != 7 {
		t.Errorf("1+2*3 = %d, want 7", v)
	}
	_, v = eval(t, "(1+2)*3", macro.NewTable())
	if v != 9 {
		t.Errorf("(1+2)*3 = %d, want 9", v)
	}
	_, v = eval(t, "2**3**2", macro.NewTable())
	if v != 512 {
		t.Errorf("2**3**2 = %d, want 512 (right-associative)", v)
	}
}

func TestDefined(t *testing.T) {
	m := macro.NewTable()
	m.AddSimple("X", "1")

	ok, v := eval(t, "defined(X)", m)
	if !ok || v != 1 {
		t.Errorf("defined(X) = (%v, %d), want (true, 1)", ok, v)
	}

	ok, v = eval(t, "defined(Y)", m)
	if ok || v != 0 {
		t.Errorf("defined(Y) = (%v, %d), want (false, 0)", ok, v)
	}

	_, v1 := eval(t, "!defined(X)", m)
	_, v2 := eval(t, "defined(X)", m)
	if v1 != 1-v2 {
		t.Errorf("!defined(X) = %d, want %d", v1, 1-v2)
	}
}

func TestDefinedBareForm(t *testing.T) {
	m := macro.NewTable()
	m.AddSimple("FEATURE", "")
	ok, v := eval(t, "defined FEATURE", m)
	if !ok || v != 1 {
		t.Errorf("defined FEATURE = (%v, %d), want (true, 1)", ok, v)
	}
}

func TestLogicalAndComparison(t *testing.T) {
	_, v := eval(t, "1 && 0", macro.NewTable())
	if v != 0 {
		t.Errorf("1 && 0 = %d, want 0", v)
	}
	_, v = eval(t, "3 == 3", macro.NewTable())
	if v != 1 {
		t.Errorf("3 == 3 = %d, want 1", v)
	}
	_, v = eval(t, "3 != 4 && 1 <= 2", macro.NewTable())
	if v != 1 {
		t.Errorf("3 != 4 && 1 <= 2 = %d, want 1", v)
	}
}

func TestBitwiseAndShift(t *testing.T) {
	_, v := eval(t, "6 & 3", macro.NewTable())
	if v != 2 {
		t.Errorf("6 & 3 = %d, want 2", v)
	}
	_, v = eval(t, "6 | 1", macro.NewTable())
	if v != 7 {
		t.Errorf("6 | 1 = %d, want 7", v)
	}
	_, v = eval(t, "5 ^ 1", macro.NewTable())
	if v != 4 {
		t.Errorf("5 ^ 1 = %d, want 4", v)
	}
	_, v = eval(t, "1 << 4", macro.NewTable())
	if v != 16 {
		t.Errorf("1 << 4 = %d, want 16", v)
	}
	_, v = eval(t, "256 >> 4", macro.NewTable())
	if v != 16 {
		t.Errorf("256 >> 4 = %d, want 16", v)
	}
}

func TestTruncatingDivisionAndModulo(t *testing.T) {
	_, v := eval(t, "-7/2", macro.NewTable())
	if v != -3 {
		t.Errorf("-7/2 = %d, want -3 (truncating toward zero)", v)
	}
	_, v = eval(t, "-7%2", macro.NewTable())
	if v != -1 {
		t.Errorf("-7%%2 = %d, want -1 (truncating remainder)", v)
	}
}

func TestDivisionByZeroYieldsZero(t *testing.T) {
	_, v := eval(t, "5/0", macro.NewTable())
	if v != 0 {
		t.Errorf("5/0 = %d, want 0", v)
	}
}

func TestNumberBases(t *testing.T) {
	_, v := eval(t, "0x10", macro.NewTable())
	if v != 16 {
		t.Errorf("0x10 = %d, want 16", v)
	}
	_, v = eval(t, "0b101", macro.NewTable())
	if v != 5 {
		t.Errorf("0b101 = %d, want 5", v)
	}
	_, v = eval(t, "010", macro.NewTable())
	if v != 8 {
		t.Errorf("010 = %d, want 8 (octal)", v)
	}
}

func TestConditionalOperator(t *testing.T) {
	_, v := eval(t, "1 ? 10 : 20", macro.NewTable())
	if v != 10 {
		t.Errorf("1 ? 10 : 20 = %d, want 10", v)
	}
	_, v = eval(t, "0 ? 10 : 20", macro.NewTable())
	if v != 20 {
		t.Errorf("0 ? 10 : 20 = %d, want 20", v)
	}
}

func TestUndefinedIdentifierIsZero(t *testing.T) {
	ok, v := eval(t, "UNKNOWN", macro.NewTable())
	if ok || v != 0 {
		t.Errorf("UNKNOWN = (%v, %d), want (false, 0)", ok, v)
	}
}

func TestMalformedExpressionYieldsZero(t *testing.T) {
	_, v := eval(t, "(1+2", macro.NewTable())
	if v != 0 {
		t.Errorf("unclosed paren should yield 0, got %d", v)
	}
	_, v = eval(t, "1 2", macro.NewTable())
	if v != 0 {
		t.Errorf("trailing extra token should yield 0, got %d", v)
	}
}

func TestMacroIdentifierExpandsBeforeEvaluation(t *testing.T) {
	m := macro.NewTable()
	m.AddSimple("FOO", "21*2")

	substitute := func(line string, macros *macro.Table) (string, bool) {
		if entry, ok := macros.Find(line); ok {
			return entry.Value, false
		}
		return line, false
	}

	_, v := Evaluate("FOO", m, substitute)
	if v != 42 {
		t.Errorf("FOO (= 21*2) = %d, want 42", v)
	}
}
