package scheme

import (
	"errors"
	"strings"
	"testing"
)

// readOne reads src, which must hold exactly one datum, and returns it
// written.
func readOne(t *testing.T, in *Interp, src string) string {
	t.Helper()
	data, err := in.ReadAll(src)
	if err != nil {
		t.Fatalf("%q: %v", src, err)
	}
	if len(data) != 1 {
		t.Fatalf("%q: read %d data", src, len(data))
	}
	return in.Str(data[0])
}

func TestReadNumbers(t *testing.T) {
	in := newTestInterp(t, nil)
	for _, tc := range []struct {
		src, want string
	}{
		{"123", "123"},
		{"+5", "5"},
		{"-0", "0"},
		{"007", "7"},
		{"#xFF", "255"},
		{"#x-ff", "-255"},
		{"#b101", "5"},
		{"#o777", "511"},
		{"#d99", "99"},
		{"#e10", "10"},
		{"#i10", "10"},
		{"#x#e10", "16"},
		{"#e#x10", "16"},
		{"#X1f", "31"},
	} {
		if got := readOne(t, in, tc.src); got != tc.want {
			t.Errorf("%s read as %s, want %s", tc.src, got, tc.want)
		}
	}
}

func TestReadErrors(t *testing.T) {
	in := newTestInterp(t, nil)
	for _, tc := range []struct {
		src, msg string
	}{
		{"2305843009213693952", "Integer too large to be represented -- READ"},
		{"-2305843009213693953", "Integer too large to be represented -- READ"},
		{"#xffffffffffffffffff", "Integer too large to be represented -- READ"},
		{"12ab", "Ill-formed number -- READ"},
		{"#b102", "Ill-formed number -- READ"},
		{"#x#x1", "Ill-formed number -- READ"},
		{"#x", "Ill-formed number -- READ"},
		{"+a", "Unexpected character -- READ"},
		{")", "Unexpected close paren -- READ"},
		{".", "Unexpected dot -- READ"},
		{"( . 1)", "Ill-formed dotted list -- READ"},
		{"(1 . 2 3)", "Ill-formed dotted list -- READ"},
		{"(1 . )", "Ill-formed dotted list -- READ"},
		{"#true", "Expecting delimiter -- READ"},
		{`#\ab`, "Expecting delimiter -- READ"},
		{`#\spade`, "Unknown character name -- READ"},
		{"#q", "Unexpected character -- READ"},
		{"a|b", "Unexpected character in symbol -- READ"},
		{"[1]", "Unexpected character -- READ"},
		{"'.", "Unexpected character after quote -- READ"},
	} {
		_, err := in.ReadAll(tc.src)
		var e *EvalError
		if !errors.As(err, &e) {
			t.Errorf("%q: got %v, want a read error", tc.src, err)
			continue
		}
		if e.Kind != ReadError || !strings.HasPrefix(e.Message, tc.msg) {
			t.Errorf("%q: got %v %q, want %q", tc.src, e.Kind, e.Message, tc.msg)
		}
		if IsIncomplete(err) {
			t.Errorf("%q: reported as incomplete", tc.src)
		}
	}
}

func TestReadIncomplete(t *testing.T) {
	in := newTestInterp(t, nil)
	for _, src := range []string{
		"(", "(1 2", "(1 .", "(1 . 2", `"abc`, "'", "`", ",@", "#", `#\`, "#;", "#; ", "(a #;",
	} {
		_, err := in.ReadAll(src)
		if !IsIncomplete(err) {
			t.Errorf("%q: got %v, want an incomplete read", src, err)
		}
	}
}

func TestReadData(t *testing.T) {
	in := newTestInterp(t, nil)
	for _, tc := range []struct {
		src, want string
	}{
		{"HeLLo", "hello"},
		{"...", "..."},
		{"+", "+"},
		{"-", "-"},
		{"a.b", "a.b"},
		{"list->string", "list->string"},
		{"<=?", "<=?"},
		{"'a", "(quote a)"},
		{"`(a ,b ,@c)", "(quasiquote (a (unquote b) (unquote-splicing c)))"},
		{"(1 . (2 . (3 . ())))", "(1 2 3)"},
		{"(a . b)", "(a . b)"},
		{"(  a\tb\n c )", "(a b c)"},
		{"#T", "#t"},
		{"#F", "#f"},
		{`#\A`, `#\A`},
		{`#\SPACE`, `#\space`},
		{`#\Newline`, `#\newline`},
		{`#\s`, `#\s`},
		{`#\n`, `#\n`},
		{`#\)`, `#\)`},
		{`"tab\tq"`, `"tab\\tq"`},
		{`"a\qb"`, `"a\\qb"`},
		{"(1 #;(2 3) 4)", "(1 4)"},
		{"#;1 2", "2"},
		{"; comment\n 5 ; trailing", "5"},
		{"(a ;inner\n b)", "(a b)"},
	} {
		if got := readOne(t, in, tc.src); got != tc.want {
			t.Errorf("%q read as %s, want %s", tc.src, got, tc.want)
		}
	}
}

func TestReadMultiple(t *testing.T) {
	in := newTestInterp(t, nil)
	data, err := in.ReadAll("1 (2) three \"four\" ")
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, x := range data {
		got = append(got, in.Str(x))
	}
	if s := strings.Join(got, "|"); s != `1|(2)|three|"four"` {
		t.Errorf("read %s", s)
	}
	if data, err := in.ReadAll("  ; nothing\n"); err != nil || len(data) != 0 {
		t.Errorf("blank input: %d data, %v", len(data), err)
	}
}

func TestReaderSkipsRestOfLineAfterError(t *testing.T) {
	in := newTestInterp(t, nil)
	rr := in.NewReader(strings.NewReader("1 ) 2 3\n4\n"))
	expect := func(want string) {
		t.Helper()
		x, err := rr.Read()
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if got := in.Str(x); got != want {
			t.Fatalf("read %s, want %s", got, want)
		}
	}
	expect("1")
	if _, err := rr.Read(); err == nil {
		t.Fatal("stray ) was accepted")
	}
	expect("4")
	expect("#[eof]")
	if rr.LineNo() != 3 {
		t.Errorf("line number %d", rr.LineNo())
	}
}

func TestReaderUsesScanner(t *testing.T) {
	in := newTestInterp(t, nil)
	r := strings.NewReader("(a) b")
	rr := in.NewReader(r)
	x, err := rr.Read()
	if err != nil || in.Str(x) != "(a)" {
		t.Fatalf("read %s, %v", in.Str(x), err)
	}
	// nothing beyond the first datum was consumed
	if r.Len() != len(" b") {
		t.Errorf("%d bytes left", r.Len())
	}
}
