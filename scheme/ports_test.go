package scheme

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// quoted returns s as a Scheme string literal.
func quoted(s string) string {
	var b strings.Builder
	writeQuoted(&b, s)
	return b.String()
}

func newConsoleInterp(t *testing.T, input string) (*Interp, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	in := New(Config{
		Stdin:  strings.NewReader(input),
		Stdout: out,
		Abort:  func(msg string) { t.Fatalf("unexpected abort: %s", msg) },
	})
	return in, out
}

func TestConsoleOutput(t *testing.T) {
	in, out := newConsoleInterp(t, "")
	run(t, in, `(display "x = ") (write "a\nb") (newline) (write-char #\!) (display '(1 #\c "s"))`)
	if got, want := out.String(), "x = \"a\\nb\"\n!(1 c s)"; got != want {
		t.Errorf("console got %q, want %q", got, want)
	}
}

func TestConsoleInput(t *testing.T) {
	in, _ := newConsoleInterp(t, "(a b) 42 xy")
	for _, tc := range []evalCase{
		{"(read)", "(a b)"},
		{"(read-char)", `#\space`},
		{"(peek-char)", `#\4`},
		{"(read (current-input-port))", "42"},
		{"(char-ready?)", "#t"},
		{"(read-char) (read-char)", `#\x`},
		{"(read-char)", `#\y`},
		{"(peek-char)", "#[eof]"},
		{"(read-char)", "#[eof]"},
		{"(eof-object? (read))", "#t"},
		{"(char-ready?)", "#f"},
	} {
		if got := run(t, in, tc.src); got != tc.want {
			t.Errorf("%s gave %s, want %s", tc.src, got, tc.want)
		}
	}
}

func TestPortPredicates(t *testing.T) {
	runCases(t, []evalCase{
		{"(input-port? (current-input-port))", "#t"},
		{"(output-port? (current-input-port))", "#f"},
		{"(output-port? (current-output-port))", "#t"},
		{"(input-port? 'x)", "#f"},
	})
	runErrCases(t, []errCase{
		{"(read (current-output-port))", TypeError, "Expecting an input port -- read"},
		{"(write 1 (current-input-port))", TypeError, "Expecting an output port -- write"},
		{"(newline 5)", TypeError, "Expecting an output port -- newline: 5"},
		{`(open-input-file "/nonexistent/file")`, RuntimeError, `Unable to open file: "/nonexistent/file"`},
		{"(close-input-port 'x)", TypeError, "Expecting a port -- close-port: x"},
	})
}

func TestFilePorts(t *testing.T) {
	dir := t.TempDir()
	path := quoted(filepath.Join(dir, "data.scm"))
	in := newTestInterp(t, nil)
	run(t, in, `(call-with-output-file `+path+`
	  (lambda (p) (write '(1 "two" #\3) p) (newline p) (display "four" p)))`)

	b, err := os.ReadFile(filepath.Join(dir, "data.scm"))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(b); got != "(1 \"two\" #\\3)\nfour" {
		t.Errorf("file holds %q", got)
	}

	flushed := quoted(filepath.Join(dir, "flushed.txt"))
	run(t, in, `(define f (open-output-file `+flushed+`)) (display "early" f) (flush-output f)`)
	if b, _ := os.ReadFile(filepath.Join(dir, "flushed.txt")); string(b) != "early" {
		t.Errorf("flush-output left %q on disk", b)
	}
	run(t, in, "(close-output-port f)")

	got := run(t, in, `(call-with-input-file `+path+`
	  (lambda (p) (let* ((a (read p)) (b (read p)) (c (read p))) (list a b (eof-object? c)))))`)
	if got != `((1 "two" #\3) four #t)` {
		t.Errorf("read back %s", got)
	}
}

func TestClosedPort(t *testing.T) {
	path := quoted(filepath.Join(t.TempDir(), "f"))
	in := newTestInterp(t, nil)
	run(t, in, `(define p (open-output-file `+path+`)) (close-output-port p) (close-output-port p)`)
	e := runErr(t, in, "(write 1 p)")
	if e.Kind != RuntimeError || !strings.HasPrefix(e.Error(), "Port is closed -- write") {
		t.Errorf("got %v", e)
	}
	run(t, in, `(define q (open-input-file `+path+`)) (close-input-port q)`)
	if e := runErr(t, in, "(read-char q)"); !strings.HasPrefix(e.Error(), "Port is closed -- read-char") {
		t.Errorf("got %v", e)
	}
}

func TestWithPortRedirection(t *testing.T) {
	dir := t.TempDir()
	path := quoted(filepath.Join(dir, "w.txt"))
	in, out := newConsoleInterp(t, "")
	run(t, in, `(with-output-to-file `+path+` (lambda () (display "inside") (write 'sym)))`)
	run(t, in, `(display "outside")`)
	if out.String() != "outside" {
		t.Errorf("console got %q", out.String())
	}
	got := run(t, in, `(with-input-from-file `+path+` (lambda () (list (read-char) (read))))`)
	if got != `(#\i nsidesym)` {
		t.Errorf("read back %s", got)
	}
	// the current port is restored when the thunk fails
	runErr(t, in, `(with-output-to-file `+path+` (lambda () (car '())))`)
	run(t, in, `(display "!")`)
	if out.String() != "outside!" {
		t.Errorf("console got %q after a failing thunk", out.String())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "lib.scm")
	src := "; library\n(define (square x) (* x x))\n(define loaded 'yes)\n"
	if err := os.WriteFile(name, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	in := newTestInterp(t, nil)
	if got := run(t, in, "(load "+quoted(name)+")"); got != "#!unspecific" {
		t.Errorf("load returned %s", got)
	}
	if got := run(t, in, "(list (square 7) loaded)"); got != "(49 yes)" {
		t.Errorf("after load: %s", got)
	}
	if got := in.Load(name); in.Str(got) != "loaded" {
		t.Errorf("Load returned %s", in.Str(got))
	}

	bad := filepath.Join(dir, "bad.scm")
	os.WriteFile(bad, []byte("(define ok 1)\n(car '())\n(define never 2)\n"), 0o644)
	e := runErr(t, in, "(load "+quoted(bad)+")")
	if e.Error() != "Expecting a pair -- car: ()" {
		t.Errorf("got %v", e)
	}
	if got := run(t, in, "ok"); got != "1" {
		t.Errorf("ok = %s", got)
	}
	runErr(t, in, "never")
}

func TestConsoleREPL(t *testing.T) {
	in, out := newConsoleInterp(t, "(+ 1 2)\n(car '())\n'x\n")
	in.ReadEvalPrintLoop(nil, NewConsole(in, "> "))
	want := "> => 3\n> ;Expecting a pair -- car: ()\n> => x\n> "
	if out.String() != want {
		t.Errorf("got %q\nwant %q", out.String(), want)
	}
}

func TestConsoleREPLKeepsGoingAfterReadError(t *testing.T) {
	in, out := newConsoleInterp(t, "")
	in.ReadEvalPrintLoop(strings.NewReader("1 ) 2\n(display \"hi\")\n"), NewConsole(in, ""))
	want := "=> 1\n;Unexpected close paren -- READ\nhi=> #!unspecific\n"
	if out.String() != want {
		t.Errorf("got %q\nwant %q", out.String(), want)
	}
}

func TestEmacsREPL(t *testing.T) {
	in, out := newConsoleInterp(t, "")
	in.ReadEvalPrintLoop(strings.NewReader("(* 6 7) (car 1)"), NewEmacs(in, "/tmp"))
	const (
		prompt = esc + "p1 [Evaluator]" + esc + esc + "R"
		read   = esc + "s" + esc + "f"
	)
	want := esc + "w/tmp" + esc +
		prompt + read + esc + "v42" + esc +
		prompt + read + ";Expecting a pair -- car: 1\n" + esc + "z" +
		prompt + read
	if out.String() != want {
		t.Errorf("got %q\nwant %q", out.String(), want)
	}
}

func TestReadEvalLoop(t *testing.T) {
	in, out := newConsoleInterp(t, "")
	v, err := in.ReadEvalLoop(strings.NewReader(`(define x 2) (display "a") (* x 5)`))
	if err != nil || in.Str(v) != "10" {
		t.Fatalf("got %s, %v", in.Str(v), err)
	}
	_, err = in.ReadEvalLoop(strings.NewReader(`(display "b") (undefined) (display "c")`))
	if err == nil || err.Error() != "Unbound variable: undefined" {
		t.Errorf("got %v", err)
	}
	if out.String() != "ab" {
		t.Errorf("console got %q", out.String())
	}
	if v, err := in.ReadEvalLoop(strings.NewReader("")); err != nil || v != Unspecified {
		t.Errorf("empty input gave %s, %v", in.Str(v), err)
	}
}
