package scheme

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// newTestInterp returns an interpreter with a small heap whose console
// output goes to out, if out is not nil.
func newTestInterp(t *testing.T, out *bytes.Buffer) *Interp {
	t.Helper()
	cfg := Config{
		HeapSize: 16 << 20,
		Stdin:    strings.NewReader(""),
		Abort:    func(msg string) { t.Fatalf("unexpected abort: %s", msg) },
	}
	if out != nil {
		cfg.Stdout = out
	} else {
		cfg.Stdout = &bytes.Buffer{}
	}
	return New(cfg)
}

// run evaluates src and returns the written form of its last value.
func run(t *testing.T, in *Interp, src string) string {
	t.Helper()
	v, err := in.EvalString(src)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", src, err)
	}
	return in.Str(v)
}

// runErr evaluates src, which must fail, and returns the error.
func runErr(t *testing.T, in *Interp, src string) *EvalError {
	t.Helper()
	v, err := in.EvalString(src)
	if err == nil {
		t.Fatalf("%s: expected an error, got %s", src, in.Str(v))
	}
	var e *EvalError
	if !errors.As(err, &e) {
		t.Fatalf("%s: error %v is not an *EvalError", src, err)
	}
	return e
}

type evalCase struct {
	src, want string
}

func runCases(t *testing.T, cases []evalCase) {
	t.Helper()
	for _, tc := range cases {
		in := newTestInterp(t, nil)
		if got := run(t, in, tc.src); got != tc.want {
			t.Errorf("%s\nwant: %s\ngot:  %s", tc.src, tc.want, got)
		}
	}
}

type errCase struct {
	src  string
	kind ErrorKind
	msg  string // expected prefix of Error()
}

func runErrCases(t *testing.T, cases []errCase) {
	t.Helper()
	for _, tc := range cases {
		in := newTestInterp(t, nil)
		e := runErr(t, in, tc.src)
		if e.Kind != tc.kind {
			t.Errorf("%s: kind %v, want %v (%v)", tc.src, e.Kind, tc.kind, e)
		}
		if !strings.HasPrefix(e.Error(), tc.msg) {
			t.Errorf("%s: error %q, want prefix %q", tc.src, e.Error(), tc.msg)
		}
	}
}

//----------------------------------------------------------------------

func TestRoundTrip(t *testing.T) {
	in := newTestInterp(t, nil)
	for _, src := range []string{
		"42", "-7", "0", "#t", "#f", "()", "foo", "...", "+", "-",
		`"a\"b\\c\nd"`, `""`, `#\a`, `#\space`, `#\newline`, `#\(`,
		"(1 (2 3) . 4)", "(a b c)", "(quote x)", "(() (()))",
		"2305843009213693951", "-2305843009213693952",
	} {
		data, err := in.ReadAll(src)
		if err != nil || len(data) != 1 {
			t.Fatalf("%s: read %d data, error %v", src, len(data), err)
		}
		if got := in.Str(data[0]); got != src {
			t.Errorf("round trip of %s gave %s", src, got)
		}
	}
}

func TestSymbolIdentity(t *testing.T) {
	in := newTestInterp(t, nil)
	data, err := in.ReadAll("Foo FOO foo")
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range data {
		if x != in.Sym("foo") {
			t.Errorf("%s is not the interned symbol foo", in.Str(x))
		}
	}
	if got := run(t, in, "(eq? 'abc 'ABC (string->symbol \"abc\"))"); got != "#t" {
		t.Errorf("eq? of equal symbols: %s", got)
	}
}

func TestTailCallsRunInConstantDepth(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates about 112 MB")
	}
	in := New(Config{
		HeapSize: 256 << 20,
		Stdout:   &bytes.Buffer{},
		Abort:    func(msg string) { t.Fatalf("unexpected abort: %s", msg) },
	})
	run(t, in, "(define (loop n) (if (= n 0) 'done (loop (- n 1))))")
	in.MaxDepthSeen = 0
	if got := run(t, in, "(loop 1000000)"); got != "done" {
		t.Fatalf("loop returned %s", got)
	}
	if in.MaxDepthSeen > 8 {
		t.Errorf("evaluation nested %d levels deep", in.MaxDepthSeen)
	}
}

func TestPrimitiveArity(t *testing.T) {
	runErrCases(t, []errCase{
		{"(cons 1)", ArityError, "Expecting 2 arguments -- cons"},
		{"(cons 1 2 3)", ArityError, "Expecting 2 arguments -- cons"},
		{"(car)", ArityError, "Expecting 1 argument -- car"},
		{"(eq? 'a)", ArityError, "Expecting at least 2 arguments -- eq?"},
		{"(number->string)", ArityError, "Expecting 1 or 2 arguments -- number->string"},
	})
}

func TestLetStarSeesEarlierBindings(t *testing.T) {
	runCases(t, []evalCase{
		{"(let* ((x 1) (y (+ x 1))) y)", "2"},
		{"(let ((x 10)) (let* ((x 1) (y x)) y))", "1"},
	})
}

func TestLetrecMutualRecursion(t *testing.T) {
	runCases(t, []evalCase{
		{`(letrec ((ev? (lambda (n) (if (= n 0) #t (od? (- n 1)))))
		           (od? (lambda (n) (if (= n 0) #f (ev? (- n 1))))))
		    (ev? 100))`, "#t"},
	})
}

func TestMisplacedElse(t *testing.T) {
	in := newTestInterp(t, nil)
	run(t, in, "(define x 0)")
	e := runErr(t, in, "(cond ((begin (set! x 1) #f) 1) (else 2) (#t 3))")
	if e.Kind != SyntaxError {
		t.Errorf("kind %v, want %v", e.Kind, SyntaxError)
	}
	if got := run(t, in, "x"); got != "0" {
		t.Errorf("a clause ran before the misplaced else was found: x = %s", got)
	}
}

func TestQuasiquoteSplicing(t *testing.T) {
	runCases(t, []evalCase{
		{"`(1 ,(+ 1 1) ,@(list 3 4))", "(1 2 3 4)"},
	})
}

func TestCyclicListPrinting(t *testing.T) {
	in := newTestInterp(t, nil)
	got := run(t, in, "(define c (list 1 2 3)) (set-cdr! (cddr c) c) c")
	if got != "#[unprintable-cyclic-structure]" {
		t.Errorf("cyclic list printed as %s", got)
	}
}

func TestVariadicParameters(t *testing.T) {
	runCases(t, []evalCase{
		{"((lambda (a . rest) rest) 1 2 3)", "(2 3)"},
		{"((lambda args args) 1 2)", "(1 2)"},
		{"((lambda (a b . rest) rest) 1 2)", "()"},
	})
	runErrCases(t, []errCase{
		{"((lambda (a b . rest) rest) 1)", ArityError, "Too few arguments supplied"},
		{"((lambda (a) a))", ArityError, "Too few arguments supplied"},
		{"((lambda (a) a) 1 2)", ArityError, "Too many arguments supplied"},
	})
}

//----------------------------------------------------------------------

type abortPanic string

func TestStartupErrorIsFatal(t *testing.T) {
	var got abortPanic
	func() {
		defer func() {
			if e := recover(); e != nil {
				got = e.(abortPanic)
			}
		}()
		New(Config{
			Prelude: "(car 1)",
			Stdout:  &bytes.Buffer{},
			Abort:   func(msg string) { panic(abortPanic(msg)) },
		})
		t.Fatal("New returned despite a failing prelude")
	}()
	if !strings.Contains(string(got), "initialization") || !strings.Contains(string(got), "car") {
		t.Errorf("abort message %q", got)
	}
}

func TestReadyAfterStartup(t *testing.T) {
	in := newTestInterp(t, nil)
	if !in.Ready() {
		t.Fatal("interpreter not ready after New")
	}
	// errors are recoverable from now on
	runErr(t, in, "(car 1)")
	if got := run(t, in, "(+ 1 2)"); got != "3" {
		t.Errorf("after an error: %s", got)
	}
}

func TestHeapExhaustionIsFatal(t *testing.T) {
	var msg abortPanic
	in := New(Config{
		HeapSize: 1 << 20,
		Stdout:   &bytes.Buffer{},
		Abort:    func(m string) { panic(abortPanic(m)) },
	})
	func() {
		defer func() {
			e := recover()
			if e == nil {
				t.Fatal("no abort")
			}
			msg = e.(abortPanic)
		}()
		in.EvalString("(define (grow l) (grow (cons 1 l))) (grow '())")
		t.Fatal("EvalString returned after exhausting the heap")
	}()
	if !strings.Contains(string(msg), "out of memory") {
		t.Errorf("abort message %q", msg)
	}
}

func TestHeapTooSmallForStartup(t *testing.T) {
	aborted := false
	func() {
		defer func() { recover() }()
		New(Config{
			HeapSize: 1024,
			Stdout:   &bytes.Buffer{},
			Abort:    func(string) { aborted = true; panic(abortPanic("")) },
		})
	}()
	if !aborted {
		t.Error("a 1 KiB heap did not abort startup")
	}
}

func TestRecursionLimit(t *testing.T) {
	in := New(Config{
		MaxDepth: 500,
		Stdout:   &bytes.Buffer{},
		Abort:    func(msg string) { t.Fatalf("unexpected abort: %s", msg) },
	})
	e := runErr(t, in, "(define (f n) (+ 1 (f n))) (f 1)")
	if e.Kind != RuntimeError || !strings.HasPrefix(e.Message, "Aborting!: maximum recursion depth exceeded") {
		t.Errorf("got %v (%v)", e, e.Kind)
	}
	if got := run(t, in, "(+ 1 2)"); got != "3" {
		t.Errorf("after the limit: %s", got)
	}
}

func TestUncheckedAccessors(t *testing.T) {
	checked := newTestInterp(t, nil)
	func() {
		defer func() {
			e, ok := recover().(*EvalError)
			if !ok || e.Kind != TypeError || e.Message != "Object is not a pair -- CAR" {
				t.Errorf("checked Car of a fixnum: %v", e)
			}
		}()
		checked.Car(MakeFixnum(1))
	}()

	unchecked := New(Config{Unchecked: true, Stdout: &bytes.Buffer{}})
	unchecked.Car(MakeFixnum(1)) // no check, no panic
	if got := run(t, unchecked, "(car '(1 2))"); got != "1" {
		t.Errorf("unchecked car: %s", got)
	}
	// primitives still check their arguments
	if e := runErr(t, unchecked, "(car 1)"); e.Kind != TypeError {
		t.Errorf("unchecked (car 1): %v", e)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HeapSize != DefaultHeapSize || cfg.MaxDepth != DefaultMaxDepth {
		t.Errorf("defaults: heap %d, depth %d", cfg.HeapSize, cfg.MaxDepth)
	}
	if cfg.Logger == nil || cfg.Abort == nil || cfg.Exit == nil || cfg.Prelude == "" {
		t.Error("a default is missing")
	}
}

func TestErrorWrapsCause(t *testing.T) {
	in := newTestInterp(t, nil)
	_, err := in.ReadAll("(1 2")
	if !IsIncomplete(err) {
		t.Errorf("%v does not wrap ErrIncomplete", err)
	}
	_, err = in.ReadAll(")")
	if err == nil || IsIncomplete(err) {
		t.Errorf("a stray ) gave %v", err)
	}
}
