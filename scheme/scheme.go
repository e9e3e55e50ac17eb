/*
  MiniMe: a small Scheme interpreter in Go.

  Every object lives in one preallocated arena of tagged words and is
  never reclaimed. Special forms are expanded into a few core forms
  as they are evaluated; calls in tail position run in constant space.
*/
package scheme

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const Version = "1.0"

// ErrorKind classifies an EvalError.
type ErrorKind int

const (
	ReadError ErrorKind = iota + 1
	UnboundVariable
	ArityError
	TypeError
	ApplyError
	SyntaxError
	RuntimeError
)

var errorKindNames = map[ErrorKind]string{
	ReadError:       "read error",
	UnboundVariable: "unbound variable",
	ArityError:      "arity error",
	TypeError:       "type error",
	ApplyError:      "apply error",
	SyntaxError:     "syntax error",
	RuntimeError:    "runtime error",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("error(%d)", int(k))
}

// ErrIncomplete is wrapped by read errors caused by the input ending in
// the middle of a datum.
var ErrIncomplete = errors.New("unexpected end of input")

// EvalError represents a recoverable error raised while reading or
// evaluating. Object is the offending value, if any; its printed form
// is captured in the message when the error is raised.
type EvalError struct {
	Kind    ErrorKind
	Message string
	Object  Value
	text    string
	cause   error
}

// err.Error() returns the message followed by the offending object.
func (err *EvalError) Error() string {
	return err.text
}

func (err *EvalError) Unwrap() error {
	return err.cause
}

// fatalError is raised if Config.Abort returns.
type fatalError struct {
	msg string
}

func (f *fatalError) Error() string { return f.msg }

// newError builds an EvalError for msg about x. No object is shown when
// x is Unspecified.
func (in *Interp) newError(kind ErrorKind, msg string, x Value, cause error) *EvalError {
	text := msg
	if x != Unspecified {
		text = msg + ": " + in.Str(x)
	}
	return &EvalError{Kind: kind, Message: msg, Object: x, text: text, cause: cause}
}

// fail raises an EvalError. Before the interpreter is ready there is no
// restart point, so the failure is fatal.
func (in *Interp) fail(kind ErrorKind, msg string, x Value) {
	in.raise(in.newError(kind, msg, x, nil))
}

func (in *Interp) raise(err *EvalError) {
	if !in.ready {
		in.abort("error during initialization: " + err.Error())
	}
	panic(err)
}

func (in *Interp) abort(msg string) {
	in.fatal = true
	in.log.Error("aborting", "reason", msg)
	in.cfg.Abort(msg)
	panic(&fatalError{msg})
}

//----------------------------------------------------------------------

// Config holds the settings of an interpreter. The zero value of each
// field selects its default.
type Config struct {
	// HeapSize is the arena size in bytes.
	HeapSize int

	// Unchecked disables the type checks of the object accessors.
	Unchecked bool

	// MaxDepth bounds the nesting of non-tail evaluations.
	MaxDepth int

	Stdin  io.Reader
	Stdout io.Writer

	Logger *slog.Logger

	// Abort is called on fatal errors, such as arena exhaustion or any
	// error before the interpreter is ready. It should not return.
	Abort func(msg string)

	// Exit implements the exit primitive.
	Exit func(code int)

	// Prelude replaces the Scheme source evaluated at startup.
	Prelude string
}

const DefaultMaxDepth = 100000

// ExitSoftware is the exit status of a fatal abort.
const ExitSoftware = 70

// DefaultConfig returns the configuration New uses for zero fields.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (cfg Config) withDefaults() Config {
	if cfg.HeapSize <= 0 {
		cfg.HeapSize = DefaultHeapSize
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Abort == nil {
		cfg.Abort = func(msg string) {
			fmt.Fprintln(os.Stderr, ";"+msg)
			os.Exit(ExitSoftware)
		}
	}
	if cfg.Exit == nil {
		cfg.Exit = os.Exit
	}
	if cfg.Prelude == "" {
		cfg.Prelude = prelude
	}
	return cfg
}

// Interp is an interpreter instance. It owns its arena, symbol table and
// global environment, and must be used from one goroutine at a time.
type Interp struct {
	cfg  Config
	log  *slog.Logger
	safe bool

	heap    *Arena
	symbols *symbolTable

	// ready is set once the primitives and the prelude are installed.
	ready bool
	// fatal is set once Abort has been called; nothing is recovered
	// after that.
	fatal bool

	kw     keywords
	fsubrs map[Value]FSubr
	prims  []primitive
	ports  []*port

	global Value
	curIn  Value
	curOut Value

	// procedures used by expansions; user bindings cannot shadow them
	consProc, appendProc, memvProc, makePromise Value

	depth        int
	MaxDepthSeen int
}

// New constructs an interpreter with its global environment populated.
// Any failure here goes to cfg.Abort.
func New(cfg Config) *Interp {
	cfg = cfg.withDefaults()
	in := &Interp{
		cfg:  cfg,
		log:  cfg.Logger,
		safe: !cfg.Unchecked,
	}
	in.heap = newArena(cfg.HeapSize, in.exhausted)
	in.symbols = newSymbolTable()
	in.initKeywords()
	in.global = in.Cons(in.Cons(Nil, Nil), Nil)
	in.initPrimitives()
	in.initPorts()
	in.loadPrelude()
	in.ready = true
	in.log.Info("interpreter ready",
		"heap", in.heap.Size(),
		"used", in.heap.Used(),
		"primitives", len(in.prims),
		"checked", in.safe)
	return in
}

func (in *Interp) exhausted(need int) {
	in.abort(fmt.Sprintf("Aborting!: out of memory (%d bytes requested, %d of %d in use)",
		need*wordSize, in.heap.Used(), in.heap.Size()))
}

func (in *Interp) loadPrelude() {
	rr := in.NewReader(strings.NewReader(in.cfg.Prelude))
	for {
		x := rr.read()
		if x == EOF {
			return
		}
		in.Eval(x, in.global)
	}
}

// Ready reports whether initialization has completed. Until then every
// error is fatal.
func (in *Interp) Ready() bool { return in.ready }

// Global returns the user environment.
func (in *Interp) Global() Value { return in.global }

// Heap returns the arena of in.
func (in *Interp) Heap() *Arena { return in.heap }

// Logger returns the logger in reports to.
func (in *Interp) Logger() *slog.Logger { return in.log }

//----------------------------------------------------------------------

// SafeEval evaluates x in env and returns the result and nil.
// If an error happens, it returns Unspecified and the error.
func (in *Interp) SafeEval(x, env Value) (result Value, err error) {
	defer func() {
		if e := recover(); e != nil {
			result, err = Unspecified, in.recovered(e)
		}
	}()
	return in.Eval(x, env), nil
}

// recovered turns a recovered panic into an error and resets the
// evaluator. Fatal errors keep unwinding.
func (in *Interp) recovered(e any) error {
	in.depth = 0
	if in.fatal {
		panic(e)
	}
	switch x := e.(type) {
	case *EvalError:
		return x
	case error:
		return in.newError(RuntimeError, x.Error(), Unspecified, x)
	default:
		return in.newError(RuntimeError, fmt.Sprint(x), Unspecified, nil)
	}
}

// EvalString reads every datum in src and evaluates it in the user
// environment. It returns the last value.
func (in *Interp) EvalString(src string) (Value, error) {
	return in.ReadEvalLoop(strings.NewReader(src))
}
