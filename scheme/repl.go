package scheme

import (
	"errors"
	"io"
	"strings"
)

// Frontend decorates the interaction of ReadEvalPrintLoop.
type Frontend interface {
	Prompt()
	ReadStart()
	ReadFinish()
	Result(v Value)
	Error(err error)
}

// Console is the plain terminal front end.
type Console struct {
	in     *Interp
	prompt string
}

// NewConsole returns a console front end printing prompt before each
// datum is read.
func NewConsole(in *Interp, prompt string) *Console {
	return &Console{in, prompt}
}

func (c *Console) Prompt() {
	w := c.in.Output()
	w.WriteString(c.prompt)
	w.Flush()
}

func (c *Console) ReadStart()  {}
func (c *Console) ReadFinish() {}

func (c *Console) Result(v Value) {
	w := c.in.Output()
	w.WriteString("=> ")
	c.in.Write(w, v)
	w.WriteByte('\n')
	w.Flush()
}

func (c *Console) Error(err error) {
	w := c.in.Output()
	w.WriteString(";" + err.Error() + "\n")
	w.Flush()
}

const esc = "\x1b"

// Emacs is the front end for running under an Emacs inferior process.
// Every event is framed by ESC sequences.
type Emacs struct {
	in *Interp
}

// NewEmacs returns the Emacs front end and reports the working directory.
func NewEmacs(in *Interp, cwd string) *Emacs {
	e := &Emacs{in}
	e.emit(esc + "w" + cwd + esc)
	return e
}

func (e *Emacs) emit(s string) {
	w := e.in.Output()
	w.WriteString(s)
	w.Flush()
}

func (e *Emacs) Prompt()     { e.emit(esc + "p1 [Evaluator]" + esc + esc + "R") }
func (e *Emacs) ReadStart()  { e.emit(esc + "s") }
func (e *Emacs) ReadFinish() { e.emit(esc + "f") }

func (e *Emacs) Result(v Value) {
	e.emit(esc + "v" + e.in.Str(v) + esc)
}

func (e *Emacs) Error(err error) {
	e.emit(";" + err.Error() + "\n" + esc + "z")
}

// ReadEvalPrintLoop reads data from r, or from the current input port if
// r is nil, and evaluates each in the user environment until the input
// runs out. Errors are reported through fe and the loop goes on.
func (in *Interp) ReadEvalPrintLoop(r io.Reader, fe Frontend) {
	var rr *Reader
	if r == nil {
		rr = in.portReader(in.portArg(Nil, 0, false, "repl"))
	} else {
		rr = in.NewReader(r)
	}
	for {
		fe.Prompt()
		fe.ReadStart()
		x, err := rr.Read()
		fe.ReadFinish()
		if err == nil {
			if x == EOF {
				return
			}
			x, err = in.SafeEval(x, in.global)
		}
		if err != nil {
			in.log.Debug("evaluation failed", "error", err)
			fe.Error(err)
			continue
		}
		fe.Result(x)
	}
}

// ReadEvalLoop evaluates every datum read from r in the user environment,
// without printing. It stops at the first error.
func (in *Interp) ReadEvalLoop(r io.Reader) (result Value, err error) {
	result = Unspecified
	rr := in.NewReader(r)
	for {
		x, err := rr.Read()
		if err == nil {
			if x == EOF {
				return result, nil
			}
			result, err = in.SafeEval(x, in.global)
		}
		if err != nil {
			return Unspecified, err
		}
	}
}

// IsIncomplete reports whether err was caused by input ending in the
// middle of a datum.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncomplete)
}

// ReadAll reads every datum from src. A datum cut off by the end of src
// makes the error satisfy IsIncomplete.
func (in *Interp) ReadAll(src string) ([]Value, error) {
	rr := in.NewReader(strings.NewReader(src))
	var data []Value
	for {
		x, err := rr.Read()
		if err != nil {
			return nil, err
		}
		if x == EOF {
			return data, nil
		}
		data = append(data, x)
	}
}
