package scheme

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// port is the Go side of a port object. Exactly one of r and w is set.
type port struct {
	name   string
	r      *bufio.Reader
	w      *bufio.Writer
	closer io.Closer
	reader *Reader // reads data from r, created on first use
	// console ports are flushed after every output operation
	console bool
}

func (in *Interp) newPort(p *port) Value {
	in.ports = append(in.ports, p)
	return in.makePortObject(len(in.ports)-1, p.w != nil)
}

func (in *Interp) initPorts() {
	in.curIn = in.newPort(&port{name: "console", r: bufio.NewReader(in.cfg.Stdin), console: true})
	in.curOut = in.newPort(&port{name: "console", w: bufio.NewWriter(in.cfg.Stdout), console: true})
}

var portPrimitives = []primitive{
	{"input-port?", 1, 1, inputPortP_},
	{"output-port?", 1, 1, outputPortP_},
	{"current-input-port", 0, 0, currentInputPort_},
	{"current-output-port", 0, 0, currentOutputPort_},
	{"open-input-file", 1, 1, openInputFile_},
	{"open-output-file", 1, 1, openOutputFile_},
	{"close-input-port", 1, 1, closePort_},
	{"close-output-port", 1, 1, closePort_},
	{"with-input-from-file", 2, 2, withInputFromFile_},
	{"with-output-to-file", 2, 2, withOutputToFile_},
	{"read", 0, 1, read_},
	{"read-char", 0, 1, readChar_},
	{"peek-char", 0, 1, peekChar_},
	{"char-ready?", 0, 1, charReadyP_},
	{"eof-object?", 1, 1, eofObjectP_},
	{"write", 1, 2, write_},
	{"display", 1, 2, display_},
	{"newline", 0, 1, newline_},
	{"write-char", 1, 2, writeChar_},
	{"flush-output", 0, 1, flushOutput_},
	{"load", 1, 1, load_},
}

// portArg returns the port argument k, or the current port of the given
// direction if there is none.
func (in *Interp) portArg(args Value, k int, output bool, who string) *port {
	dflt := in.curIn
	if output {
		dflt = in.curOut
	}
	x := in.optArg(args, k, dflt)
	h := in.header(x)
	if h&hdrKindMask != hdrPort || (h&portOutput != 0) != output {
		if output {
			in.fail(TypeError, "Expecting an output port -- "+who, x)
		}
		in.fail(TypeError, "Expecting an input port -- "+who, x)
	}
	if h&portClosed != 0 {
		in.fail(RuntimeError, "Port is closed -- "+who, x)
	}
	return in.ports[in.heap.words[x.index()+1].Fixnum()]
}

func (in *Interp) portReader(p *port) *Reader {
	if p.reader == nil {
		p.reader = in.NewReader(p.r)
	}
	return p.reader
}

func (in *Interp) ioError(who string, err error) {
	in.raise(in.newError(RuntimeError, "I/O error -- "+who, Unspecified,
		fmt.Errorf("%s: %w", who, err)))
}

func (in *Interp) flushed(p *port, who string) Value {
	if p.console {
		if err := p.w.Flush(); err != nil {
			in.ioError(who, err)
		}
	}
	return Unspecified
}

// flushPorts flushes every open output port.
func (in *Interp) flushPorts() {
	for _, p := range in.ports {
		if p.w != nil {
			p.w.Flush()
		}
	}
}

// Output returns the writer of the current output port. Front ends
// write through it so that their output stays in order with the
// output of the program.
func (in *Interp) Output() *bufio.Writer {
	return in.portArg(Nil, 0, true, "output").w
}

func inputPortP_(in *Interp, args Value) Value {
	x := in.args1(args)
	return Bool(in.IsPort(x) && in.header(x)&portOutput == 0)
}

func outputPortP_(in *Interp, args Value) Value {
	x := in.args1(args)
	return Bool(in.IsPort(x) && in.header(x)&portOutput != 0)
}

func currentInputPort_(in *Interp, args Value) Value  { return in.curIn }
func currentOutputPort_(in *Interp, args Value) Value { return in.curOut }

func (in *Interp) openInput(name string) Value {
	f, err := os.Open(name)
	if err != nil {
		in.raise(in.newError(RuntimeError, "Unable to open file", in.NewString(name), err))
	}
	in.log.Debug("port opened", "file", name, "direction", "input")
	return in.newPort(&port{name: name, r: bufio.NewReader(f), closer: f})
}

func (in *Interp) openOutput(name string) Value {
	f, err := os.Create(name)
	if err != nil {
		in.raise(in.newError(RuntimeError, "Unable to open file", in.NewString(name), err))
	}
	in.log.Debug("port opened", "file", name, "direction", "output")
	return in.newPort(&port{name: name, w: bufio.NewWriter(f), closer: f})
}

func openInputFile_(in *Interp, args Value) Value {
	return in.openInput(in.stringArg(in.args1(args), "open-input-file"))
}

func openOutputFile_(in *Interp, args Value) Value {
	return in.openOutput(in.stringArg(in.args1(args), "open-output-file"))
}

// ClosePort flushes and closes the port x. Closing a closed port does
// nothing.
func (in *Interp) ClosePort(x Value) {
	if !in.IsPort(x) {
		in.fail(TypeError, "Expecting a port -- close-port", x)
	}
	h := &in.heap.words[x.index()]
	if *h&portClosed != 0 {
		return
	}
	*h |= portClosed
	p := in.ports[in.heap.words[x.index()+1].Fixnum()]
	var err error
	if p.w != nil {
		err = p.w.Flush()
	}
	if p.closer != nil {
		if e := p.closer.Close(); err == nil {
			err = e
		}
	}
	in.log.Debug("port closed", "name", p.name)
	if err != nil {
		in.ioError("close-port", err)
	}
}

func closePort_(in *Interp, args Value) Value {
	in.ClosePort(in.args1(args))
	return Unspecified
}

// withPort makes x the current port while thunk runs, then closes it.
func (in *Interp) withPort(x Value, output bool, thunk Value) Value {
	cur := &in.curIn
	if output {
		cur = &in.curOut
	}
	saved := *cur
	*cur = x
	defer func() {
		*cur = saved
		in.ClosePort(x)
	}()
	return in.Apply(thunk, Nil)
}

func withInputFromFile_(in *Interp, args Value) Value {
	name, thunk := in.args2(args)
	return in.withPort(in.openInput(in.stringArg(name, "with-input-from-file")), false, thunk)
}

func withOutputToFile_(in *Interp, args Value) Value {
	name, thunk := in.args2(args)
	return in.withPort(in.openOutput(in.stringArg(name, "with-output-to-file")), true, thunk)
}

func read_(in *Interp, args Value) Value {
	return in.portReader(in.portArg(args, 0, false, "read")).read()
}

func readChar_(in *Interp, args Value) Value {
	p := in.portArg(args, 0, false, "read-char")
	c, err := p.r.ReadByte()
	if err == io.EOF {
		return EOF
	} else if err != nil {
		in.ioError("read-char", err)
	}
	return MakeChar(c)
}

func peekChar_(in *Interp, args Value) Value {
	p := in.portArg(args, 0, false, "peek-char")
	b, err := p.r.Peek(1)
	if err == io.EOF {
		return EOF
	} else if err != nil {
		in.ioError("peek-char", err)
	}
	return MakeChar(b[0])
}

// charReadyP_ answers #t unless the port is a console with nothing
// buffered.
func charReadyP_(in *Interp, args Value) Value {
	p := in.portArg(args, 0, false, "char-ready?")
	return Bool(!p.console || p.r.Buffered() > 0)
}

func eofObjectP_(in *Interp, args Value) Value {
	return Bool(in.args1(args) == EOF)
}

func write_(in *Interp, args Value) Value {
	p := in.portArg(args, 1, true, "write")
	if err := in.Write(p.w, in.args1(args)); err != nil {
		in.ioError("write", err)
	}
	return in.flushed(p, "write")
}

func display_(in *Interp, args Value) Value {
	p := in.portArg(args, 1, true, "display")
	if err := in.Display(p.w, in.args1(args)); err != nil {
		in.ioError("display", err)
	}
	return in.flushed(p, "display")
}

func newline_(in *Interp, args Value) Value {
	p := in.portArg(args, 0, true, "newline")
	if err := p.w.WriteByte('\n'); err != nil {
		in.ioError("newline", err)
	}
	return in.flushed(p, "newline")
}

func writeChar_(in *Interp, args Value) Value {
	p := in.portArg(args, 1, true, "write-char")
	if err := p.w.WriteByte(in.charArg(in.args1(args), "write-char")); err != nil {
		in.ioError("write-char", err)
	}
	return in.flushed(p, "write-char")
}

func flushOutput_(in *Interp, args Value) Value {
	p := in.portArg(args, 0, true, "flush-output")
	if err := p.w.Flush(); err != nil {
		in.ioError("flush-output", err)
	}
	return Unspecified
}

// Load reads and evaluates every datum of the named file in the user
// environment. Errors propagate to the caller's restart point.
func (in *Interp) Load(name string) Value {
	x := in.openInput(name)
	defer in.ClosePort(x)
	in.log.Info("loading", "file", name)
	rr := in.portReader(in.portArg(in.List(x), 0, false, "load"))
	result := Unspecified
	for {
		d := rr.read()
		if d == EOF {
			return result
		}
		result = in.Eval(d, in.global)
	}
}

func load_(in *Interp, args Value) Value {
	in.Load(in.stringArg(in.args1(args), "load"))
	return Unspecified
}
