package scheme

import (
	"io"
	"strconv"
	"strings"
)

const cyclicMarker = "#[unprintable-cyclic-structure]"

// Str returns the external representation of x, as written by write.
func (in *Interp) Str(x Value) string {
	return in.Str2(x, true)
}

// Str2 returns a textual representation of x.
// If quote is true, strings and characters are shown in the external
// syntax of write; otherwise they are shown raw as by display.
func (in *Interp) Str2(x Value, quote bool) string {
	var b strings.Builder
	in.print(&b, x, quote)
	return b.String()
}

// Write writes the external representation of x to w.
func (in *Interp) Write(w io.Writer, x Value) error {
	_, err := io.WriteString(w, in.Str2(x, true))
	return err
}

// Display writes x to w with strings and characters shown raw.
func (in *Interp) Display(w io.Writer, x Value) error {
	_, err := io.WriteString(w, in.Str2(x, false))
	return err
}

func (in *Interp) print(b *strings.Builder, x Value, quote bool) {
	switch x & tagMask {
	case tagFixnum:
		b.WriteString(strconv.FormatInt(x.Fixnum(), 10))
		return
	case tagPair:
		in.printList(b, x, quote)
		return
	case tagImmediate:
		in.printImmediate(b, x, quote)
		return
	}
	h := in.heap.words[x.index()]
	if h&tagMask == hdrString {
		s := in.GoString(x)
		if quote {
			writeQuoted(b, s)
		} else {
			b.WriteString(s)
		}
		return
	}
	switch h & hdrKindMask {
	case hdrSymbol:
		if h&symUninterned != 0 {
			b.WriteString("#:")
		}
		b.WriteString(in.SymbolName(x))
	case hdrPrim:
		b.WriteString("#[compiled-procedure ")
		b.WriteString(in.primitiveOf(x).name)
		b.WriteByte(']')
	case hdrProc:
		b.WriteString("#[compound-procedure ")
		b.WriteString(strconv.Itoa(x.index()))
		b.WriteByte(']')
	case hdrMacro:
		b.WriteString("#[macro ")
		b.WriteString(strconv.Itoa(x.index()))
		b.WriteByte(']')
	case hdrPort:
		b.WriteString("#[port ")
		b.WriteString(strconv.Itoa(x.index()))
		if h&portOutput != 0 {
			b.WriteString(" output]")
		} else {
			b.WriteString(" input]")
		}
	default:
		b.WriteString("#[unknown-object ")
		b.WriteString(strconv.FormatUint(uint64(x), 16))
		b.WriteByte(']')
	}
}

func (in *Interp) printImmediate(b *strings.Builder, x Value, quote bool) {
	switch x {
	case Nil:
		b.WriteString("()")
	case True:
		b.WriteString("#t")
	case False:
		b.WriteString("#f")
	case EOF:
		b.WriteString("#[eof]")
	case Unspecified:
		b.WriteString("#!unspecific")
	default:
		if !x.IsChar() {
			b.WriteString("#[unknown-object ")
			b.WriteString(strconv.FormatUint(uint64(x), 16))
			b.WriteByte(']')
			return
		}
		c := x.Char()
		if !quote {
			b.WriteByte(c)
			return
		}
		switch c {
		case ' ':
			b.WriteString(`#\space`)
		case '\n':
			b.WriteString(`#\newline`)
		default:
			b.WriteString(`#\`)
			b.WriteByte(c)
		}
	}
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	for k := 0; k < len(s); k++ {
		switch c := s[k]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
}

// printList prints a list, or the cyclic marker if its rest chain loops.
// Cycles through car fields are not detected.
func (in *Interp) printList(b *strings.Builder, x Value, quote bool) {
	if _, ok := in.finiteList(x); !ok {
		b.WriteString(cyclicMarker)
		return
	}
	b.WriteByte('(')
	for {
		in.print(b, in.heap.words[x.index()], quote)
		x = in.heap.words[x.index()+1]
		if x == Nil {
			break
		}
		if !x.IsPair() {
			b.WriteString(" . ")
			in.print(b, x, quote)
			break
		}
		b.WriteByte(' ')
	}
	b.WriteByte(')')
}
