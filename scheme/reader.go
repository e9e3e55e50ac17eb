package scheme

import (
	"bufio"
	"errors"
	"io"
)

// Reader represents a reader of data from a byte stream.
type Reader struct {
	in     *Interp
	r      io.ByteScanner
	lineNo int  // the current line number
	erred  bool // a flag if an error has happened
}

// NewReader constructs a reader which will read data from r.
// r is buffered unless it already is an io.ByteScanner.
func (in *Interp) NewReader(r io.Reader) *Reader {
	bs, ok := r.(io.ByteScanner)
	if !ok {
		bs = bufio.NewReader(r)
	}
	return &Reader{in: in, r: bs, lineNo: 1}
}

// Read reads a datum and returns it and nil.
// If the input runs out, it will return EOF and nil.
// If an error happens, it will return Unspecified and the error; the
// rest of the offending line is skipped by the next Read.
func (rr *Reader) Read() (result Value, err error) {
	defer func() {
		if e := recover(); e != nil {
			rr.erred = true
			result, err = Unspecified, rr.in.recovered(e)
		}
	}()
	if rr.erred {
		rr.erred = false
		rr.SkipLine()
	}
	return rr.read(), nil
}

// LineNo returns the number of the line being read.
func (rr *Reader) LineNo() int { return rr.lineNo }

// SkipLine discards input up to and including the next newline.
func (rr *Reader) SkipLine() {
	for {
		if c := rr.next(); c < 0 || c == '\n' {
			return
		}
	}
}

func (rr *Reader) read() Value {
	x := rr.item()
	switch x {
	case closeToken:
		rr.fail("Unexpected close paren -- READ", Unspecified)
	case dotToken:
		rr.fail("Unexpected dot -- READ", Unspecified)
	}
	return x
}

func (rr *Reader) fail(msg string, x Value) {
	rr.in.fail(ReadError, msg, x)
}

func (rr *Reader) incomplete(msg string, x Value) {
	rr.in.raise(rr.in.newError(ReadError, msg, x, ErrIncomplete))
}

// next returns the next byte, or -1 at the end of input.
func (rr *Reader) next() int {
	c, err := rr.r.ReadByte()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			rr.in.raise(rr.in.newError(ReadError, "Input error -- READ", Unspecified, err))
		}
		return -1
	}
	if c == '\n' {
		rr.lineNo++
	}
	return int(c)
}

func (rr *Reader) peek() int {
	c, err := rr.r.ReadByte()
	if err != nil {
		return -1
	}
	rr.r.UnreadByte()
	return int(c)
}

func isSpace(c int) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c int) bool { return '0' <= c && c <= '9' }

func isAlpha(c int) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func toLower(c int) int {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func isDelimiter(c int) bool {
	return c < 0 || isSpace(c) || c == '(' || c == ')' || c == '"' || c == ';'
}

func isInitial(c int) bool {
	if isAlpha(c) {
		return true
	}
	switch c {
	case '!', '$', '%', '&', '*', '/', ':', '<', '=', '>', '?', '^', '_', '~':
		return true
	}
	return false
}

func isSubsequent(c int) bool {
	return isInitial(c) || isDigit(c) || c == '+' || c == '-' || c == '.' || c == '@'
}

func digitValue(c, base int) int {
	d := 99
	switch {
	case isDigit(c):
		d = c - '0'
	case 'a' <= toLower(c) && toLower(c) <= 'z':
		d = toLower(c) - 'a' + 10
	}
	if d < base {
		return d
	}
	return -1
}

// item reads the next datum or one of the tokens ')' and '.'.
// It returns EOF at the end of input.
func (rr *Reader) item() Value {
	in := rr.in
	for {
		c := rr.next()
		switch {
		case c < 0:
			return EOF
		case isSpace(c):
			continue
		case c == ';':
			for c >= 0 && c != '\n' {
				c = rr.next()
			}
			continue
		case c == '(':
			return rr.readList()
		case c == ')':
			return closeToken
		case c == '\'':
			return rr.quoted(in.kw.quote)
		case c == '`':
			return rr.quoted(in.kw.quasiquote)
		case c == ',':
			if rr.peek() == '@' {
				rr.next()
				return rr.quoted(in.kw.unquoteSplicing)
			}
			return rr.quoted(in.kw.unquote)
		case c == '"':
			return rr.readString()
		case c == '#':
			switch c2 := rr.next(); toLower(c2) {
			case 't', 'f':
				if !isDelimiter(rr.peek()) {
					rr.fail("Expecting delimiter -- READ", Unspecified)
				}
				return Bool(toLower(c2) == 't')
			case '\\':
				return rr.readCharacter()
			case ';': // #; datum comment
				switch x := rr.item(); x {
				case EOF:
					rr.incomplete("Unexpected EOF after #; -- READ", Unspecified)
				case closeToken, dotToken:
					rr.fail("Unexpected character -- READ", Unspecified)
				}
				continue
			case 'b', 'o', 'd', 'x', 'e', 'i':
				return rr.readNumber(c2, -1)
			case -1:
				rr.incomplete("Unexpected EOF after # -- READ", Unspecified)
			default:
				rr.fail("Unexpected character -- READ", MakeChar(byte(c2)))
			}
		case isDigit(c):
			return rr.readNumber(-1, c)
		case c == '+' || c == '-':
			n := rr.peek()
			if isDigit(n) {
				return rr.readNumber(-1, c)
			}
			if !isDelimiter(n) {
				rr.fail("Unexpected character -- READ", MakeChar(byte(c)))
			}
			return in.Intern([]byte{byte(c)})
		case c == '.':
			n := rr.peek()
			if isDelimiter(n) {
				return dotToken
			}
			if rr.next() == '.' && rr.next() == '.' && isDelimiter(rr.peek()) {
				return in.Sym("...")
			}
			rr.fail("Unexpected character -- READ", MakeChar('.'))
		case isInitial(c):
			return rr.readSymbol(c)
		default:
			rr.fail("Unexpected character -- READ", MakeChar(byte(c)))
		}
	}
}

// quoted reads the datum after a quote character and wraps it.
func (rr *Reader) quoted(sym Value) Value {
	switch x := rr.item(); x {
	case EOF:
		rr.incomplete("Unexpected EOF after quote -- READ", sym)
	case closeToken, dotToken:
		rr.fail("Unexpected character after quote -- READ", sym)
	default:
		return rr.in.List(sym, x)
	}
	return Unspecified
}

// readList reads the elements of a list whose '(' has been consumed.
func (rr *Reader) readList() Value {
	in := rr.in
	x := rr.item()
	switch x {
	case closeToken:
		return Nil
	case dotToken:
		rr.fail("Ill-formed dotted list -- READ", Unspecified)
	case EOF:
		rr.incomplete("Unexpected EOF in list -- READ", Unspecified)
	}
	head := in.Cons(x, Nil)
	tail := head
	for {
		x = rr.item()
		switch x {
		case closeToken:
			return head
		case EOF:
			rr.incomplete("Unexpected EOF in list -- READ", head)
		case dotToken:
			last := rr.item()
			switch last {
			case EOF:
				rr.incomplete("Unexpected EOF in list -- READ", head)
			case closeToken, dotToken:
				rr.fail("Ill-formed dotted list -- READ", head)
			}
			in.SetCdr(tail, last)
			switch rr.item() {
			case closeToken:
				return head
			case EOF:
				rr.incomplete("Unexpected EOF in list -- READ", head)
			}
			rr.fail("Ill-formed dotted list -- READ", head)
		}
		cell := in.Cons(x, Nil)
		in.SetCdr(tail, cell)
		tail = cell
	}
}

// readNumber reads an integer. prefix is the letter after a '#' already
// consumed, or -1; lead is a sign or digit already consumed, or -1.
func (rr *Reader) readNumber(prefix, lead int) Value {
	base := 10
	radix, exactness := false, false
	for prefix >= 0 {
		switch p := toLower(prefix); p {
		case 'b', 'o', 'd', 'x':
			if radix {
				rr.fail("Ill-formed number -- READ", Unspecified)
			}
			radix = true
			base = map[int]int{'b': 2, 'o': 8, 'd': 10, 'x': 16}[p]
		case 'e', 'i': // every number is an exact integer
			if exactness {
				rr.fail("Ill-formed number -- READ", Unspecified)
			}
			exactness = true
		default:
			rr.fail("Ill-formed number -- READ", Unspecified)
		}
		prefix = -1
		if rr.peek() == '#' {
			rr.next()
			prefix = rr.next()
		}
	}
	if lead < 0 {
		if c := rr.peek(); c == '+' || c == '-' {
			lead = rr.next()
		}
	}
	negative := lead == '-'
	limit := uint64(MaxFixnum)
	if negative {
		limit++
	}
	var n uint64
	digits := 0
	add := func(d int) {
		digits++
		if n > (limit-uint64(d))/uint64(base) {
			rr.fail("Integer too large to be represented -- READ", Unspecified)
		}
		n = n*uint64(base) + uint64(d)
	}
	if isDigit(lead) {
		add(lead - '0')
	}
	for {
		d := digitValue(rr.peek(), base)
		if d < 0 {
			break
		}
		rr.next()
		add(d)
	}
	if digits == 0 || !isDelimiter(rr.peek()) {
		rr.fail("Ill-formed number -- READ", Unspecified)
	}
	if negative {
		return MakeFixnum(-int64(n))
	}
	return MakeFixnum(int64(n))
}

// readString reads the body of a string whose '"' has been consumed.
func (rr *Reader) readString() Value {
	var b []byte
	for {
		c := rr.next()
		switch c {
		case -1:
			rr.incomplete("Unexpected EOF in string -- READ", rr.in.NewString(string(b)))
		case '"':
			return rr.in.NewString(string(b))
		case '\\':
			switch rr.peek() {
			case '\\', '"':
				c = rr.next()
			case 'n':
				rr.next()
				c = '\n'
			}
		}
		b = append(b, byte(c))
	}
}

// readCharacter reads a character whose "#\" has been consumed.
func (rr *Reader) readCharacter() Value {
	c := rr.next()
	if c < 0 {
		rr.incomplete("Unexpected EOF in character -- READ", Unspecified)
	}
	for _, name := range [...]struct {
		word string
		char byte
	}{{"space", ' '}, {"newline", '\n'}} {
		if toLower(c) == int(name.word[0]) && toLower(rr.peek()) == int(name.word[1]) {
			for _, w := range []byte(name.word[1:]) {
				if toLower(rr.next()) != int(w) {
					rr.fail("Unknown character name -- READ", Unspecified)
				}
			}
			c = int(name.char)
			break
		}
	}
	if !isDelimiter(rr.peek()) {
		rr.fail("Expecting delimiter -- READ", MakeChar(byte(c)))
	}
	return MakeChar(byte(c))
}

// readSymbol reads a symbol starting with c, folding it to lower case.
func (rr *Reader) readSymbol(c int) Value {
	name := []byte{byte(toLower(c))}
	for {
		c = rr.peek()
		if isDelimiter(c) {
			return rr.in.Intern(name)
		}
		if !isSubsequent(c) {
			rr.fail("Unexpected character in symbol -- READ", rr.in.NewString(string(name)))
		}
		rr.next()
		name = append(name, byte(toLower(c)))
	}
}
