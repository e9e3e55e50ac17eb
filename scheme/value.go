package scheme

import "fmt"

// Value is a tagged reference to a Scheme object.
//
// The two low bits select the representation:
//
//	00  fixnum, the signed payload is in the upper 62 bits
//	01  immediate: a character or one of the singletons
//	10  pair, the upper bits are the arena index of its two words
//	11  indirect object, the upper bits are the arena index of its header
//
// The header of an indirect object names its kind in the low byte.
// A string header instead has 10 in its low two bits and the byte length
// above them, so strings of any length need only one header word.
type Value uint64

const (
	tagBits = 2
	tagMask = Value(3)

	tagFixnum    = Value(0)
	tagImmediate = Value(1)
	tagPair      = Value(2)
	tagIndirect  = Value(3)
)

// Immediates carry a sub-tag in bits 2..9.
// Sub-tag 0 is a character whose byte sits above bit 10.
const (
	immMask  = Value(0x3FF)
	immChar  = Value(0<<tagBits) | tagImmediate
	charBits = 10
)

// Singletons. They are shared by every interpreter and compared by value.
const (
	Nil         = Value(1<<tagBits) | tagImmediate // the empty list ()
	False       = Value(2<<tagBits) | tagImmediate
	True        = Value(3<<tagBits) | tagImmediate
	EOF         = Value(4<<tagBits) | tagImmediate // the end-of-file object
	Unspecified = Value(5<<tagBits) | tagImmediate

	// doneEnv marks a special form result which needs no further evaluation.
	doneEnv = Value(6<<tagBits) | tagImmediate

	// Reader tokens; they never escape the reader.
	closeToken = Value(7<<tagBits) | tagImmediate
	dotToken   = Value(8<<tagBits) | tagImmediate
)

// Header words of indirect objects.
const (
	hdrKindMask = Value(0xFF)
	hdrString   = Value(2) // low two bits only
	hdrProc     = Value(0x5F)
	hdrMacro    = Value(0x7F)
	hdrPort     = Value(0x9F)
	hdrSymbol   = Value(0xBF)
	hdrPrim     = Value(0xDF)

	symKeyword    = Value(1 << 8) // the symbol names a special form
	symUninterned = Value(1 << 9)

	portOutput = Value(1 << 8)
	portClosed = Value(1 << 9)
)

// Fixnum range.
const (
	MaxFixnum = 1<<61 - 1
	MinFixnum = -1 << 61
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindFixnum Kind = iota
	KindCharacter
	KindNil
	KindBoolean
	KindPair
	KindString
	KindSymbol
	KindProcedure
	KindPrimitive
	KindPort
	KindEOF
	KindUnspecified
	KindMacro
)

var kindNames = [...]string{
	KindFixnum:      "fixnum",
	KindCharacter:   "character",
	KindNil:         "empty list",
	KindBoolean:     "boolean",
	KindPair:        "pair",
	KindString:      "string",
	KindSymbol:      "symbol",
	KindProcedure:   "compound procedure",
	KindPrimitive:   "primitive procedure",
	KindPort:        "port",
	KindEOF:         "eof object",
	KindUnspecified: "unspecified",
	KindMacro:       "macro",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MakeFixnum returns the fixnum n. Bits beyond the fixnum range are lost.
func MakeFixnum(n int64) Value {
	return Value(uint64(n) << tagBits)
}

// MakeChar returns the character c.
func MakeChar(c byte) Value {
	return Value(c)<<charBits | immChar
}

// Bool maps a Go boolean to #t or #f.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func (v Value) IsFixnum() bool   { return v&tagMask == tagFixnum }
func (v Value) IsChar() bool     { return v&immMask == immChar }
func (v Value) IsPair() bool     { return v&tagMask == tagPair }
func (v Value) IsNull() bool     { return v == Nil }
func (v Value) IsBoolean() bool  { return v == True || v == False }
func (v Value) IsFalse() bool    { return v == False }
func (v Value) IsTrue() bool     { return v != False }
func (v Value) isIndirect() bool { return v&tagMask == tagIndirect }

// Fixnum returns the integer held by a fixnum; see Interp.FixnumValue
// for the checked form.
func (v Value) Fixnum() int64 { return int64(v) >> tagBits }

// Char returns the byte held by a character.
func (v Value) Char() byte { return byte(v >> charBits) }

func (v Value) index() int { return int(v >> tagBits) }

func pairRef(i int) Value     { return Value(i)<<tagBits | tagPair }
func indirectRef(i int) Value { return Value(i)<<tagBits | tagIndirect }

// header returns the header word of an indirect object, or 0 for
// anything else.
func (in *Interp) header(v Value) Value {
	if !v.isIndirect() {
		return 0
	}
	return in.heap.words[v.index()]
}

func (in *Interp) hasKind(v Value, hdr Value) bool {
	return in.header(v)&hdrKindMask == hdr
}

// TypeOf returns the kind of v. Immediates are decided by their tag,
// heap objects by one more look at their header.
func (in *Interp) TypeOf(v Value) Kind {
	switch v & tagMask {
	case tagFixnum:
		return KindFixnum
	case tagPair:
		return KindPair
	case tagImmediate:
		switch v {
		case Nil:
			return KindNil
		case True, False:
			return KindBoolean
		case EOF:
			return KindEOF
		case Unspecified:
			return KindUnspecified
		}
		if v.IsChar() {
			return KindCharacter
		}
	default:
		h := in.heap.words[v.index()]
		if h&tagMask == hdrString {
			return KindString
		}
		switch h & hdrKindMask {
		case hdrSymbol:
			return KindSymbol
		case hdrProc:
			return KindProcedure
		case hdrPrim:
			return KindPrimitive
		case hdrPort:
			return KindPort
		case hdrMacro:
			return KindMacro
		}
	}
	panic(fmt.Sprintf("unknown object type %#x -- TYPE-OF", uint64(v)))
}

func (in *Interp) IsString(v Value) bool {
	return v.isIndirect() && in.heap.words[v.index()]&tagMask == hdrString
}

func (in *Interp) IsSymbol(v Value) bool    { return in.hasKind(v, hdrSymbol) }
func (in *Interp) IsProcedure(v Value) bool { return in.hasKind(v, hdrProc) }
func (in *Interp) IsPrimitive(v Value) bool { return in.hasKind(v, hdrPrim) }
func (in *Interp) IsPort(v Value) bool      { return in.hasKind(v, hdrPort) }
func (in *Interp) IsMacro(v Value) bool     { return in.hasKind(v, hdrMacro) }

// IsApplicable reports whether v is a primitive or compound procedure.
func (in *Interp) IsApplicable(v Value) bool {
	h := in.header(v) & hdrKindMask
	return h == hdrProc || h == hdrPrim
}

//----------------------------------------------------------------------

// check signals a type error unless the interpreter runs unchecked.
func (in *Interp) check(ok bool, msg string, v Value) {
	if !ok && in.safe {
		in.fail(TypeError, msg, v)
	}
}

// FixnumValue returns the integer held by v.
func (in *Interp) FixnumValue(v Value) int64 {
	in.check(v.IsFixnum(), "Object is not a fixnum -- FIXNUM-VALUE", v)
	return v.Fixnum()
}

// CharValue returns the byte held by v.
func (in *Interp) CharValue(v Value) byte {
	in.check(v.IsChar(), "Object is not a character -- CHARACTER-VALUE", v)
	return v.Char()
}

// Cons allocates a new pair.
func (in *Interp) Cons(car, cdr Value) Value {
	i := in.heap.Alloc(2)
	in.heap.words[i] = car
	in.heap.words[i+1] = cdr
	return pairRef(i)
}

func (in *Interp) Car(x Value) Value {
	in.check(x.IsPair(), "Object is not a pair -- CAR", x)
	return in.heap.words[x.index()]
}

func (in *Interp) Cdr(x Value) Value {
	in.check(x.IsPair(), "Object is not a pair -- CDR", x)
	return in.heap.words[x.index()+1]
}

func (in *Interp) SetCar(x, v Value) {
	in.check(x.IsPair(), "Object is not a pair -- set-car!", x)
	in.heap.words[x.index()] = v
}

func (in *Interp) SetCdr(x, v Value) {
	in.check(x.IsPair(), "Object is not a pair -- set-cdr!", x)
	in.heap.words[x.index()+1] = v
}

func (in *Interp) Cadr(x Value) Value  { return in.Car(in.Cdr(x)) }
func (in *Interp) Cddr(x Value) Value  { return in.Cdr(in.Cdr(x)) }
func (in *Interp) Caddr(x Value) Value { return in.Car(in.Cddr(x)) }

// List builds a proper list of vs.
func (in *Interp) List(vs ...Value) Value {
	result := Nil
	for i := len(vs) - 1; i >= 0; i-- {
		result = in.Cons(vs[i], result)
	}
	return result
}

// Reverse returns a reversed copy of the proper list x.
func (in *Interp) Reverse(x Value) Value {
	result := Nil
	for ; x != Nil; x = in.Cdr(x) {
		result = in.Cons(in.Car(x), result)
	}
	return result
}

// finiteList walks the rest chain of x with a tortoise and a hare.
// It reports false if the chain is cyclic; otherwise it also returns the
// object that ends the chain (Nil for a proper list).
func (in *Interp) finiteList(x Value) (last Value, ok bool) {
	slow, fast := x, x
	for fast.IsPair() {
		fast = in.heap.words[fast.index()+1]
		slow = in.heap.words[slow.index()+1]
		if !fast.IsPair() {
			break
		}
		fast = in.heap.words[fast.index()+1]
		if fast == slow {
			return Nil, false
		}
	}
	return fast, true
}

// IsList reports whether x is a finite proper list.
func (in *Interp) IsList(x Value) bool {
	last, ok := in.finiteList(x)
	return ok && last == Nil
}

// Length returns the length of the proper list x, or -1 if x is cyclic or
// improper.
func (in *Interp) Length(x Value) int {
	if !in.IsList(x) {
		return -1
	}
	n := 0
	for ; x != Nil; x = in.heap.words[x.index()+1] {
		n++
	}
	return n
}

//----------------------------------------------------------------------

func stringWords(n int) int { return (n + 7) / 8 }

// MakeString allocates a string of n zero bytes.
func (in *Interp) MakeString(n int) Value {
	i := in.heap.Alloc(1 + stringWords(n))
	in.heap.words[i] = Value(n)<<tagBits | hdrString
	for j := 1; j <= stringWords(n); j++ {
		in.heap.words[i+j] = 0
	}
	return indirectRef(i)
}

// NewString allocates a string holding a copy of s.
func (in *Interp) NewString(s string) Value {
	v := in.MakeString(len(s))
	for k := 0; k < len(s); k++ {
		in.stringSet(v, k, s[k])
	}
	return v
}

func (in *Interp) StringLength(v Value) int {
	in.check(in.IsString(v), "Object is not a string -- STRING-LENGTH", v)
	return int(in.heap.words[v.index()] >> tagBits)
}

func (in *Interp) stringRef(v Value, k int) byte {
	w := in.heap.words[v.index()+1+k/8]
	return byte(w >> (uint(k%8) * 8))
}

func (in *Interp) stringSet(v Value, k int, c byte) {
	p := &in.heap.words[v.index()+1+k/8]
	shift := uint(k%8) * 8
	*p = *p&^(Value(0xFF)<<shift) | Value(c)<<shift
}

// StringRef returns byte k of the string v; k must be in range.
func (in *Interp) StringRef(v Value, k int) byte {
	in.check(in.IsString(v), "Object is not a string -- STRING-REF", v)
	return in.stringRef(v, k)
}

// StringSet stores c at byte k of the string v; k must be in range.
func (in *Interp) StringSet(v Value, k int, c byte) {
	in.check(in.IsString(v), "Object is not a string -- STRING-SET!", v)
	in.stringSet(v, k, c)
}

// GoString copies the bytes of the string v into a Go string.
func (in *Interp) GoString(v Value) string {
	n := in.StringLength(v)
	b := make([]byte, n)
	for k := range b {
		b[k] = in.stringRef(v, k)
	}
	return string(b)
}

func (in *Interp) stringEquals(v Value, s []byte) bool {
	if int(in.heap.words[v.index()]>>tagBits) != len(s) {
		return false
	}
	for k, c := range s {
		if in.stringRef(v, k) != c {
			return false
		}
	}
	return true
}

//----------------------------------------------------------------------

func (in *Interp) makeSymbol(name Value, flags Value) Value {
	i := in.heap.Alloc(2)
	in.heap.words[i] = hdrSymbol | flags
	in.heap.words[i+1] = name
	return indirectRef(i)
}

// SymbolString returns the string naming the symbol v.
func (in *Interp) SymbolString(v Value) Value {
	in.check(in.IsSymbol(v), "Object is not a symbol -- SYMBOL-STRING", v)
	return in.heap.words[v.index()+1]
}

// SymbolName returns the name of the symbol v.
func (in *Interp) SymbolName(v Value) string {
	return in.GoString(in.SymbolString(v))
}

func (in *Interp) isKeyword(v Value) bool {
	return in.header(v)&(hdrKindMask|symKeyword) == hdrSymbol|symKeyword
}

// MakeProcedure builds a compound procedure. body is the list of body
// forms.
func (in *Interp) MakeProcedure(params, body, env Value) Value {
	i := in.heap.Alloc(4)
	in.heap.words[i] = hdrProc
	in.heap.words[i+1] = params
	in.heap.words[i+2] = body
	in.heap.words[i+3] = env
	return indirectRef(i)
}

func (in *Interp) procField(v Value, k int) Value {
	in.check(in.IsProcedure(v), "Object is not a procedure -- APPLY", v)
	return in.heap.words[v.index()+k]
}

func (in *Interp) ProcedureParameters(v Value) Value  { return in.procField(v, 1) }
func (in *Interp) ProcedureBody(v Value) Value        { return in.procField(v, 2) }
func (in *Interp) ProcedureEnvironment(v Value) Value { return in.procField(v, 3) }

// MakeMacro builds a macro whose transformer is body evaluated in env.
func (in *Interp) MakeMacro(body, env Value) Value {
	i := in.heap.Alloc(3)
	in.heap.words[i] = hdrMacro
	in.heap.words[i+1] = body
	in.heap.words[i+2] = env
	return indirectRef(i)
}

func (in *Interp) macroField(v Value, k int) Value {
	in.check(in.IsMacro(v), "Object is not a macro -- MACRO", v)
	return in.heap.words[v.index()+k]
}

func (in *Interp) makePrimitive(k int) Value {
	i := in.heap.Alloc(2)
	in.heap.words[i] = hdrPrim
	in.heap.words[i+1] = MakeFixnum(int64(k))
	return indirectRef(i)
}

func (in *Interp) primitiveOf(v Value) *primitive {
	in.check(in.IsPrimitive(v), "Object is not a primitive procedure -- APPLY-PRIMITIVE", v)
	return &in.prims[in.heap.words[v.index()+1].Fixnum()]
}

func (in *Interp) makePortObject(k int, output bool) Value {
	i := in.heap.Alloc(2)
	in.heap.words[i] = hdrPort
	if output {
		in.heap.words[i] |= portOutput
	}
	in.heap.words[i+1] = MakeFixnum(int64(k))
	return indirectRef(i)
}
