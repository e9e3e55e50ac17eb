package scheme

import "strings"

// Characters and strings. Characters are bytes; case and class tests
// follow ASCII.

var textPrimitives = []primitive{
	{"char?", 1, 1, charP_},
	{"char=?", 1, -1, compareChars("char=?", false, func(c int) bool { return c == 0 })},
	{"char<?", 1, -1, compareChars("char<?", false, func(c int) bool { return c < 0 })},
	{"char>?", 1, -1, compareChars("char>?", false, func(c int) bool { return c > 0 })},
	{"char<=?", 1, -1, compareChars("char<=?", false, func(c int) bool { return c <= 0 })},
	{"char>=?", 1, -1, compareChars("char>=?", false, func(c int) bool { return c >= 0 })},
	{"char-ci=?", 1, -1, compareChars("char-ci=?", true, func(c int) bool { return c == 0 })},
	{"char-ci<?", 1, -1, compareChars("char-ci<?", true, func(c int) bool { return c < 0 })},
	{"char-ci>?", 1, -1, compareChars("char-ci>?", true, func(c int) bool { return c > 0 })},
	{"char-ci<=?", 1, -1, compareChars("char-ci<=?", true, func(c int) bool { return c <= 0 })},
	{"char-ci>=?", 1, -1, compareChars("char-ci>=?", true, func(c int) bool { return c >= 0 })},
	{"char-alphabetic?", 1, 1, testChar("char-alphabetic?", isAlpha)},
	{"char-numeric?", 1, 1, testChar("char-numeric?", isDigit)},
	{"char-whitespace?", 1, 1, testChar("char-whitespace?", isSpace)},
	{"char-upper-case?", 1, 1, testChar("char-upper-case?", func(c int) bool { return 'A' <= c && c <= 'Z' })},
	{"char-lower-case?", 1, 1, testChar("char-lower-case?", func(c int) bool { return 'a' <= c && c <= 'z' })},
	{"char->integer", 1, 1, charToInteger_},
	{"integer->char", 1, 1, integerToChar_},
	{"char-upcase", 1, 1, charUpcase_},
	{"char-downcase", 1, 1, charDowncase_},

	{"string?", 1, 1, stringP_},
	{"make-string", 1, 2, makeString_},
	{"string", 0, -1, string_},
	{"string-length", 1, 1, stringLength_},
	{"string-ref", 2, 2, stringRef_},
	{"string-set!", 3, 3, stringSet_},
	{"string=?", 1, -1, compareStrings("string=?", false, func(c int) bool { return c == 0 })},
	{"string<?", 1, -1, compareStrings("string<?", false, func(c int) bool { return c < 0 })},
	{"string>?", 1, -1, compareStrings("string>?", false, func(c int) bool { return c > 0 })},
	{"string<=?", 1, -1, compareStrings("string<=?", false, func(c int) bool { return c <= 0 })},
	{"string>=?", 1, -1, compareStrings("string>=?", false, func(c int) bool { return c >= 0 })},
	{"string-ci=?", 1, -1, compareStrings("string-ci=?", true, func(c int) bool { return c == 0 })},
	{"string-ci<?", 1, -1, compareStrings("string-ci<?", true, func(c int) bool { return c < 0 })},
	{"string-ci>?", 1, -1, compareStrings("string-ci>?", true, func(c int) bool { return c > 0 })},
	{"string-ci<=?", 1, -1, compareStrings("string-ci<=?", true, func(c int) bool { return c <= 0 })},
	{"string-ci>=?", 1, -1, compareStrings("string-ci>=?", true, func(c int) bool { return c >= 0 })},
	{"substring", 3, 3, substring_},
	{"string-append", 0, -1, stringAppend_},
	{"string->list", 1, 1, stringToList_},
	{"list->string", 1, 1, listToString_},
	{"string-copy", 1, 1, stringCopy_},
	{"string-fill!", 2, 2, stringFill_},
}

func (in *Interp) charArg(x Value, who string) byte {
	if !x.IsChar() {
		in.fail(TypeError, "Expecting a character -- "+who, x)
	}
	return x.Char()
}

func (in *Interp) stringArg(x Value, who string) string {
	if !in.IsString(x) {
		in.fail(TypeError, "Expecting a string -- "+who, x)
	}
	return in.GoString(x)
}

func upcase(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func downcase(c byte) byte { return byte(toLower(int(c))) }

func foldString(s string) string {
	b := []byte(s)
	for k, c := range b {
		b[k] = downcase(c)
	}
	return string(b)
}

func charP_(in *Interp, args Value) Value {
	return Bool(in.args1(args).IsChar())
}

func compareChars(who string, fold bool, ok func(c int) bool) Subr {
	return func(in *Interp, args Value) Value {
		prev := in.charArg(in.Car(args), who)
		result := true
		for a := in.Cdr(args); a != Nil; a = in.Cdr(a) {
			c := in.charArg(in.Car(a), who)
			x, y := prev, c
			if fold {
				x, y = downcase(x), downcase(y)
			}
			if !ok(int(x) - int(y)) {
				result = false
			}
			prev = c
		}
		return Bool(result)
	}
}

func testChar(who string, ok func(c int) bool) Subr {
	return func(in *Interp, args Value) Value {
		return Bool(ok(int(in.charArg(in.args1(args), who))))
	}
}

func charToInteger_(in *Interp, args Value) Value {
	return MakeFixnum(int64(in.charArg(in.args1(args), "char->integer")))
}

func integerToChar_(in *Interp, args Value) Value {
	x := in.args1(args)
	n := in.fixnumArg(x, "integer->char")
	if n < 0 || n > 255 {
		in.fail(RuntimeError, "Argument out of range -- integer->char", x)
	}
	return MakeChar(byte(n))
}

func charUpcase_(in *Interp, args Value) Value {
	return MakeChar(upcase(in.charArg(in.args1(args), "char-upcase")))
}

func charDowncase_(in *Interp, args Value) Value {
	return MakeChar(downcase(in.charArg(in.args1(args), "char-downcase")))
}

//----------------------------------------------------------------------

func stringP_(in *Interp, args Value) Value {
	return Bool(in.IsString(in.args1(args)))
}

func makeString_(in *Interp, args Value) Value {
	x := in.args1(args)
	n := in.fixnumArg(x, "make-string")
	if n < 0 {
		in.fail(RuntimeError, "Argument out of range -- make-string", x)
	}
	fill := in.charArg(in.optArg(args, 1, MakeChar(' ')), "make-string")
	if n > int64(in.heap.Remaining()) {
		in.exhausted(stringWords(int(n)) + 1)
	}
	s := in.MakeString(int(n))
	for k := 0; k < int(n); k++ {
		in.stringSet(s, k, fill)
	}
	return s
}

func string_(in *Interp, args Value) Value {
	var b []byte
	for a := args; a != Nil; a = in.Cdr(a) {
		b = append(b, in.charArg(in.Car(a), "string"))
	}
	return in.NewString(string(b))
}

func stringLength_(in *Interp, args Value) Value {
	in.stringArg(in.args1(args), "string-length")
	return MakeFixnum(int64(in.StringLength(in.args1(args))))
}

func stringRef_(in *Interp, args Value) Value {
	s, k := in.args2(args)
	in.stringArg(s, "string-ref")
	return MakeChar(in.stringRef(s, in.indexArg(k, in.StringLength(s), "string-ref")))
}

func stringSet_(in *Interp, args Value) Value {
	s, k := in.args2(args)
	in.stringArg(s, "string-set!")
	i := in.indexArg(k, in.StringLength(s), "string-set!")
	in.stringSet(s, i, in.charArg(in.Caddr(args), "string-set!"))
	return Unspecified
}

func compareStrings(who string, fold bool, ok func(c int) bool) Subr {
	return func(in *Interp, args Value) Value {
		prev := in.stringArg(in.Car(args), who)
		result := true
		for a := in.Cdr(args); a != Nil; a = in.Cdr(a) {
			s := in.stringArg(in.Car(a), who)
			x, y := prev, s
			if fold {
				x, y = foldString(x), foldString(y)
			}
			if !ok(strings.Compare(x, y)) {
				result = false
			}
			prev = s
		}
		return Bool(result)
	}
}

func substring_(in *Interp, args Value) Value {
	s := in.stringArg(in.Car(args), "substring")
	start, end := in.Cadr(args), in.Caddr(args)
	i := in.indexArg(start, len(s)+1, "substring")
	j := in.indexArg(end, len(s)+1, "substring")
	if i > j {
		in.fail(RuntimeError, "Index out of range -- substring", start)
	}
	return in.NewString(s[i:j])
}

func stringAppend_(in *Interp, args Value) Value {
	var b strings.Builder
	for a := args; a != Nil; a = in.Cdr(a) {
		b.WriteString(in.stringArg(in.Car(a), "string-append"))
	}
	return in.NewString(b.String())
}

func stringToList_(in *Interp, args Value) Value {
	s := in.stringArg(in.args1(args), "string->list")
	result := Nil
	for k := len(s) - 1; k >= 0; k-- {
		result = in.Cons(MakeChar(s[k]), result)
	}
	return result
}

func listToString_(in *Interp, args Value) Value {
	var b []byte
	for j := in.listArg(in.args1(args), "list->string"); j != Nil; j = in.Cdr(j) {
		b = append(b, in.charArg(in.Car(j), "list->string"))
	}
	return in.NewString(string(b))
}

func stringCopy_(in *Interp, args Value) Value {
	return in.NewString(in.stringArg(in.args1(args), "string-copy"))
}

func stringFill_(in *Interp, args Value) Value {
	s, c := in.args2(args)
	in.stringArg(s, "string-fill!")
	fill := in.charArg(c, "string-fill!")
	for k := in.StringLength(s) - 1; k >= 0; k-- {
		in.stringSet(s, k, fill)
	}
	return Unspecified
}
