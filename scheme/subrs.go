package scheme

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Subr is the native implementation of a primitive procedure. args is a
// fresh proper list whose length has been checked against the arity of
// the primitive.
type Subr = func(in *Interp, args Value) Value

type primitive struct {
	name     string
	min, max int // max < 0: no upper bound
	fn       Subr
}

// DefinePrimitive binds name in the user environment to a new primitive
// procedure taking between min and max arguments (max < 0 for any
// number).
func (in *Interp) DefinePrimitive(name string, min, max int, fn Subr) Value {
	in.prims = append(in.prims, primitive{name, min, max, fn})
	p := in.makePrimitive(len(in.prims) - 1)
	in.DefineVar(in.Sym(name), p, in.global)
	return p
}

func arityText(min, max int) string {
	plural := func(n int) string {
		if n == 1 {
			return "1 argument"
		}
		return strconv.Itoa(n) + " arguments"
	}
	switch {
	case min == max:
		return plural(min)
	case max < 0:
		return "at least " + plural(min)
	case max == min+1:
		return fmt.Sprintf("%d or %s", min, plural(max))
	}
	return fmt.Sprintf("between %d and %s", min, plural(max))
}

func (in *Interp) callPrimitive(fn, args Value) Value {
	p := in.primitiveOf(fn)
	n := 0
	for a := args; a != Nil; a = in.heap.words[a.index()+1] {
		n++
	}
	if n < p.min || (p.max >= 0 && n > p.max) {
		in.fail(ArityError, "Expecting "+arityText(p.min, p.max)+" -- "+p.name, args)
	}
	return p.fn(in, args)
}

// args1 and args2 return the leading arguments of a primitive.
func (in *Interp) args1(args Value) Value { return in.heap.words[args.index()] }

func (in *Interp) args2(args Value) (Value, Value) {
	w := in.heap.words
	return w[args.index()], w[w[args.index()+1].index()]
}

// optArg returns argument k or dflt if there are fewer arguments.
func (in *Interp) optArg(args Value, k int, dflt Value) Value {
	for ; k > 0 && args != Nil; k-- {
		args = in.Cdr(args)
	}
	if args == Nil {
		return dflt
	}
	return in.Car(args)
}

func (in *Interp) initPrimitives() {
	prims := []primitive{
		// Equivalence predicates
		{"eq?", 2, -1, eqP_},
		{"eqv?", 2, -1, eqP_},
		{"equal?", 2, 2, equalP_},

		// Numbers
		{"number?", 1, 1, numberP_},
		{"integer?", 1, 1, numberP_},
		{"=", 1, -1, compareNumbers("=", func(a, b int64) bool { return a == b })},
		{"<", 1, -1, compareNumbers("<", func(a, b int64) bool { return a < b })},
		{">", 1, -1, compareNumbers(">", func(a, b int64) bool { return a > b })},
		{"<=", 1, -1, compareNumbers("<=", func(a, b int64) bool { return a <= b })},
		{">=", 1, -1, compareNumbers(">=", func(a, b int64) bool { return a >= b })},
		{"zero?", 1, 1, testNumber("zero?", func(n int64) bool { return n == 0 })},
		{"positive?", 1, 1, testNumber("positive?", func(n int64) bool { return n > 0 })},
		{"negative?", 1, 1, testNumber("negative?", func(n int64) bool { return n < 0 })},
		{"odd?", 1, 1, testNumber("odd?", func(n int64) bool { return n%2 != 0 })},
		{"even?", 1, 1, testNumber("even?", func(n int64) bool { return n%2 == 0 })},
		{"max", 1, -1, max_},
		{"min", 1, -1, min_},
		{"+", 0, -1, plus_},
		{"*", 0, -1, star_},
		{"-", 1, -1, minus_},
		{"/", 1, -1, slash_},
		{"abs", 1, 1, abs_},
		{"quotient", 2, 2, quotient_},
		{"remainder", 2, 2, remainder_},
		{"modulo", 2, 2, modulo_},
		{"gcd", 0, -1, gcd_},
		{"lcm", 0, -1, lcm_},
		{"number->string", 1, 2, numberToString_},
		{"string->number", 1, 2, stringToNumber_},

		// Booleans
		{"not", 1, 1, not_},
		{"boolean?", 1, 1, booleanP_},

		// Pairs and lists
		{"cons", 2, 2, cons_},
		{"pair?", 1, 1, pairP_},
		{"set-car!", 2, 2, set_car_},
		{"set-cdr!", 2, 2, set_cdr_},
		{"null?", 1, 1, nullP_},
		{"list?", 1, 1, listP_},
		{"list", 0, -1, list_},
		{"length", 1, 1, length_},
		{"append", 0, -1, append_},
		{"reverse", 1, 1, reverse_},
		{"list-tail", 2, 2, list_tail_},
		{"list-ref", 2, 2, list_ref_},
		{"memq", 2, 2, member("memq", eqv)},
		{"memv", 2, 2, member("memv", eqv)},
		{"member", 2, 2, member("member", (*Interp).Equal)},
		{"assq", 2, 2, assoc("assq", eqv)},
		{"assv", 2, 2, assoc("assv", eqv)},
		{"assoc", 2, 2, assoc("assoc", (*Interp).Equal)},

		// Symbols
		{"symbol?", 1, 1, symbolP_},
		{"symbol->string", 1, 1, symbolToString_},
		{"string->symbol", 1, 1, stringToSymbol_},

		// Control and system
		{"procedure?", 1, 1, procedureP_},
		{"interaction-environment", 0, 0, interactionEnvironment_},
		{"error", 0, -1, error_},
		{"runtime", 0, 0, runtime_},
		{"heap-used", 0, 0, heapUsed_},
		{"exit", 0, 1, exit_},
	}
	for _, name := range cxrNames() {
		prims = append(prims, primitive{name, 1, 1, cxr(name)})
	}
	prims = append(prims, textPrimitives...)
	prims = append(prims, portPrimitives...)
	for _, p := range prims {
		in.DefinePrimitive(p.name, p.min, p.max, p.fn)
	}
	in.consProc = in.GetVar(in.Sym("cons"), in.global)
	in.appendProc = in.GetVar(in.Sym("append"), in.global)
	in.memvProc = in.GetVar(in.Sym("memv"), in.global)
	rr := in.NewReader(strings.NewReader(makePromiseSource))
	in.makePromise = in.Eval(rr.read(), in.global)
}

// makePromiseSource builds a promise as a memoizing thunk; force calls it.
const makePromiseSource = `
(lambda (proc)
  (let ((ready #f) (result #f))
    (lambda ()
      (if ready
          result
          (let ((x (proc)))
            (if ready
                result
                (begin (set! ready #t)
                       (set! result x)
                       result)))))))`

//----------------------------------------------------------------------

func eqv(in *Interp, a, b Value) bool { return a == b }

func eqP_(in *Interp, args Value) Value {
	first := in.Car(args)
	for a := in.Cdr(args); a != Nil; a = in.Cdr(a) {
		if in.Car(a) != first {
			return False
		}
	}
	return True
}

// Equal reports whether a and b are structurally equal. It recurses
// through pairs and so does not terminate on cyclic structure.
func (in *Interp) Equal(a, b Value) bool {
	for {
		if a == b {
			return true
		}
		switch {
		case a.IsPair() && b.IsPair():
			if !in.Equal(in.Car(a), in.Car(b)) {
				return false
			}
			a, b = in.Cdr(a), in.Cdr(b)
		case in.IsString(a) && in.IsString(b):
			return in.GoString(a) == in.GoString(b)
		default:
			return false
		}
	}
}

func equalP_(in *Interp, args Value) Value {
	a, b := in.args2(args)
	return Bool(in.Equal(a, b))
}

//----------------------------------------------------------------------

func (in *Interp) fixnumArg(x Value, who string) int64 {
	if !x.IsFixnum() {
		in.fail(TypeError, "Expecting numbers -- "+who, x)
	}
	return x.Fixnum()
}

// fixnumResult converts n to a fixnum, failing if it is out of range.
func (in *Interp) fixnumResult(n int64, who string) Value {
	if n > MaxFixnum || n < MinFixnum {
		in.fail(RuntimeError, "Integer overflow -- "+who, Unspecified)
	}
	return MakeFixnum(n)
}

func (in *Interp) indexArg(x Value, limit int, who string) int {
	if !x.IsFixnum() {
		in.fail(TypeError, "Expecting an index -- "+who, x)
	}
	k := x.Fixnum()
	if k < 0 || k >= int64(limit) {
		in.fail(RuntimeError, "Index out of range -- "+who, x)
	}
	return int(k)
}

func numberP_(in *Interp, args Value) Value {
	return Bool(in.args1(args).IsFixnum())
}

func compareNumbers(who string, ok func(a, b int64) bool) Subr {
	return func(in *Interp, args Value) Value {
		prev := in.fixnumArg(in.Car(args), who)
		result := true
		for a := in.Cdr(args); a != Nil; a = in.Cdr(a) {
			n := in.fixnumArg(in.Car(a), who)
			if !ok(prev, n) {
				result = false
			}
			prev = n
		}
		return Bool(result)
	}
}

func testNumber(who string, ok func(n int64) bool) Subr {
	return func(in *Interp, args Value) Value {
		return Bool(ok(in.fixnumArg(in.args1(args), who)))
	}
}

func max_(in *Interp, args Value) Value {
	best := in.fixnumArg(in.Car(args), "max")
	for a := in.Cdr(args); a != Nil; a = in.Cdr(a) {
		if n := in.fixnumArg(in.Car(a), "max"); n > best {
			best = n
		}
	}
	return MakeFixnum(best)
}

func min_(in *Interp, args Value) Value {
	best := in.fixnumArg(in.Car(args), "min")
	for a := in.Cdr(args); a != Nil; a = in.Cdr(a) {
		if n := in.fixnumArg(in.Car(a), "min"); n < best {
			best = n
		}
	}
	return MakeFixnum(best)
}

func plus_(in *Interp, args Value) Value {
	var sum int64
	for a := args; a != Nil; a = in.Cdr(a) {
		sum += in.fixnumArg(in.Car(a), "+")
		if sum > MaxFixnum || sum < MinFixnum {
			in.fail(RuntimeError, "Integer overflow -- +", args)
		}
	}
	return MakeFixnum(sum)
}

// mulFixnum multiplies two fixnums, reporting whether the product fits.
func mulFixnum(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a || p > MaxFixnum || p < MinFixnum {
		return 0, false
	}
	return p, true
}

func star_(in *Interp, args Value) Value {
	product := int64(1)
	for a := args; a != Nil; a = in.Cdr(a) {
		var ok bool
		product, ok = mulFixnum(product, in.fixnumArg(in.Car(a), "*"))
		if !ok {
			in.fail(RuntimeError, "Integer overflow -- *", args)
		}
	}
	return MakeFixnum(product)
}

func minus_(in *Interp, args Value) Value {
	n := in.fixnumArg(in.Car(args), "-")
	rest := in.Cdr(args)
	if rest == Nil {
		return in.fixnumResult(-n, "-")
	}
	for ; rest != Nil; rest = in.Cdr(rest) {
		n -= in.fixnumArg(in.Car(rest), "-")
		if n > MaxFixnum || n < MinFixnum {
			in.fail(RuntimeError, "Integer overflow -- -", args)
		}
	}
	return MakeFixnum(n)
}

// slash_ divides integers, truncating toward zero.
func slash_(in *Interp, args Value) Value {
	n := in.fixnumArg(in.Car(args), "/")
	rest := in.Cdr(args)
	if rest == Nil {
		rest, n = args, 1
	}
	for ; rest != Nil; rest = in.Cdr(rest) {
		d := in.fixnumArg(in.Car(rest), "/")
		if d == 0 {
			in.fail(RuntimeError, "Will not divide by zero -- /", args)
		}
		n /= d
	}
	return in.fixnumResult(n, "/")
}

func abs_(in *Interp, args Value) Value {
	n := in.fixnumArg(in.args1(args), "abs")
	if n < 0 {
		return in.fixnumResult(-n, "abs")
	}
	return MakeFixnum(n)
}

func (in *Interp) divisionArgs(args Value, who string) (int64, int64) {
	a, b := in.args2(args)
	n1, n2 := in.fixnumArg(a, who), in.fixnumArg(b, who)
	if n2 == 0 {
		in.fail(RuntimeError, "Will not divide by zero -- "+who, args)
	}
	return n1, n2
}

func quotient_(in *Interp, args Value) Value {
	n1, n2 := in.divisionArgs(args, "quotient")
	return in.fixnumResult(n1/n2, "quotient")
}

func remainder_(in *Interp, args Value) Value {
	n1, n2 := in.divisionArgs(args, "remainder")
	return MakeFixnum(n1 % n2)
}

// modulo_ takes the sign of the divisor.
func modulo_(in *Interp, args Value) Value {
	n1, n2 := in.divisionArgs(args, "modulo")
	return MakeFixnum((n1%n2 + n2) % n2)
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func gcd_(in *Interp, args Value) Value {
	var g int64
	for a := args; a != Nil; a = in.Cdr(a) {
		g = gcd(g, in.fixnumArg(in.Car(a), "gcd"))
	}
	return in.fixnumResult(g, "gcd")
}

func lcm_(in *Interp, args Value) Value {
	l := int64(1)
	for a := args; a != Nil; a = in.Cdr(a) {
		n := in.fixnumArg(in.Car(a), "lcm")
		if n == 0 {
			return MakeFixnum(0)
		}
		var ok bool
		if l, ok = mulFixnum(l/gcd(l, n), n); !ok {
			in.fail(RuntimeError, "Integer overflow -- lcm", args)
		}
		if l < 0 {
			l = -l
		}
	}
	return MakeFixnum(l)
}

func (in *Interp) radixArg(args Value, who string) int {
	r := in.optArg(args, 1, MakeFixnum(10))
	switch in.fixnumArg(r, who) {
	case 2, 8, 10, 16:
		return int(r.Fixnum())
	}
	in.fail(RuntimeError, "Unsupported radix -- "+who, r)
	return 10
}

func numberToString_(in *Interp, args Value) Value {
	n := in.fixnumArg(in.args1(args), "number->string")
	return in.NewString(strconv.FormatInt(n, in.radixArg(args, "number->string")))
}

// stringToNumber_ returns #f unless the whole string is an integer in
// the fixnum range.
func stringToNumber_(in *Interp, args Value) Value {
	s := in.stringArg(in.args1(args), "string->number")
	n, err := strconv.ParseInt(s, in.radixArg(args, "string->number"), 64)
	if err != nil || n > MaxFixnum || n < MinFixnum {
		return False
	}
	return MakeFixnum(n)
}

//----------------------------------------------------------------------

func not_(in *Interp, args Value) Value {
	return Bool(in.args1(args) == False)
}

func booleanP_(in *Interp, args Value) Value {
	return Bool(in.args1(args).IsBoolean())
}

//----------------------------------------------------------------------

func cons_(in *Interp, args Value) Value {
	a, b := in.args2(args)
	return in.Cons(a, b)
}

func pairP_(in *Interp, args Value) Value {
	return Bool(in.args1(args).IsPair())
}

func (in *Interp) pairArg(x Value, who string) Value {
	if !x.IsPair() {
		in.fail(TypeError, "Expecting a pair -- "+who, x)
	}
	return x
}

func set_car_(in *Interp, args Value) Value {
	pair, obj := in.args2(args)
	in.SetCar(in.pairArg(pair, "set-car!"), obj)
	return Unspecified
}

func set_cdr_(in *Interp, args Value) Value {
	pair, obj := in.args2(args)
	in.SetCdr(in.pairArg(pair, "set-cdr!"), obj)
	return Unspecified
}

// cxrNames returns car, cdr and their compositions up to four levels.
func cxrNames() []string {
	names := []string{"a", "d"}
	for i := 0; i < len(names); i++ {
		if len(names[i]) < 4 {
			names = append(names, names[i]+"a", names[i]+"d")
		}
	}
	result := make([]string, len(names))
	for i, s := range names {
		result[i] = "c" + s + "r"
	}
	return result
}

// cxr returns the accessor named like cadr, applying its letters from
// right to left.
func cxr(name string) Subr {
	path := name[1 : len(name)-1]
	return func(in *Interp, args Value) Value {
		x := in.args1(args)
		for i := len(path) - 1; i >= 0; i-- {
			in.pairArg(x, name)
			if path[i] == 'a' {
				x = in.heap.words[x.index()]
			} else {
				x = in.heap.words[x.index()+1]
			}
		}
		return x
	}
}

func nullP_(in *Interp, args Value) Value {
	return Bool(in.args1(args) == Nil)
}

func listP_(in *Interp, args Value) Value {
	return Bool(in.IsList(in.args1(args)))
}

func list_(in *Interp, args Value) Value {
	return args
}

func (in *Interp) listArg(x Value, who string) Value {
	if !in.IsList(x) {
		in.fail(TypeError, "Expecting a list -- "+who, x)
	}
	return x
}

func length_(in *Interp, args Value) Value {
	n := in.Length(in.args1(args))
	if n < 0 {
		in.fail(TypeError, "Expecting a list -- length", in.args1(args))
	}
	return MakeFixnum(int64(n))
}

// append_ copies every argument but the last, which is shared.
func append_(in *Interp, args Value) Value {
	if args == Nil {
		return Nil
	}
	result := Nil
	var tail Value
	for ; in.Cdr(args) != Nil; args = in.Cdr(args) {
		for j := in.listArg(in.Car(args), "append"); j != Nil; j = in.Cdr(j) {
			cell := in.Cons(in.Car(j), Nil)
			if result == Nil {
				result = cell
			} else {
				in.SetCdr(tail, cell)
			}
			tail = cell
		}
	}
	if result == Nil {
		return in.Car(args)
	}
	in.SetCdr(tail, in.Car(args))
	return result
}

func reverse_(in *Interp, args Value) Value {
	return in.Reverse(in.listArg(in.args1(args), "reverse"))
}

func (in *Interp) listTail(args Value, who string) Value {
	list, k := in.args2(args)
	n := in.fixnumArg(k, who)
	if n < 0 {
		in.fail(RuntimeError, "Index out of range -- "+who, k)
	}
	for ; n > 0; n-- {
		if !list.IsPair() {
			in.fail(RuntimeError, "Index out of range -- "+who, k)
		}
		list = in.Cdr(list)
	}
	return list
}

func list_tail_(in *Interp, args Value) Value {
	return in.listTail(args, "list-tail")
}

func list_ref_(in *Interp, args Value) Value {
	tail := in.listTail(args, "list-ref")
	if !tail.IsPair() {
		in.fail(RuntimeError, "Index out of range -- list-ref", in.Cadr(args))
	}
	return in.Car(tail)
}

func member(who string, same func(in *Interp, a, b Value) bool) Subr {
	return func(in *Interp, args Value) Value {
		obj, list := in.args2(args)
		for j := in.listArg(list, who); j != Nil; j = in.Cdr(j) {
			if same(in, obj, in.Car(j)) {
				return j
			}
		}
		return False
	}
}

func assoc(who string, same func(in *Interp, a, b Value) bool) Subr {
	return func(in *Interp, args Value) Value {
		obj, alist := in.args2(args)
		for j := in.listArg(alist, who); j != Nil; j = in.Cdr(j) {
			entry := in.pairArg(in.Car(j), who)
			if same(in, obj, in.Car(entry)) {
				return entry
			}
		}
		return False
	}
}

//----------------------------------------------------------------------

func symbolP_(in *Interp, args Value) Value {
	return Bool(in.IsSymbol(in.args1(args)))
}

func symbolToString_(in *Interp, args Value) Value {
	sym := in.args1(args)
	if !in.IsSymbol(sym) {
		in.fail(TypeError, "Expecting a symbol -- symbol->string", sym)
	}
	return in.NewString(in.SymbolName(sym))
}

// stringToSymbol_ interns the name as is, without case folding.
func stringToSymbol_(in *Interp, args Value) Value {
	return in.Sym(in.stringArg(in.args1(args), "string->symbol"))
}

//----------------------------------------------------------------------

func procedureP_(in *Interp, args Value) Value {
	return Bool(in.IsApplicable(in.args1(args)))
}

func interactionEnvironment_(in *Interp, args Value) Value {
	return in.global
}

// error_ signals a runtime error. A string message is displayed; the
// remaining irritants are written after it.
func error_(in *Interp, args Value) Value {
	var b strings.Builder
	for a := args; a != Nil; a = in.Cdr(a) {
		if a != args {
			b.WriteByte(' ')
		}
		in.print(&b, in.Car(a), !(a == args && in.IsString(in.Car(a))))
	}
	in.fail(RuntimeError, b.String(), Unspecified)
	return Unspecified
}

var startTime = time.Now()

// runtime_ returns the milliseconds elapsed since the program started.
func runtime_(in *Interp, args Value) Value {
	return MakeFixnum(time.Since(startTime).Milliseconds())
}

func heapUsed_(in *Interp, args Value) Value {
	return MakeFixnum(int64(in.heap.Used()))
}

func exit_(in *Interp, args Value) Value {
	code := 0
	switch x := in.optArg(args, 0, True); {
	case x.IsFixnum():
		code = int(x.Fixnum())
	case x == False:
		code = 1
	}
	in.flushPorts()
	in.log.Info("exit", "code", code)
	in.cfg.Exit(code)
	return Unspecified
}
