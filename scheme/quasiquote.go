package scheme

// Quasi-Quotation

// QqExpand expands the template x of `x into an equivalent expression.
// Parts without unquotes are folded back into quoted constants.
func (in *Interp) QqExpand(x Value) Value {
	e, constant := in.qqExpand(x, 0) // Begin with the nesting level 0.
	if constant {
		return in.QqQuote(e)
	}
	return e
}

// QqQuote quotes x so that the result evaluates to x.
func (in *Interp) QqQuote(x Value) Value {
	if x.IsPair() || in.IsSymbol(x) {
		return in.List(in.kw.quote, x)
	}
	return x
}

// qqExpand returns either a datum equal to the expansion of x (constant
// is true) or an expression building it.
func (in *Interp) qqExpand(x Value, level int) (e Value, constant bool) {
	if !x.IsPair() {
		return x, true
	}
	switch head := in.Car(x); head {
	case in.kw.unquote: // ,a
		if level == 0 {
			return in.qqOperand(x), false // ,a => a
		}
		return in.qqWrap(head, x, level-1)
	case in.kw.quasiquote: // `a
		return in.qqWrap(head, x, level+1)
	case in.kw.unquoteSplicing: // ,@a outside of a list
		if level == 0 {
			in.fail(SyntaxError, ",@ in illegal context", in.qqOperand(x))
		}
		return in.qqWrap(head, x, level-1)
	}
	if car := in.Car(x); car.IsPair() && in.Car(car) == in.kw.unquoteSplicing && level == 0 {
		// (,@a . rest) => (append a rest)
		rest, rc := in.qqExpand(in.Cdr(x), level)
		if rc && rest == Nil {
			return in.List(in.appendProc, in.qqOperand(car)), false
		}
		return in.List(in.appendProc, in.qqOperand(car), in.qqArg(rest, rc)), false
	}
	a, ac := in.qqExpand(in.Car(x), level)
	d, dc := in.qqExpand(in.Cdr(x), level)
	return in.qqCons(a, ac, d, dc)
}

// qqOperand returns a of (unquote a) and checks the shape of the form.
func (in *Interp) qqOperand(x Value) Value {
	if in.Length(x) != 2 {
		in.fail(SyntaxError, "Ill-formed special form", x)
	}
	return in.Cadr(x)
}

// qqWrap expands (head a) at a nested level, keeping head.
func (in *Interp) qqWrap(head, x Value, level int) (Value, bool) {
	a, ac := in.qqExpand(in.qqOperand(x), level)
	d, dc := in.qqCons(a, ac, Nil, true)
	return in.qqCons(head, true, d, dc)
}

func (in *Interp) qqCons(a Value, ac bool, d Value, dc bool) (Value, bool) {
	if ac && dc {
		return in.Cons(a, d), true
	}
	return in.List(in.consProc, in.qqArg(a, ac), in.qqArg(d, dc)), false
}

func (in *Interp) qqArg(e Value, constant bool) Value {
	if constant {
		return in.QqQuote(e)
	}
	return e
}
