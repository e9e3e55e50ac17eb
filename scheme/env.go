package scheme

// An environment is a list of frames, innermost first. A frame is a pair
// (names . values) of two parallel lists.

// Extend returns a new environment whose first frame binds names to
// values and whose remaining frames are base.
func (in *Interp) Extend(names, values, base Value) Value {
	n, v := names, values
	for n.IsPair() && v.IsPair() {
		n, v = in.Cdr(n), in.Cdr(v)
	}
	if n != Nil {
		in.fail(ArityError, "Too few arguments supplied", names)
	}
	if v != Nil {
		in.fail(ArityError, "Too many arguments supplied", values)
	}
	return in.Cons(in.Cons(names, values), base)
}

// lookup returns the cell of the values list holding the binding of sym.
func (in *Interp) lookup(sym, env Value) (Value, bool) {
	for ; env != Nil; env = in.Cdr(env) {
		frame := in.Car(env)
		names, values := in.Car(frame), in.Cdr(frame)
		for names != Nil {
			if in.Car(names) == sym {
				return values, true
			}
			names, values = in.Cdr(names), in.Cdr(values)
		}
	}
	return Nil, false
}

// GetVar retrieves the value of sym from env.
func (in *Interp) GetVar(sym, env Value) Value {
	if cell, ok := in.lookup(sym, env); ok {
		return in.Car(cell)
	}
	in.fail(UnboundVariable, "Unbound variable", sym)
	return Unspecified
}

// SetVar sets the value of sym in the frame which binds it.
func (in *Interp) SetVar(sym, value, env Value) {
	if cell, ok := in.lookup(sym, env); ok {
		in.SetCar(cell, value)
		return
	}
	in.fail(UnboundVariable, "Unbound variable", sym)
}

// DefineVar binds sym to value in the innermost frame of env,
// overwriting an existing binding of that frame.
func (in *Interp) DefineVar(sym, value, env Value) {
	if env == Nil {
		in.fail(RuntimeError, "Cannot define in the empty environment", sym)
	}
	frame := in.Car(env)
	names, values := in.Car(frame), in.Cdr(frame)
	for names != Nil {
		if in.Car(names) == sym {
			in.SetCar(values, value)
			return
		}
		names, values = in.Cdr(names), in.Cdr(values)
	}
	in.SetCar(frame, in.Cons(sym, in.Car(frame)))
	in.SetCdr(frame, in.Cons(value, in.Cdr(frame)))
}

// IsBound reports whether sym has a binding in env.
func (in *Interp) IsBound(sym, env Value) bool {
	_, ok := in.lookup(sym, env)
	return ok
}
