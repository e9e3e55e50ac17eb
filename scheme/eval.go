package scheme

// Eval evaluates x in env.
// Eval panics with an *EvalError on failure; SafeEval recovers it.
func (in *Interp) Eval(x, env Value) Value {
	in.depth++
	if in.depth > in.MaxDepthSeen {
		in.MaxDepthSeen = in.depth
	}
	if in.depth > in.cfg.MaxDepth {
		in.fail(RuntimeError, "Aborting!: maximum recursion depth exceeded", Unspecified)
	}
	x = in.eval(x, env)
	in.depth--
	return x
}

// eval runs the evaluation loop. A special form or an application in
// tail position replaces (x, env) and goes around again, so it costs no
// Go stack.
func (in *Interp) eval(x, env Value) Value {
	for {
		switch x & tagMask {
		case tagPair:
		case tagIndirect:
			if in.IsSymbol(x) {
				return in.GetVar(x, env)
			}
			return x
		default:
			return x // fixnums, characters, singletons
		}
		op := in.heap.words[x.index()]
		if in.isKeyword(op) {
			x, env = in.fsubrs[op](in, x, env)
			if env == doneEnv {
				return x
			}
			continue
		}
		fn := in.Eval(op, env)
		if in.IsMacro(fn) {
			x = in.expandMacro(fn, x)
			continue
		}
		args := in.evalArgs(in.Cdr(x), env)
		x, env = in.apply(fn, args)
		if env == doneEnv {
			return x
		}
	}
}

// evalArgs evaluates the operands left to right into a fresh list.
func (in *Interp) evalArgs(x, env Value) Value {
	if x == Nil {
		return Nil
	}
	head := in.Cons(in.Eval(in.Car(x), env), Nil)
	tail := head
	for x = in.Cdr(x); x != Nil; x = in.Cdr(x) {
		cell := in.Cons(in.Eval(in.Car(x), env), Nil)
		in.SetCdr(tail, cell)
		tail = cell
	}
	return head
}

// apply applies fn to args. It returns either the result and doneEnv, or
// the last body form of a compound procedure and the environment to
// evaluate it in.
func (in *Interp) apply(fn, args Value) (Value, Value) {
	switch in.header(fn) & hdrKindMask {
	case hdrPrim:
		return in.callPrimitive(fn, args), doneEnv
	case hdrProc:
		w := in.heap.words[fn.index():]
		params, body, env := w[1], w[2], w[3]
		return in.sequence(body, in.bindFormals(params, args, env))
	}
	in.fail(ApplyError, "The object is not applicable", fn)
	return Unspecified, doneEnv
}

// Apply calls fn with the list args and returns the result.
func (in *Interp) Apply(fn, args Value) Value {
	x, env := in.apply(fn, args)
	if env == doneEnv {
		return x
	}
	return in.Eval(x, env)
}

// bindFormals extends env with params bound to args. A symbol in the
// tail of params collects the remaining arguments as a list.
func (in *Interp) bindFormals(params, args, env Value) Value {
	p := params
	for p.IsPair() {
		p = in.Cdr(p)
	}
	if p == Nil {
		return in.Extend(params, args, env)
	}
	// (v1 ... vN . rest) or a bare rest symbol
	names, values := Nil, Nil
	a := args
	for p = params; p.IsPair(); p = in.Cdr(p) {
		if !a.IsPair() {
			in.fail(ArityError, "Too few arguments supplied", args)
		}
		names = in.Cons(in.Car(p), names)
		values = in.Cons(in.Car(a), values)
		a = in.Cdr(a)
	}
	names = in.Cons(p, names)
	values = in.Cons(a, values)
	return in.Cons(in.Cons(names, values), env)
}

// sequence evaluates all but the last form of body for effect and
// returns the last with env, to be evaluated in tail position.
// An empty body yields Unspecified.
func (in *Interp) sequence(body, env Value) (Value, Value) {
	if body == Nil {
		return Unspecified, doneEnv
	}
	for {
		rest := in.Cdr(body)
		if rest == Nil {
			return in.Car(body), env
		}
		in.Eval(in.Car(body), env)
		body = rest
	}
}

// expandMacro runs the transformer of m with the name form bound to the
// whole call x and returns the resulting expression.
func (in *Interp) expandMacro(m, x Value) Value {
	body := in.macroField(m, 1)
	env := in.Cons(in.Cons(in.Cons(in.kw.form, Nil), in.Cons(x, Nil)), in.macroField(m, 2))
	e, env := in.sequence(body, env)
	if env == doneEnv {
		return e
	}
	return in.Eval(e, env)
}
