package scheme

// FSubr is the implementation of a special form. It receives the whole
// form x, unevaluated. It returns either a value with doneEnv, or an
// expression and the environment in which evaluation continues.
type FSubr = func(in *Interp, x, env Value) (Value, Value)

type keywords struct {
	quote, quasiquote, unquote, unquoteSplicing Value
	lambda, define, set, if_, begin             Value
	cond, else_, arrow, case_, and, or          Value
	let, letStar, letrec, do_, delay            Value
	apply, eval, macro, theEnvironment          Value

	form Value // bound to the call form inside a macro transformer
}

func (in *Interp) initKeywords() {
	kw := &in.kw
	special := func(name string, f FSubr) Value {
		sym := in.Sym(name)
		in.heap.words[sym.index()] |= symKeyword
		in.fsubrs[sym] = f
		return sym
	}
	in.fsubrs = make(map[Value]FSubr)
	kw.quote = special("quote", quote_)
	kw.quasiquote = special("quasiquote", quasiquote_)
	kw.lambda = special("lambda", lambda_)
	kw.define = special("define", define_)
	kw.set = special("set!", set_)
	kw.if_ = special("if", if_)
	kw.begin = special("begin", begin_)
	kw.cond = special("cond", cond_)
	kw.case_ = special("case", case_)
	kw.and = special("and", and_)
	kw.or = special("or", or_)
	kw.let = special("let", let_)
	kw.letStar = special("let*", letStar_)
	kw.letrec = special("letrec", letrec_)
	kw.do_ = special("do", do_)
	kw.delay = special("delay", delay_)
	kw.apply = special("apply", apply_)
	kw.eval = special("eval", eval_)
	kw.macro = special("macro", macro_)
	kw.theEnvironment = special("the-environment", theEnvironment_)

	kw.unquote = in.Sym("unquote")
	kw.unquoteSplicing = in.Sym("unquote-splicing")
	kw.else_ = in.Sym("else")
	kw.arrow = in.Sym("=>")
	kw.form = in.Sym("form")
}

// formArgs returns the operands of the special form x after checking
// that there are at least min and, unless max is negative, at most max.
func (in *Interp) formArgs(x Value, min, max int) Value {
	args := in.Cdr(x)
	n := in.Length(args)
	if n < 0 {
		in.fail(SyntaxError, "Ill-formed special form", x)
	}
	if n < min || (max >= 0 && n > max) {
		in.fail(ArityError, "Ill-formed special form", x)
	}
	return args
}

// checkFormals accepts a symbol, or a list of symbols whose tail may be
// a symbol.
func (in *Interp) checkFormals(params, x Value) {
	for params.IsPair() {
		if !in.IsSymbol(in.Car(params)) {
			in.fail(SyntaxError, "Ill-formed special form", x)
		}
		params = in.Cdr(params)
	}
	if params != Nil && !in.IsSymbol(params) {
		in.fail(SyntaxError, "Ill-formed special form", x)
	}
}

// (quote e)
func quote_(in *Interp, x, env Value) (Value, Value) {
	return in.Car(in.formArgs(x, 1, 1)), doneEnv
}

// (quasiquote e)
func quasiquote_(in *Interp, x, env Value) (Value, Value) {
	return in.QqExpand(in.Car(in.formArgs(x, 1, 1))), env
}

// (lambda params e...)
func lambda_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 2, -1)
	in.checkFormals(in.Car(args), x)
	return in.MakeProcedure(in.Car(args), in.Cdr(args), env), doneEnv
}

// (define v e) or (define (f . params) e...)
func define_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 1, -1)
	target := in.Car(args)
	switch {
	case in.IsSymbol(target):
		value := Unspecified
		switch rest := in.Cdr(args); {
		case rest == Nil:
		case in.Cdr(rest) == Nil:
			value = in.Eval(in.Car(rest), env)
		default:
			in.fail(ArityError, "Ill-formed special form", x)
		}
		in.DefineVar(target, value, env)
		return target, doneEnv
	case target.IsPair():
		name, params, body := in.Car(target), in.Cdr(target), in.Cdr(args)
		if !in.IsSymbol(name) || body == Nil {
			in.fail(SyntaxError, "Ill-formed special form", x)
		}
		in.checkFormals(params, x)
		in.DefineVar(name, in.MakeProcedure(params, body, env), env)
		return name, doneEnv
	}
	in.fail(SyntaxError, "Variable required in this context", target)
	return Unspecified, doneEnv
}

// (set! v e)
func set_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 2, 2)
	sym := in.Car(args)
	if !in.IsSymbol(sym) {
		in.fail(SyntaxError, "Variable required in this context", sym)
	}
	in.SetVar(sym, in.Eval(in.Cadr(args), env), env)
	return sym, doneEnv
}

// (if test then [else])
func if_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 2, 3)
	if in.Eval(in.Car(args), env) != False {
		return in.Cadr(args), env
	}
	if alt := in.Cddr(args); alt != Nil {
		return in.Car(alt), env
	}
	return False, doneEnv
}

// (begin e...)
func begin_(in *Interp, x, env Value) (Value, Value) {
	return in.sequence(in.formArgs(x, 0, -1), env)
}

// (and e...)
func and_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 0, -1)
	if args == Nil {
		return True, doneEnv
	}
	for ; in.Cdr(args) != Nil; args = in.Cdr(args) {
		if in.Eval(in.Car(args), env) == False {
			return False, doneEnv
		}
	}
	return in.Car(args), env
}

// (or e...)
func or_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 0, -1)
	if args == Nil {
		return False, doneEnv
	}
	for ; in.Cdr(args) != Nil; args = in.Cdr(args) {
		if v := in.Eval(in.Car(args), env); v != False {
			return v, doneEnv
		}
	}
	return in.Car(args), env
}

// splitBindings returns the names and the initializers of ((v e)...).
func (in *Interp) splitBindings(bindings, x Value) (names, inits Value) {
	if !in.IsList(bindings) {
		in.fail(SyntaxError, "Ill-formed special form", x)
	}
	var nameList, initList []Value
	for ; bindings != Nil; bindings = in.Cdr(bindings) {
		b := in.Car(bindings)
		if in.Length(b) != 2 || !in.IsSymbol(in.Car(b)) {
			in.fail(SyntaxError, "Ill-formed special form", x)
		}
		nameList = append(nameList, in.Car(b))
		initList = append(initList, in.Cadr(b))
	}
	return in.List(nameList...), in.List(initList...)
}

// (let ((v e)...) body...) or (let name ((v e)...) body...)
func let_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 2, -1)
	if name := in.Car(args); in.IsSymbol(name) {
		args = in.formArgs(args, 2, -1)
		names, inits := in.splitBindings(in.Car(args), x)
		// ((letrec ((name (lambda names body...))) name) inits...)
		proc := in.Cons(in.kw.lambda, in.Cons(names, in.Cdr(args)))
		letrec := in.List(in.kw.letrec, in.List(in.List(name, proc)), name)
		return in.Cons(letrec, inits), env
	}
	names, inits := in.splitBindings(in.Car(args), x)
	proc := in.Cons(in.kw.lambda, in.Cons(names, in.Cdr(args)))
	return in.Cons(proc, inits), env
}

// (let* ((v e)...) body...)
func letStar_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 2, -1)
	bindings, body := in.Car(args), in.Cdr(args)
	if bindings == Nil {
		return in.List(in.Cons(in.kw.lambda, in.Cons(Nil, body))), env
	}
	names, inits := in.splitBindings(bindings, x)
	// ((lambda (v1) (let* ((v2 e2)...) body...)) e1)
	if rest := in.Cdr(bindings); rest != Nil {
		body = in.List(in.Cons(in.kw.letStar, in.Cons(rest, body)))
	}
	proc := in.Cons(in.kw.lambda, in.Cons(in.List(in.Car(names)), body))
	return in.List(proc, in.Car(inits)), env
}

// (letrec ((v e)...) body...)
func letrec_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 2, -1)
	names, inits := in.splitBindings(in.Car(args), x)
	// ((lambda (v...) (set! v <unassigned>)... (set! v e)... body...)
	//  <unassigned>...)
	var sets, placeholders []Value
	for n := names; n != Nil; n = in.Cdr(n) {
		sets = append(sets, in.List(in.kw.set, in.Car(n), Unspecified))
		placeholders = append(placeholders, Unspecified)
	}
	for n, e := names, inits; n != Nil; n, e = in.Cdr(n), in.Cdr(e) {
		sets = append(sets, in.List(in.kw.set, in.Car(n), in.Car(e)))
	}
	body := in.Cdr(args)
	for i := len(sets) - 1; i >= 0; i-- {
		body = in.Cons(sets[i], body)
	}
	proc := in.Cons(in.kw.lambda, in.Cons(names, body))
	return in.Cons(proc, in.List(placeholders...)), env
}

// (cond (test e...)... [(else e...)])
func cond_(in *Interp, x, env Value) (Value, Value) {
	return in.expandCond(in.formArgs(x, 0, -1), x), env
}

// expandCond rewrites cond clauses into nested ifs. The whole clause
// list is examined before anything is evaluated.
func (in *Interp) expandCond(clauses, x Value) Value {
	if clauses == Nil {
		return False
	}
	clause := in.Car(clauses)
	if !clause.IsPair() || !in.IsList(clause) {
		in.fail(SyntaxError, "Ill-formed special form", x)
	}
	test, body := in.Car(clause), in.Cdr(clause)
	if test == in.kw.else_ {
		if in.Cdr(clauses) != Nil {
			in.fail(SyntaxError, "Misplaced else clause -- COND", x)
		}
		return in.Cons(in.kw.begin, body)
	}
	rest := in.expandCond(in.Cdr(clauses), x)
	switch {
	case body == Nil: // (test)
		return in.List(in.kw.or, test, rest)
	case in.Car(body) == in.kw.arrow: // (test => receiver)
		if in.Length(body) != 2 {
			in.fail(SyntaxError, "Ill-formed special form", x)
		}
		t := in.uninterned("t")
		test1 := in.List(in.kw.if_, t, in.List(in.Cadr(body), t), rest)
		proc := in.List(in.kw.lambda, in.List(t), test1)
		return in.List(proc, test)
	}
	return in.List(in.kw.if_, test, in.Cons(in.kw.begin, body), rest)
}

// (case key ((d...) e...)... [(else e...)])
func case_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 1, -1)
	key := in.uninterned("key")
	var clauses []Value
	for c := in.Cdr(args); c != Nil; c = in.Cdr(c) {
		clause := in.Car(c)
		if !clause.IsPair() {
			in.fail(SyntaxError, "Ill-formed special form", x)
		}
		data, body := in.Car(clause), in.Cdr(clause)
		if data != in.kw.else_ {
			if !in.IsList(data) {
				in.fail(SyntaxError, "Ill-formed special form", x)
			}
			data = in.List(in.memvProc, key, in.List(in.kw.quote, data))
		}
		clauses = append(clauses, in.Cons(data, body))
	}
	// ((lambda (key) (cond ((memv key '(d...)) e...)...)) key-expr)
	cond := in.Cons(in.kw.cond, in.List(clauses...))
	proc := in.List(in.kw.lambda, in.List(key), cond)
	return in.List(proc, in.Car(args)), env
}

// (do ((v init [step])...) (test e...) command...)
func do_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 2, -1)
	specs := in.Car(args)
	if !in.IsList(specs) {
		in.fail(SyntaxError, "Ill-formed special form", x)
	}
	var vars, inits, steps []Value
	for ; specs != Nil; specs = in.Cdr(specs) {
		spec := in.Car(specs)
		n := in.Length(spec)
		if n < 2 || n > 3 || !in.IsSymbol(in.Car(spec)) {
			in.fail(SyntaxError, "Ill-formed special form", x)
		}
		v := in.Car(spec)
		step := v
		if n == 3 {
			step = in.Caddr(spec)
		}
		vars = append(vars, v)
		inits = append(inits, in.Cadr(spec))
		steps = append(steps, step)
	}
	exit := in.Cadr(args)
	if !exit.IsPair() || !in.IsList(exit) {
		in.fail(SyntaxError, "Ill-formed special form", x)
	}
	commands := in.Cddr(args)
	// ((letrec ((loop (lambda (v...)
	//                   (if test (begin e...) (begin command... (loop step...))))))
	//    loop) init...)
	loop := in.uninterned("do-loop")
	again := in.Cons(loop, in.List(steps...))
	iterate := in.Cons(in.kw.begin, in.Reverse(in.Cons(again, in.Reverse(commands))))
	done := in.Cons(in.kw.begin, in.Cdr(exit))
	body := in.List(in.kw.if_, in.Car(exit), done, iterate)
	proc := in.List(in.kw.lambda, in.List(vars...), body)
	letrec := in.List(in.kw.letrec, in.List(in.List(loop, proc)), loop)
	return in.Cons(letrec, in.List(inits...)), env
}

// (delay e)
func delay_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 1, 1)
	thunk := in.MakeProcedure(Nil, args, env)
	return in.Apply(in.makePromise, in.List(thunk)), doneEnv
}

// (apply f e... list)
func apply_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 2, -1)
	fn := in.Eval(in.Car(args), env)
	var spread []Value
	for a := in.Cdr(args); ; a = in.Cdr(a) {
		v := in.Eval(in.Car(a), env)
		if in.Cdr(a) == Nil {
			if !in.IsList(v) {
				in.fail(ApplyError, "The object, passed as the last argument to apply, is not a list", v)
			}
			list := v
			for i := len(spread) - 1; i >= 0; i-- {
				list = in.Cons(spread[i], list)
			}
			return in.apply(fn, list)
		}
		spread = append(spread, v)
	}
}

// (eval e [environment])
func eval_(in *Interp, x, env Value) (Value, Value) {
	args := in.formArgs(x, 1, 2)
	datum := in.Eval(in.Car(args), env)
	target := in.global
	if rest := in.Cdr(args); rest != Nil {
		target = in.Eval(in.Car(rest), env)
		if target != Nil && !target.IsPair() {
			in.fail(TypeError, "Object is not an environment -- EVAL", target)
		}
	}
	return datum, target
}

// (macro body...)
func macro_(in *Interp, x, env Value) (Value, Value) {
	return in.MakeMacro(in.formArgs(x, 1, -1), env), doneEnv
}

// (the-environment)
func theEnvironment_(in *Interp, x, env Value) (Value, Value) {
	in.formArgs(x, 0, 0)
	return env, doneEnv
}
