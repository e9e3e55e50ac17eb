package scheme

// symbolBuckets is prime so that the hash spreads short names well.
const symbolBuckets = 4099

// symbolTable interns symbols by name. Each bucket holds an arena list
// of the symbols whose names hash to it.
type symbolTable struct {
	buckets [symbolBuckets]Value
	count   int
}

func newSymbolTable() *symbolTable {
	t := &symbolTable{}
	for i := range t.buckets {
		t.buckets[i] = Nil
	}
	return t
}

func hashName(name []byte) uint32 {
	h := uint32(5381)
	for _, c := range name {
		h = h*33 + uint32(c)
	}
	return h % symbolBuckets
}

// Intern returns the unique symbol named by name, creating it on first
// use. name is taken as is; case folding is up to the reader.
func (in *Interp) Intern(name []byte) Value {
	t := in.symbols
	h := hashName(name)
	for p := t.buckets[h]; p != Nil; p = in.heap.words[p.index()+1] {
		sym := in.heap.words[p.index()]
		if in.stringEquals(in.heap.words[sym.index()+1], name) {
			return sym
		}
	}
	sym := in.makeSymbol(in.NewString(string(name)), 0)
	t.buckets[h] = in.Cons(sym, t.buckets[h])
	t.count++
	return sym
}

// Sym is shorthand for Intern([]byte(name)).
func (in *Interp) Sym(name string) Value {
	return in.Intern([]byte(name))
}

// uninterned returns a fresh symbol that no name read from text can
// denote. Expansions use it for temporaries.
func (in *Interp) uninterned(name string) Value {
	return in.makeSymbol(in.NewString(name), symUninterned)
}

// SymbolStats describes the occupancy of the symbol table.
type SymbolStats struct {
	Symbols     int
	UsedBuckets int
	Buckets     int
	MaxChain    int
}

// SymbolStats reports how the interned symbols are spread over the table.
func (in *Interp) SymbolStats() SymbolStats {
	s := SymbolStats{Symbols: in.symbols.count, Buckets: symbolBuckets}
	for _, b := range in.symbols.buckets {
		n := 0
		for p := b; p != Nil; p = in.heap.words[p.index()+1] {
			n++
		}
		if n > 0 {
			s.UsedBuckets++
		}
		if n > s.MaxChain {
			s.MaxChain = n
		}
	}
	return s
}
