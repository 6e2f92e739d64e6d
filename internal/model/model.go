// Package model defines core data structures for serialcheck.
package model

// Modifier is a type layer wrapped around a base type.
type Modifier int

const (
	Pointer Modifier = iota
	Const
	Volatile
	Restrict
	Atomic
)

func (m Modifier) String() string {
	switch m {
	case Pointer:
		return "*"
	case Const:
		return "const"
	case Volatile:
		return "volatile"
	case Restrict:
		return "restrict"
	case Atomic:
		return "_Atomic"
	}
	return "?"
}

// Typed is a structural type node: modifiers applied (outermost first) to a
// named entity whose kind is described by Value.
type Typed struct {
	Modifiers []Modifier
	Name      string
	Value     Value
}

// PointerDepth counts the Pointer modifiers of t.
func (t *Typed) PointerDepth() int {
	n := 0
	for _, m := range t.Modifiers {
		if m == Pointer {
			n++
		}
	}
	return n
}

// Value is the closed set of type kinds a Typed can refer to.
type Value interface {
	value()
}

// Base is a primitive or scalar type.
type Base struct{}

// Enum is an enumeration.
type Enum struct{}

// Typedef is an alias of Nested.
type Typedef struct {
	Nested *Typed
}

// Array is a fixed or unsized run of Nested. Length is -1 when unknown.
type Array struct {
	Nested *Typed
	Length int64
}

// Member is a named field of a struct or union.
type Member struct {
	Name  string
	Typed *Typed
}

// Struct is a record type.
type Struct struct {
	Members []Member
}

// Union is an overlapping record type.
type Union struct {
	Members []Member
}

// Func is a function type, usually seen behind a pointer. Params are kept
// for rendering only.
type Func struct {
	Return   *Typed
	Params   []*Typed
	Variadic bool
}

// Circular marks a type reached again while it was still being resolved.
type Circular struct{}

func (Base) value()     {}
func (Enum) value()     {}
func (Typedef) value()  {}
func (Array) value()    {}
func (Struct) value()   {}
func (Union) value()    {}
func (Func) value()     {}
func (Circular) value() {}

// Parameter is one formal parameter of a Function.
type Parameter struct {
	Name  string
	Typed *Typed
}

// Function is the debug-info view of a function. Signature is rendered with
// Name as the declarator.
type Function struct {
	Name       string
	Typed      *Typed
	Parameters []Parameter
	Variadic   bool
	Signature  string
}

// SymbolTable maps a linkage symbol name to its address. Addresses are
// opaque comparison keys.
type SymbolTable map[string]string

// LinkageSymbols is a parsed symbol table dump.
type LinkageSymbols struct {
	Text SymbolTable // T, t
	Weak SymbolTable // W
}

// ExportedSymbol is an exported symbol joined to its debug-info function.
type ExportedSymbol struct {
	Name      string // display name, version suffix stripped
	Linkage   string // name as found in the symbol table
	DebugName string
	Signature string // with DebugName replaced by Name where they differ
	Function  *Function
}

// Verdict is an ExportedSymbol with its serializability.
type Verdict struct {
	ExportedSymbol
	Serializable bool
}

// FileReport holds the verdicts for a single input file, sorted by name.
type FileReport struct {
	Path     string
	Verdicts []Verdict
}

// Counts accumulates summary totals across files.
type Counts struct {
	Serializable    int
	NotSerializable int
}

// Add tallies every verdict in fr.
func (c *Counts) Add(fr *FileReport) {
	for i := range fr.Verdicts {
		if fr.Verdicts[i].Serializable {
			c.Serializable++
		} else {
			c.NotSerializable++
		}
	}
}

// Total returns the number of counted symbols.
func (c Counts) Total() int {
	return c.Serializable + c.NotSerializable
}
