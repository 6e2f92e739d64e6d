package dwarfinfo

import (
	"strconv"
	"strings"

	"github.com/phobologic/serialcheck/internal/lang"
	"github.com/phobologic/serialcheck/internal/model"
)

// Signature renders fn as a C declaration without the trailing semicolon,
// e.g. "char *dup_str(const char *s)".
func Signature(fn *model.Function) string {
	params := make([]string, 0, len(fn.Parameters)+1)
	for i := range fn.Parameters {
		params = append(params, Declare(fn.Parameters[i].Typed, fn.Parameters[i].Name))
	}
	return lang.CollapseWhitespace(Declare(fn.Typed, fn.Name+"("+paramList(params, fn.Variadic)+")"))
}

// TypeString renders t as an abstract declarator, e.g. "int (*)(void)".
func TypeString(t *model.Typed) string {
	return Declare(t, "")
}

// Declare renders a C declaration of name with type t. An empty name gives
// the abstract form.
func Declare(t *model.Typed, name string) string {
	if t == nil {
		return join("void", name)
	}

	switch v := t.Value.(type) {
	case model.Func:
		params := make([]string, 0, len(v.Params))
		for _, p := range v.Params {
			params = append(params, TypeString(p))
		}
		return Declare(v.Return, "("+declarator(t.Modifiers, name)+")("+paramList(params, v.Variadic)+")")
	case model.Array:
		dim := "[]"
		if v.Length >= 0 {
			dim = "[" + strconv.FormatInt(v.Length, 10) + "]"
		}
		if len(t.Modifiers) == 0 {
			return Declare(v.Nested, name+dim)
		}
		return Declare(v.Nested, "("+declarator(t.Modifiers, name)+")"+dim)
	}

	// Qualifiers inside the innermost pointer belong to the base type.
	inner := len(t.Modifiers)
	for i := len(t.Modifiers) - 1; i >= 0; i-- {
		if t.Modifiers[i] == model.Pointer {
			break
		}
		inner = i
	}
	base := baseName(t)
	for i := len(t.Modifiers) - 1; i >= inner; i-- {
		base = t.Modifiers[i].String() + " " + base
	}
	return join(base, declarator(t.Modifiers[:inner], name))
}

// declarator applies pointer layers (outermost first) and the qualifiers
// between them to name.
func declarator(mods []model.Modifier, name string) string {
	decl := name
	for _, m := range mods {
		if m == model.Pointer {
			decl = "*" + decl
			continue
		}
		if decl == "" {
			decl = m.String()
		} else {
			decl = m.String() + " " + decl
		}
	}
	return decl
}

func baseName(t *model.Typed) string {
	switch t.Value.(type) {
	case model.Struct:
		return keyword("struct", t.Name)
	case model.Union:
		return keyword("union", t.Name)
	case model.Enum:
		return keyword("enum", t.Name)
	}
	if t.Name == "" {
		return "void"
	}
	return t.Name
}

func keyword(kw, name string) string {
	if name == "" {
		return kw
	}
	return kw + " " + name
}

func paramList(params []string, variadic bool) string {
	if variadic {
		params = append(params, "...")
	}
	if len(params) == 0 {
		return "void"
	}
	return strings.Join(params, ", ")
}

func join(base, decl string) string {
	if decl == "" {
		return base
	}
	return base + " " + decl
}
