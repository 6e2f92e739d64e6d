package dwarfinfo

import (
	"debug/dwarf"

	"github.com/phobologic/serialcheck/internal/model"
)

// converter turns dwarf.Type graphs into model.Typed trees. debug/dwarf
// returns the same pointer for every use of a type, so pointer identity
// detects cycles and keys the memo.
type converter struct {
	active map[dwarf.Type]bool
	done   map[dwarf.Type]*model.Typed
}

func newConverter() *converter {
	return &converter{
		active: make(map[dwarf.Type]bool),
		done:   make(map[dwarf.Type]*model.Typed),
	}
}

// convert peels pointer and qualifier layers into modifiers, outermost
// first, and resolves what remains.
func (c *converter) convert(t dwarf.Type) *model.Typed {
	var mods []model.Modifier
	for {
		switch v := t.(type) {
		case *dwarf.PtrType:
			mods = append(mods, model.Pointer)
			t = v.Type
			continue
		case *dwarf.QualType:
			mods = append(mods, qualifier(v.Qual))
			t = v.Type
			continue
		}
		break
	}

	bare := c.bare(t)
	if len(mods) == 0 {
		return bare
	}
	typed := *bare
	typed.Modifiers = append(mods, bare.Modifiers...)
	return &typed
}

func (c *converter) bare(t dwarf.Type) *model.Typed {
	if t == nil {
		return &model.Typed{Name: "void", Value: model.Base{}}
	}
	if typed, ok := c.done[t]; ok {
		return typed
	}
	if c.active[t] {
		return &model.Typed{Name: spelling(t), Value: model.Circular{}}
	}
	c.active[t] = true
	defer delete(c.active, t)

	typed := &model.Typed{}
	switch v := t.(type) {
	case *dwarf.VoidType:
		typed.Name, typed.Value = "void", model.Base{}
	case *dwarf.EnumType:
		typed.Name, typed.Value = v.EnumName, model.Enum{}
	case *dwarf.TypedefType:
		typed.Name, typed.Value = v.Name, model.Typedef{Nested: c.convert(v.Type)}
	case *dwarf.ArrayType:
		nested := c.convert(v.Type)
		typed.Name, typed.Value = nested.Name, model.Array{Nested: nested, Length: v.Count}
	case *dwarf.StructType:
		members := make([]model.Member, 0, len(v.Field))
		for _, f := range v.Field {
			members = append(members, model.Member{Name: f.Name, Typed: c.convert(f.Type)})
		}
		typed.Name = v.StructName
		if v.Kind == "union" {
			typed.Value = model.Union{Members: members}
		} else {
			typed.Value = model.Struct{Members: members}
		}
	case *dwarf.FuncType:
		fn := model.Func{Return: c.convert(v.ReturnType)}
		for _, p := range v.ParamType {
			if _, ok := p.(*dwarf.DotDotDotType); ok {
				fn.Variadic = true
				continue
			}
			fn.Params = append(fn.Params, c.convert(p))
		}
		typed.Value = fn
	case *dwarf.UnsupportedType:
		// References and other layers debug/dwarf cannot describe have no
		// flat encoding either.
		typed.Name, typed.Value = v.String(), model.Circular{}
	default:
		typed.Name, typed.Value = t.Common().Name, model.Base{}
	}

	c.done[t] = typed
	return typed
}

func qualifier(q string) model.Modifier {
	switch q {
	case "const":
		return model.Const
	case "volatile":
		return model.Volatile
	case "restrict":
		return model.Restrict
	}
	return model.Atomic
}

// spelling names t for a Circular node, keeping the record keyword.
func spelling(t dwarf.Type) string {
	switch v := t.(type) {
	case *dwarf.StructType:
		if v.StructName == "" {
			return v.Kind
		}
		return v.Kind + " " + v.StructName
	case *dwarf.TypedefType:
		return v.Name
	case *dwarf.EnumType:
		return "enum " + v.EnumName
	}
	return t.String()
}
