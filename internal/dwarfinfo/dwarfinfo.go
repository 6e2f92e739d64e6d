// Package dwarfinfo extracts function signatures from the DWARF debug info
// of an ELF shared object.
package dwarfinfo

import (
	"debug/dwarf"
	"debug/elf"
	"errors"
	"fmt"

	"golang.org/x/exp/mmap"

	"github.com/phobologic/serialcheck/internal/model"
)

// ErrNoDebugInfo is returned when the object has no DWARF sections.
var ErrNoDebugInfo = errors.New("no DWARF debug info")

// DW_AT_MIPS_linkage_name, still emitted by older compilers.
const attrMIPSLinkageName dwarf.Attr = 0x2007

// File is a memory-mapped ELF object.
type File struct {
	mm  *mmap.ReaderAt
	elf *elf.File
}

// Open maps path into memory and parses its ELF headers.
func Open(path string) (*File, error) {
	mm, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapping file: %w", err)
	}
	ef, err := elf.NewFile(mm)
	if err != nil {
		_ = mm.Close()
		return nil, fmt.Errorf("parsing ELF: %w", err)
	}
	return &File{mm: mm, elf: ef}, nil
}

// Close unmaps the file.
func (f *File) Close() error {
	_ = f.elf.Close()
	return f.mm.Close()
}

// Functions returns every defined function in the file's debug info, keyed by
// linkage name when one is recorded and by source name otherwise.
func (f *File) Functions() (map[string]*model.Function, error) {
	if f.elf.Section(".debug_info") == nil && f.elf.Section(".zdebug_info") == nil {
		return nil, ErrNoDebugInfo
	}
	d, err := f.elf.DWARF()
	if err != nil {
		return nil, fmt.Errorf("reading DWARF: %w", err)
	}
	return Functions(d)
}

// Functions walks d and converts every named, defined subprogram.
func Functions(d *dwarf.Data) (map[string]*model.Function, error) {
	x := &extractor{
		data:   d,
		lookup: d.Reader(),
		conv:   newConverter(),
	}

	funcs := make(map[string]*model.Function)
	r := d.Reader()
	for {
		e, err := r.Next()
		if err != nil {
			return nil, err
		}
		if e == nil {
			break
		}
		if e.Tag != dwarf.TagSubprogram {
			continue
		}

		key, fn, err := x.subprogram(r, e)
		if err != nil {
			return nil, fmt.Errorf("subprogram at %#x: %w", e.Offset, err)
		}
		if fn != nil {
			funcs[key] = fn
		}
	}
	return funcs, nil
}

type extractor struct {
	data   *dwarf.Data
	lookup *dwarf.Reader
	conv   *converter
}

// attrs are the attributes of an entry merged with those of the entries it
// refers to through DW_AT_specification and DW_AT_abstract_origin.
type attrs struct {
	name        string
	linkage     string
	typ         dwarf.Offset
	hasType     bool
	declaration bool
}

func (x *extractor) resolve(e *dwarf.Entry) (attrs, error) {
	var a attrs
	a.declaration, _ = e.Val(dwarf.AttrDeclaration).(bool)

	for depth := 0; e != nil && depth < 8; depth++ {
		if a.name == "" {
			a.name, _ = e.Val(dwarf.AttrName).(string)
		}
		if a.linkage == "" {
			a.linkage, _ = e.Val(dwarf.AttrLinkageName).(string)
		}
		if a.linkage == "" {
			a.linkage, _ = e.Val(attrMIPSLinkageName).(string)
		}
		if !a.hasType {
			a.typ, a.hasType = e.Val(dwarf.AttrType).(dwarf.Offset)
		}

		ref, ok := e.Val(dwarf.AttrSpecification).(dwarf.Offset)
		if !ok {
			ref, ok = e.Val(dwarf.AttrAbstractOrigin).(dwarf.Offset)
		}
		if !ok {
			break
		}
		x.lookup.Seek(ref)
		next, err := x.lookup.Next()
		if err != nil {
			return a, err
		}
		e = next
	}
	return a, nil
}

// subprogram converts e and consumes its children from r.
func (x *extractor) subprogram(r *dwarf.Reader, e *dwarf.Entry) (string, *model.Function, error) {
	a, err := x.resolve(e)
	if err != nil {
		return "", nil, err
	}
	if a.declaration || a.name == "" {
		if e.Children {
			r.SkipChildren()
		}
		return "", nil, nil
	}

	fn := &model.Function{Name: a.name}
	if fn.Typed, err = x.typeAt(a.typ, a.hasType); err != nil {
		return "", nil, err
	}

	if e.Children {
		for {
			child, err := r.Next()
			if err != nil {
				return "", nil, err
			}
			if child == nil || child.Tag == 0 {
				break
			}
			switch child.Tag {
			case dwarf.TagFormalParameter:
				p, err := x.parameter(child)
				if err != nil {
					return "", nil, err
				}
				fn.Parameters = append(fn.Parameters, p)
			case dwarf.TagUnspecifiedParameters:
				fn.Variadic = true
			}
			if child.Children {
				r.SkipChildren()
			}
		}
	}

	fn.Signature = Signature(fn)

	key := a.name
	if a.linkage != "" {
		key = a.linkage
	}
	return key, fn, nil
}

func (x *extractor) parameter(e *dwarf.Entry) (model.Parameter, error) {
	a, err := x.resolve(e)
	if err != nil {
		return model.Parameter{}, err
	}
	t, err := x.typeAt(a.typ, a.hasType)
	if err != nil {
		return model.Parameter{}, err
	}
	return model.Parameter{Name: a.name, Typed: t}, nil
}

func (x *extractor) typeAt(off dwarf.Offset, ok bool) (*model.Typed, error) {
	if !ok {
		return x.conv.convert(nil), nil
	}
	t, err := x.data.Type(off)
	if err != nil {
		return nil, fmt.Errorf("type at %#x: %w", off, err)
	}
	return x.conv.convert(t), nil
}
