// Package correlate joins debug-info functions to linkage symbols by address.
package correlate

import (
	"sort"
	"strings"

	"github.com/ianlancetaylor/demangle"
	"github.com/rs/zerolog"

	"github.com/phobologic/serialcheck/internal/model"
	"github.com/phobologic/serialcheck/internal/parse"
)

// RenameFunc rewrites the declared name in a rendered signature.
type RenameFunc func(sig, from, to string) string

// Options controls visibility and display of correlated symbols.
type Options struct {
	// ShowReserved keeps names beginning with "_".
	ShowReserved bool
	// Demangle displays C++ linker names in demangled form.
	Demangle bool
	// Rename substitutes the exported name into signatures. Defaults to
	// parse.ReplaceFirst.
	Rename RenameFunc
}

// Correlator maps exported symbols onto the debug-info functions that
// implement them.
type Correlator struct {
	logger zerolog.Logger
	opts   Options
}

// New creates a Correlator.
func New(logger zerolog.Logger, opts Options) *Correlator {
	if opts.Rename == nil {
		opts.Rename = parse.ReplaceFirst
	}
	return &Correlator{logger: logger, opts: opts}
}

type indexed struct {
	name string
	fn   *model.Function
}

type candidate struct {
	name string
	addr string
	weak bool
}

// Correlate returns one ExportedSymbol per visible exported name, sorted by
// name. Symbols without debug info at their address are left out.
func (c *Correlator) Correlate(funcs map[string]*model.Function, syms *model.LinkageSymbols) []model.ExportedSymbol {
	index := c.addressIndex(funcs, syms.Text)

	var candidates []candidate
	for _, name := range sortedNames(syms.Text) {
		candidates = append(candidates, candidate{name: name, addr: syms.Text[name]})
	}
	for _, name := range sortedNames(syms.Weak) {
		candidates = append(candidates, candidate{name: name, addr: syms.Weak[name], weak: true})
	}

	byName := make(map[string]model.ExportedSymbol)
	for _, cand := range candidates {
		if strings.Contains(cand.name, "@") && !strings.Contains(cand.name, "@@") {
			c.logger.Debug().Str("symbol", cand.name).Msg("skipping non-default symbol version")
			continue
		}

		entry, ok := index[cand.addr]
		if !ok {
			c.logger.Debug().Str("symbol", cand.name).Str("addr", cand.addr).Msg("no debug info at symbol address")
			continue
		}

		linkName := stripDefaultVersion(cand.name)
		if !c.opts.ShowReserved && strings.HasPrefix(linkName, "_") && !c.demangles(linkName) {
			c.logger.Debug().Str("symbol", linkName).Msg("skipping reserved symbol")
			continue
		}

		display, declName := linkName, linkName
		if c.opts.Demangle {
			display = demangle.Filter(linkName)
			declName = demangle.Filter(linkName, demangle.NoParams)
		}

		sig := entry.fn.Signature
		if linkName != entry.name {
			from := entry.fn.Name
			if from == "" {
				from = entry.name
			}
			sig = c.opts.Rename(sig, from, declName)
		}

		if prev, dup := byName[display]; dup {
			c.logger.Debug().
				Str("symbol", display).
				Str("previous", prev.Linkage).
				Str("replacement", cand.name).
				Bool("weak", cand.weak).
				Msg("exported name collision")
		}
		byName[display] = model.ExportedSymbol{
			Name:      display,
			Linkage:   cand.name,
			DebugName: entry.name,
			Signature: sig,
			Function:  entry.fn,
		}
	}

	out := make([]model.ExportedSymbol, 0, len(byName))
	for _, es := range byName {
		out = append(out, es)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// addressIndex maps each strong/local text symbol address to the debug-info
// function of the same name. Weak symbols never seed the index. Names with
// a default version suffix seed first so an exact name at the same address
// wins.
func (c *Correlator) addressIndex(funcs map[string]*model.Function, text model.SymbolTable) map[string]indexed {
	index := make(map[string]indexed)
	names := sortedNames(text)
	for _, name := range names {
		base := stripDefaultVersion(name)
		if base == name {
			continue
		}
		if fn, ok := funcs[base]; ok {
			index[text[name]] = indexed{name: base, fn: fn}
		}
	}
	for _, name := range names {
		if fn, ok := funcs[name]; ok {
			index[text[name]] = indexed{name: name, fn: fn}
		}
	}
	return index
}

// demangles reports whether a reserved-looking name is a mangled C++ name
// that --demangle will turn into an ordinary one.
func (c *Correlator) demangles(name string) bool {
	return c.opts.Demangle && demangle.Filter(name) != name
}

func stripDefaultVersion(name string) string {
	if i := strings.Index(name, "@@"); i >= 0 {
		return name[:i]
	}
	return name
}

func sortedNames(t model.SymbolTable) []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
