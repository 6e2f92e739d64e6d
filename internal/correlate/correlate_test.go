package correlate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/phobologic/serialcheck/internal/model"
	"github.com/phobologic/serialcheck/internal/parse"
)

func fn(name, sig string) *model.Function {
	return &model.Function{
		Name:      name,
		Typed:     &model.Typed{Name: "int", Value: model.Base{}},
		Signature: sig,
	}
}

func names(syms []model.ExportedSymbol) []string {
	out := make([]string, len(syms))
	for i := range syms {
		out[i] = syms[i].Name
	}
	return out
}

func correlate(t *testing.T, opts Options, funcs map[string]*model.Function, text, weak model.SymbolTable) []model.ExportedSymbol {
	t.Helper()
	if text == nil {
		text = model.SymbolTable{}
	}
	if weak == nil {
		weak = model.SymbolTable{}
	}
	return New(zerolog.Nop(), opts).Correlate(funcs, &model.LinkageSymbols{Text: text, Weak: weak})
}

func TestDefaultVersionSelection(t *testing.T) {
	t.Parallel()

	foo := fn("foo", "int foo(void)")
	got := correlate(t, Options{},
		map[string]*model.Function{"foo": foo},
		model.SymbolTable{"foo@@VERS_1": "0x1000", "foo@VERS_0": "0x0f00"},
		nil,
	)

	if diff := cmp.Diff([]string{"foo"}, names(got)); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if got[0].Function != foo {
		t.Error("foo not mapped to its own function")
	}
	if got[0].Signature != "int foo(void)" {
		t.Errorf("signature = %q", got[0].Signature)
	}
	if got[0].Linkage != "foo@@VERS_1" {
		t.Errorf("linkage = %q", got[0].Linkage)
	}
}

func TestNonDefaultVersionNeverReported(t *testing.T) {
	t.Parallel()

	foo := fn("foo", "int foo(void)")
	got := correlate(t, Options{ShowReserved: true},
		map[string]*model.Function{"foo": foo},
		model.SymbolTable{"foo": "0x1000", "foo@VERS_0": "0x1000"},
		model.SymbolTable{"foo@VERS_2": "0x1000"},
	)
	if diff := cmp.Diff([]string{"foo"}, names(got)); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestAliasResolution(t *testing.T) {
	t.Parallel()

	real := fn("real_name", "int real_name(int x)")
	got := correlate(t, Options{},
		map[string]*model.Function{"real_name": real},
		model.SymbolTable{"real_name": "0x1000"},
		model.SymbolTable{"alias_name": "0x1000"},
	)

	want := []model.ExportedSymbol{
		{Name: "alias_name", Linkage: "alias_name", DebugName: "real_name", Signature: "int alias_name(int x)", Function: real},
		{Name: "real_name", Linkage: "real_name", DebugName: "real_name", Signature: "int real_name(int x)", Function: real},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("symbols (-want +got):\n%s", diff)
	}
}

func TestWeakSymbolsDoNotSeedIndex(t *testing.T) {
	t.Parallel()

	got := correlate(t, Options{},
		map[string]*model.Function{"weakfn": fn("weakfn", "void weakfn(void)")},
		nil,
		model.SymbolTable{"weakfn": "0x2000"},
	)
	if len(got) != 0 {
		t.Errorf("expected no symbols, got %v", names(got))
	}
}

func TestReservedFiltering(t *testing.T) {
	t.Parallel()

	funcs := map[string]*model.Function{"_hidden": fn("_hidden", "void _hidden(void)")}
	text := model.SymbolTable{"_hidden": "0x3000"}

	if got := correlate(t, Options{}, funcs, text, nil); len(got) != 0 {
		t.Errorf("reserved symbol reported without ShowReserved: %v", names(got))
	}
	got := correlate(t, Options{ShowReserved: true}, funcs, text, nil)
	if diff := cmp.Diff([]string{"_hidden"}, names(got)); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestReservedCheckedAfterVersionStrip(t *testing.T) {
	t.Parallel()

	got := correlate(t, Options{},
		map[string]*model.Function{"_impl": fn("_impl", "void _impl(void)")},
		model.SymbolTable{"_impl": "0x1000"},
		model.SymbolTable{"public@@V1": "0x1000"},
	)
	if diff := cmp.Diff([]string{"public"}, names(got)); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
	if got[0].Signature != "void public(void)" {
		t.Errorf("signature = %q", got[0].Signature)
	}
}

func TestUnmatchedSymbolDropped(t *testing.T) {
	t.Parallel()

	got := correlate(t, Options{},
		map[string]*model.Function{"known": fn("known", "int known(void)")},
		model.SymbolTable{"known": "0x1000", "stray": "0x9000"},
		nil,
	)
	if diff := cmp.Diff([]string{"known"}, names(got)); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestCollisionLastWriteWins(t *testing.T) {
	t.Parallel()

	strong := fn("impl_v2", "int impl_v2(void)")
	weakTarget := fn("impl_weak", "int impl_weak(void)")
	got := correlate(t, Options{},
		map[string]*model.Function{"impl_v2": strong, "impl_weak": weakTarget},
		model.SymbolTable{"impl_v2": "0x1000", "impl_weak": "0x2000", "api@@V2": "0x1000"},
		model.SymbolTable{"api": "0x2000"},
	)

	var api *model.ExportedSymbol
	for i := range got {
		if got[i].Name == "api" {
			api = &got[i]
		}
	}
	if api == nil {
		t.Fatalf("api missing: %v", names(got))
	}
	if api.Function != weakTarget {
		t.Errorf("api mapped to %s, want impl_weak (weak visited last)", api.DebugName)
	}
	if api.Linkage != "api" {
		t.Errorf("linkage = %q", api.Linkage)
	}
}

func TestSortedOutput(t *testing.T) {
	t.Parallel()

	funcs := map[string]*model.Function{}
	text := model.SymbolTable{}
	for i, n := range []string{"zeta", "alpha", "mid", "beta"} {
		funcs[n] = fn(n, "void "+n+"(void)")
		text[n] = string(rune('a' + i))
	}
	got := correlate(t, Options{}, funcs, text, nil)
	if diff := cmp.Diff([]string{"alpha", "beta", "mid", "zeta"}, names(got)); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
}

func TestRenameUsesDeclarator(t *testing.T) {
	t.Parallel()

	r, err := parse.NewRenamer()
	if err != nil {
		t.Fatalf("NewRenamer: %v", err)
	}
	defer r.Close()

	got := correlate(t, Options{Rename: r.Rename},
		map[string]*model.Function{"emit": fn("emit", "emit_t emit(emit_t e)")},
		model.SymbolTable{"emit": "0x1000"},
		model.SymbolTable{"send": "0x1000"},
	)
	if len(got) != 2 || got[1].Name != "send" {
		t.Fatalf("unexpected symbols: %v", names(got))
	}
	if got[1].Signature != "emit_t send(emit_t e)" {
		t.Errorf("signature = %q", got[1].Signature)
	}
}

func TestDefaultRenameIsFirstOccurrence(t *testing.T) {
	t.Parallel()

	got := correlate(t, Options{},
		map[string]*model.Function{"emit": fn("emit", "emit_t emit(emit_t e)")},
		model.SymbolTable{"emit": "0x1000"},
		model.SymbolTable{"send": "0x1000"},
	)
	if got[1].Signature != "send_t emit(emit_t e)" {
		t.Errorf("signature = %q", got[1].Signature)
	}
}

func TestDemangle(t *testing.T) {
	t.Parallel()

	add := fn("add", "int add(int a, int b)")
	funcs := map[string]*model.Function{"_Z3addii": add}
	text := model.SymbolTable{"_Z3addii": "0x1000"}

	if got := correlate(t, Options{}, funcs, text, nil); len(got) != 0 {
		t.Errorf("mangled name reported without demangling: %v", names(got))
	}

	got := correlate(t, Options{Demangle: true}, funcs, text, nil)
	if diff := cmp.Diff([]string{"add(int, int)"}, names(got)); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if got[0].Signature != "int add(int a, int b)" {
		t.Errorf("signature = %q", got[0].Signature)
	}
}

func TestDemangleAliasSignature(t *testing.T) {
	t.Parallel()

	base := fn("base", "int base(int x)")
	got := correlate(t, Options{Demangle: true},
		map[string]*model.Function{"_Z4basei": base},
		model.SymbolTable{"_Z4basei": "0x1000"},
		model.SymbolTable{"_Z5aliasi": "0x1000"},
	)

	if diff := cmp.Diff([]string{"alias(int)", "base(int)"}, names(got)); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	if got[0].Signature != "int alias(int x)" {
		t.Errorf("alias signature = %q, want %q", got[0].Signature, "int alias(int x)")
	}
	if got[1].Signature != "int base(int x)" {
		t.Errorf("base signature = %q", got[1].Signature)
	}
}
