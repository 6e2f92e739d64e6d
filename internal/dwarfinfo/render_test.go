package dwarfinfo

import (
	"testing"

	"github.com/phobologic/serialcheck/internal/model"
)

func base(name string, mods ...model.Modifier) *model.Typed {
	return &model.Typed{Modifiers: mods, Name: name, Value: model.Base{}}
}

func TestDeclare(t *testing.T) {
	t.Parallel()

	intT := base("int")
	tests := []struct {
		name string
		typ  *model.Typed
		decl string
		want string
	}{
		{"int", intT, "x", "int x"},
		{"abstract int", intT, "", "int"},
		{"char pointer", base("char", model.Pointer), "s", "char *s"},
		{"const char pointer", base("char", model.Pointer, model.Const), "s", "const char *s"},
		{"const pointer to char", base("char", model.Const, model.Pointer), "s", "char *const s"},
		{"double pointer", base("char", model.Pointer, model.Pointer), "argv", "char **argv"},
		{"abstract pointer", base("void", model.Pointer), "", "void *"},
		{"struct", &model.Typed{Name: "point", Value: model.Struct{}}, "p", "struct point p"},
		{"anonymous union", &model.Typed{Value: model.Union{}}, "u", "union u"},
		{"enum", &model.Typed{Name: "color", Value: model.Enum{}}, "c", "enum color c"},
		{"typedef", &model.Typed{Name: "size_t", Value: model.Typedef{Nested: base("unsigned long")}}, "n", "size_t n"},
		{"array", &model.Typed{Name: "int", Value: model.Array{Nested: intT, Length: 4}}, "a", "int a[4]"},
		{"unsized array", &model.Typed{Name: "int", Value: model.Array{Nested: intT, Length: -1}}, "a", "int a[]"},
		{"pointer to array", &model.Typed{Modifiers: []model.Modifier{model.Pointer}, Name: "int", Value: model.Array{Nested: intT, Length: 3}}, "p", "int (*p)[3]"},
		{
			"function pointer",
			&model.Typed{Modifiers: []model.Modifier{model.Pointer}, Value: model.Func{Return: intT, Params: []*model.Typed{intT, base("char", model.Pointer)}}},
			"cb", "int (*cb)(int, char *)",
		},
		{
			"abstract variadic function pointer",
			&model.Typed{Modifiers: []model.Modifier{model.Pointer}, Value: model.Func{Return: base("void"), Variadic: true}},
			"", "void (*)(...)",
		},
		{"circular", &model.Typed{Modifiers: []model.Modifier{model.Pointer}, Name: "struct node", Value: model.Circular{}}, "next", "struct node *next"},
		{"nil", nil, "x", "void x"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Declare(tt.typ, tt.decl); got != tt.want {
				t.Errorf("Declare = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   *model.Function
		want string
	}{
		{
			"no params",
			&model.Function{Name: "tick", Typed: base("void")},
			"void tick(void)",
		},
		{
			"params",
			&model.Function{Name: "emit", Typed: base("int"), Parameters: []model.Parameter{
				{Name: "msg", Typed: base("char", model.Pointer, model.Const)},
				{Name: "n", Typed: base("int")},
			}},
			"int emit(const char *msg, int n)",
		},
		{
			"variadic",
			&model.Function{Name: "logf", Typed: base("int"), Variadic: true, Parameters: []model.Parameter{
				{Name: "fmt", Typed: base("char", model.Pointer, model.Const)},
			}},
			"int logf(const char *fmt, ...)",
		},
		{
			"pointer return",
			&model.Function{Name: "dup", Typed: base("char", model.Pointer), Parameters: []model.Parameter{
				{Name: "s", Typed: base("char", model.Pointer)},
			}},
			"char *dup(char *s)",
		},
		{
			"function pointer return",
			&model.Function{Name: "handler", Typed: &model.Typed{
				Modifiers: []model.Modifier{model.Pointer},
				Value:     model.Func{Return: base("int"), Params: []*model.Typed{base("int")}},
			}},
			"int (*handler(void))(int)",
		},
		{
			"unnamed param",
			&model.Function{Name: "f", Typed: base("int"), Parameters: []model.Parameter{{Typed: base("int")}}},
			"int f(int)",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Signature(tt.fn); got != tt.want {
				t.Errorf("Signature = %q, want %q", got, tt.want)
			}
		})
	}
}
