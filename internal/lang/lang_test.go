package lang

import (
	"testing"
)

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	l, ok := Languages["c"]
	if !ok {
		t.Fatal("c language not registered")
	}
	if l.GetLanguage() == nil {
		t.Error("c language is nil")
	}
	if C() != l {
		t.Error("C() does not return the registered language")
	}
}

func TestNewParser(t *testing.T) {
	t.Parallel()

	p := C().NewParser()
	if p == nil {
		t.Fatal("NewParser returned nil")
	}
}

func TestGetDeclaratorQuery(t *testing.T) {
	t.Parallel()

	q, err := C().GetDeclaratorQuery()
	if err != nil {
		t.Fatalf("GetDeclaratorQuery: %v", err)
	}
	if q == nil {
		t.Fatal("query is nil")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"int  emit(char *s)", "int emit(char *s)"},
		{"  const\tchar\n*", "const char *"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CollapseWhitespace(tt.in); got != tt.want {
			t.Errorf("CollapseWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
