// Package parse locates declarator names in rendered C signatures using
// tree-sitter.
package parse

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/serialcheck/internal/lang"
)

// Renamer rewrites the declared name of a rendered signature. It holds a
// tree-sitter parser and must not be shared between goroutines.
type Renamer struct {
	parser *sitter.Parser
	query  *sitter.Query
}

// NewRenamer creates a Renamer for C signatures.
func NewRenamer() (*Renamer, error) {
	l := lang.C()
	q, err := l.GetDeclaratorQuery()
	if err != nil {
		return nil, err
	}
	return &Renamer{parser: l.NewParser(), query: q}, nil
}

// Close releases the parser.
func (r *Renamer) Close() {
	r.parser.Close()
}

// DeclaratorSpan returns the byte range of the first function declarator in
// sig whose identifier is name.
func (r *Renamer) DeclaratorSpan(sig, name string) (start, end int, ok bool) {
	if sig == "" || name == "" {
		return 0, 0, false
	}
	source := []byte(sig + ";")

	tree, err := r.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return 0, 0, false
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(r.query, tree.RootNode())

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range match.Captures {
			if r.query.CaptureNameForId(c.Index) != "name" {
				continue
			}
			if lang.NodeText(c.Node, source) != name {
				continue
			}
			s, e := int(c.Node.StartByte()), int(c.Node.EndByte())
			if e > len(sig) {
				continue
			}
			return s, e, true
		}
	}
	return 0, 0, false
}

// Rename replaces the declarator name from with to. This is a best-effort
// cosmetic rename: when sig has no function declarator named from, the first
// literal occurrence of from is replaced, which can hit a type name that
// happens to contain it.
func (r *Renamer) Rename(sig, from, to string) string {
	if from == to {
		return sig
	}
	if s, e, ok := r.DeclaratorSpan(sig, from); ok {
		return sig[:s] + to + sig[e:]
	}
	return ReplaceFirst(sig, from, to)
}

// ReplaceFirst replaces the first occurrence of from in sig with to.
func ReplaceFirst(sig, from, to string) string {
	if from == "" {
		return sig
	}
	return strings.Replace(sig, from, to, 1)
}
