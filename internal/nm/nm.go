// Package nm reads linkage symbol tables through the nm utility.
package nm

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/phobologic/serialcheck/internal/model"
)

// ParseError reports a dump line that does not have the columns its kind
// requires.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Parse splits nm output into strong/local text symbols (T, t) and weak
// symbols (W). Other kinds are ignored. Lines that start with whitespace
// have no address (undefined symbols). Empty lines are skipped.
func Parse(raw []byte) (*model.LinkageSymbols, error) {
	syms := &model.LinkageSymbols{
		Text: make(model.SymbolTable),
		Weak: make(model.SymbolTable),
	}

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		cols := strings.Fields(line)
		if line[0] == ' ' || line[0] == '\t' {
			cols = append([]string{""}, cols...)
		}
		if len(cols) < 2 {
			return nil, &ParseError{Line: lineNo, Text: line, Reason: "missing symbol kind"}
		}

		addr, kind := cols[0], cols[1]
		var table model.SymbolTable
		switch kind {
		case "T", "t":
			table = syms.Text
		case "W":
			table = syms.Weak
		default:
			continue
		}
		if len(cols) < 3 {
			return nil, &ParseError{Line: lineNo, Text: line, Reason: "missing symbol name"}
		}
		table[cols[2]] = addr
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading symbol dump: %w", err)
	}

	return syms, nil
}
