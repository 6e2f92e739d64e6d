// Package analyze runs the per-file pipeline: debug info, symbol dump,
// correlation and classification.
package analyze

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/phobologic/serialcheck/internal/correlate"
	"github.com/phobologic/serialcheck/internal/dwarfinfo"
	"github.com/phobologic/serialcheck/internal/model"
	"github.com/phobologic/serialcheck/internal/nm"
	"github.com/phobologic/serialcheck/internal/serial"
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageOpen      Stage = "open"
	StageDebugInfo Stage = "debuginfo"
	StageDump      Stage = "dump"
	StageParse     Stage = "parse"
)

// StageError is a fatal failure while analyzing one file.
type StageError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// DebugInfo yields the debug-info functions of an object file.
type DebugInfo interface {
	Functions(path string) (map[string]*model.Function, error)
}

// SymbolDumper yields the raw symbol table dump of an object file.
type SymbolDumper interface {
	Dump(ctx context.Context, path string) ([]byte, error)
}

// Options configures an Analyzer.
type Options struct {
	Policy    serial.Policy
	Correlate correlate.Options
}

// Analyzer produces a FileReport per input file.
type Analyzer struct {
	logger     zerolog.Logger
	debugInfo  DebugInfo
	dumper     SymbolDumper
	correlator *correlate.Correlator
	policy     serial.Policy
}

// New creates an Analyzer over the given collaborators.
func New(logger zerolog.Logger, debugInfo DebugInfo, dumper SymbolDumper, opts Options) *Analyzer {
	return &Analyzer{
		logger:     logger,
		debugInfo:  debugInfo,
		dumper:     dumper,
		correlator: correlate.New(logger, opts.Correlate),
		policy:     opts.Policy,
	}
}

// AnalyzeFile reports every visible exported function of path with its
// serializability. Any failure aborts the file; no partial report is
// returned.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*model.FileReport, error) {
	funcs, err := a.debugInfo.Functions(path)
	if err != nil {
		return nil, &StageError{Path: path, Stage: stageOf(err), Err: err}
	}

	raw, err := a.dumper.Dump(ctx, path)
	if err != nil {
		return nil, &StageError{Path: path, Stage: StageDump, Err: err}
	}
	syms, err := nm.Parse(raw)
	if err != nil {
		return nil, &StageError{Path: path, Stage: StageParse, Err: err}
	}

	exported := a.correlator.Correlate(funcs, syms)
	fr := &model.FileReport{Path: path, Verdicts: make([]model.Verdict, 0, len(exported))}
	for _, es := range exported {
		fr.Verdicts = append(fr.Verdicts, model.Verdict{
			ExportedSymbol: es,
			Serializable:   serial.Check(es.Function, a.policy),
		})
	}

	a.logger.Debug().
		Str("file", path).
		Int("debug_functions", len(funcs)).
		Int("text_symbols", len(syms.Text)).
		Int("weak_symbols", len(syms.Weak)).
		Int("exported", len(fr.Verdicts)).
		Msg("analyzed file")

	return fr, nil
}

// openError marks a debug-info failure that happened before DWARF was read.
type openError struct{ err error }

func (e *openError) Error() string { return e.err.Error() }
func (e *openError) Unwrap() error { return e.err }

func stageOf(err error) Stage {
	if _, ok := err.(*openError); ok {
		return StageOpen
	}
	return StageDebugInfo
}

// ELFDebugInfo reads DWARF from memory-mapped ELF files.
type ELFDebugInfo struct{}

// Functions opens path and extracts its debug-info functions.
func (ELFDebugInfo) Functions(path string) (map[string]*model.Function, error) {
	f, err := dwarfinfo.Open(path)
	if err != nil {
		return nil, &openError{err: err}
	}
	defer f.Close()
	return f.Functions()
}
