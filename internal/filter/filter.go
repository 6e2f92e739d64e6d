// Package filter narrows file reports before they are printed or counted.
package filter

import (
	"strings"

	"github.com/phobologic/serialcheck/internal/model"
)

// BySymbol returns a new FileReport containing only verdicts whose display
// name contains substr (case-insensitive). An empty substr keeps everything.
func BySymbol(fr *model.FileReport, substr string) *model.FileReport {
	if substr == "" {
		return fr
	}
	lower := strings.ToLower(substr)
	return keep(fr, func(v *model.Verdict) bool {
		return strings.Contains(strings.ToLower(v.Name), lower)
	})
}

// Failing returns a new FileReport containing only non-serializable verdicts.
func Failing(fr *model.FileReport) *model.FileReport {
	return keep(fr, func(v *model.Verdict) bool {
		return !v.Serializable
	})
}

// Options selects which filters Apply runs.
type Options struct {
	Match   string
	Failing bool
}

// Apply runs every filter enabled in opts over fr.
func Apply(fr *model.FileReport, opts Options) *model.FileReport {
	fr = BySymbol(fr, opts.Match)
	if opts.Failing {
		fr = Failing(fr)
	}
	return fr
}

func keep(fr *model.FileReport, pred func(*model.Verdict) bool) *model.FileReport {
	out := &model.FileReport{Path: fr.Path, Verdicts: make([]model.Verdict, 0, len(fr.Verdicts))}
	for i := range fr.Verdicts {
		if pred(&fr.Verdicts[i]) {
			out.Verdicts = append(out.Verdicts, fr.Verdicts[i])
		}
	}
	return out
}
