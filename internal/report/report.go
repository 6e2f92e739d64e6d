// Package report prints analyzed files as text, a table, or TOON.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/phobologic/serialcheck/internal/model"
	"github.com/phobologic/serialcheck/internal/toon"
)

// Format selects the output encoding.
type Format string

const (
	Text  Format = "text"
	Table Format = "table"
	TOON  Format = "toon"
)

// ParseFormat validates a format name. The empty string means Text.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", Text:
		return Text, nil
	case Table, TOON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (want text, table or toon)", s)
}

// Options controls what a Reporter prints.
type Options struct {
	Format Format
	// Summary prints only aggregate counts, once, at Flush.
	Summary bool
	// Headers prints each file's path before its symbols.
	Headers bool
}

// Reporter writes per-file results and accumulates summary counts.
type Reporter struct {
	w      io.Writer
	opts   Options
	counts model.Counts
	files  int
}

// New creates a Reporter writing to w.
func New(w io.Writer, opts Options) *Reporter {
	if opts.Format == "" {
		opts.Format = Text
	}
	return &Reporter{w: w, opts: opts}
}

// Counts returns the totals accumulated so far.
func (r *Reporter) Counts() model.Counts {
	return r.counts
}

// File reports one analyzed file. In summary mode it only counts.
func (r *Reporter) File(fr *model.FileReport) error {
	r.counts.Add(fr)
	defer func() { r.files++ }()

	if r.opts.Summary {
		return nil
	}

	if r.files > 0 && (r.opts.Headers || r.opts.Format == TOON) {
		if _, err := fmt.Fprintln(r.w); err != nil {
			return err
		}
	}

	switch r.opts.Format {
	case TOON:
		_, err := fmt.Fprintln(r.w, toon.Encode(fr))
		return err
	case Table:
		if err := r.header(fr.Path); err != nil {
			return err
		}
		r.table(fr)
		return nil
	default:
		if err := r.header(fr.Path); err != nil {
			return err
		}
		for i := range fr.Verdicts {
			v := &fr.Verdicts[i]
			if _, err := fmt.Fprintf(r.w, "%s\t%s\t%t\n", v.Name, v.Signature, v.Serializable); err != nil {
				return err
			}
		}
		return nil
	}
}

// Flush prints the summary when summary mode is on.
func (r *Reporter) Flush() error {
	if !r.opts.Summary {
		return nil
	}
	c := r.counts

	switch r.opts.Format {
	case TOON:
		_, err := fmt.Fprintln(r.w, toon.EncodeSummary(c))
		return err
	case Table:
		table := r.newTable([]string{"Total", "Not", "Serializable"})
		table.Append([]string{
			strconv.Itoa(c.Total()),
			strconv.Itoa(c.NotSerializable),
			strconv.Itoa(c.Serializable),
		})
		table.Render()
		return nil
	default:
		_, err := fmt.Fprintf(r.w, "total\tnot\tserializable\n%d\t%d\t%d\n", c.Total(), c.NotSerializable, c.Serializable)
		return err
	}
}

func (r *Reporter) header(path string) error {
	if !r.opts.Headers {
		return nil
	}
	_, err := fmt.Fprintf(r.w, "%s:\n", path)
	return err
}

func (r *Reporter) table(fr *model.FileReport) {
	table := r.newTable([]string{"Symbol", "Signature", "Serializable"})
	for i := range fr.Verdicts {
		v := &fr.Verdicts[i]
		table.Append([]string{v.Name, v.Signature, strconv.FormatBool(v.Serializable)})
	}
	table.Render()
}

func (r *Reporter) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(r.w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}
