package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tinytelemetry/sentrycli/internal/model"
	"github.com/tinytelemetry/sentrycli/internal/report"
	"github.com/tinytelemetry/sentrycli/internal/tui"
)

const (
	chartWidth  = 72
	chartHeight = 12
)

// outputOptions controls how a report is presented.
type outputOptions struct {
	format      string
	chart       bool
	interactive bool
}

func addOutputFlags(cmd *cobra.Command, out *outputOptions, withChart bool) {
	cmd.Flags().StringVar(&out.format, "format", string(report.FormatText), "output format (text|json|yaml|csv)")
	cmd.Flags().BoolVarP(&out.interactive, "interactive", "i", false, "open the text report in a scrollable viewer")
	if withChart {
		cmd.Flags().BoolVar(&out.chart, "chart", false, "draw a bar chart of creation time buckets")
	}
}

func (o outputOptions) parse() (report.Format, error) {
	if o.format == "" {
		o.format = string(report.FormatText)
	}
	f, err := report.ParseFormat(o.format)
	if err != nil {
		return "", err
	}
	if o.interactive && f != report.FormatText {
		return "", model.UserErrorf("--interactive only works with --format text")
	}
	return f, nil
}

// writeReport renders rep to w, or hands the rendered text to the viewer.
// bucketed reports may carry a chart above the table.
func writeReport(w io.Writer, title string, rep *model.Report, bucketed bool, o outputOptions) error {
	f, err := o.parse()
	if err != nil {
		return err
	}
	if f != report.FormatText {
		return report.Render(w, rep, f)
	}

	var b strings.Builder
	if o.chart && bucketed {
		if chart := report.Chart(rep, chartWidth, chartHeight); chart != "" {
			b.WriteString(chart)
			b.WriteString("\n\n")
		}
	}
	b.WriteString(report.Text(rep))

	if o.interactive {
		return tui.Run(title, b.String())
	}
	_, err = io.WriteString(w, b.String())
	return err
}
