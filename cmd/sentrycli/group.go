package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/tinytelemetry/sentrycli/internal/aggregate"
	"github.com/tinytelemetry/sentrycli/internal/report"
)

type groupOptions struct {
	input       inputOptions
	selection   aggregate.Selection
	listOptions bool
	output      outputOptions
}

var groupOpts groupOptions

func init() {
	rootCmd.AddCommand(groupCmd)
	f := groupCmd.Flags()
	f.StringSliceVar(&groupOpts.selection.Headers, "headers", nil, "group by request headers")
	f.StringSliceVar(&groupOpts.selection.Context, "context", nil, "group by context (and user) keys")
	f.StringSliceVar(&groupOpts.selection.Params, "params", nil, "group by message params")
	f.StringSliceVar(&groupOpts.selection.Variables, "variables", nil, "group by stack frame variables")
	f.StringSliceVar(&groupOpts.selection.Tags, "tags", nil, "group by tags")
	f.StringArrayVar(&groupOpts.selection.InOrder, "in-order", nil, "breadcrumb category pattern, space separated, * matches any run (repeatable)")
	f.StringVar(&groupOpts.selection.CTime, "ctime", "", "bucket by creation time (daily|monthly)")
	f.IntVar(&groupOpts.selection.Top, "top", 0, "show only the top N results")
	f.BoolVarP(&groupOpts.listOptions, "options", "o", false, "list possible grouping options")
	addInputFlags(groupCmd, &groupOpts.input)
	addOutputFlags(groupCmd, &groupOpts.output, true)
}

var groupCmd = &cobra.Command{
	Use:   "group [FILE]",
	Short: "Group events by attributes or creation time",
	Long:  "Counts events per distinct combination of the selected headers, context, params, variables, tags and breadcrumb order patterns, or buckets them by creation day or month.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		groupOpts.input.setArgs(args)
		return runGroup(cmd.OutOrStdout(), groupOpts)
	},
}

func runGroup(w io.Writer, opts groupOptions) error {
	f, err := opts.output.parse()
	if err != nil {
		return err
	}

	var plan aggregate.Plan
	if !opts.listOptions {
		// Validate the selection before reading any events.
		if plan, err = aggregate.BuildPlan(opts.selection); err != nil {
			return err
		}
	}

	views, err := opts.input.load()
	if err != nil {
		return err
	}

	if opts.listOptions {
		return report.RenderOptions(w, aggregate.CollectOptions(views), f)
	}

	rep, err := plan.Run(views)
	if err != nil {
		return err
	}
	return writeReport(w, opts.input.label(), rep, plan.IsTimeBucket(), opts.output)
}
