package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/tinytelemetry/sentrycli/internal/aggregate"
	"github.com/tinytelemetry/sentrycli/internal/breadcrumbs"
	"github.com/tinytelemetry/sentrycli/internal/model"
	"github.com/tinytelemetry/sentrycli/internal/report"
)

type breadcrumbsOptions struct {
	input       inputOptions
	attributes  []string
	top         int
	listOptions bool
	output      outputOptions
}

var breadcrumbsOpts breadcrumbsOptions

func init() {
	rootCmd.AddCommand(breadcrumbsCmd)
	f := breadcrumbsCmd.Flags()
	f.StringSliceVarP(&breadcrumbsOpts.attributes, "attributes", "a", nil, "breadcrumb attributes to group by, format <category>:<attr>")
	f.IntVar(&breadcrumbsOpts.top, "top", 0, "show only the top N results")
	f.BoolVarP(&breadcrumbsOpts.listOptions, "options", "o", false, "list breadcrumb categories and their attributes")
	addInputFlags(breadcrumbsCmd, &breadcrumbsOpts.input)
	addOutputFlags(breadcrumbsCmd, &breadcrumbsOpts.output, false)
}

var breadcrumbsCmd = &cobra.Command{
	Use:   "breadcrumbs [FILE]",
	Short: "Group events by breadcrumb attributes",
	Long:  "Counts events per distinct combination of breadcrumb attributes. Each attribute is read from the last breadcrumb of its category.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		breadcrumbsOpts.input.setArgs(args)
		return runBreadcrumbs(cmd.OutOrStdout(), breadcrumbsOpts)
	},
}

func runBreadcrumbs(w io.Writer, opts breadcrumbsOptions) error {
	f, err := opts.output.parse()
	if err != nil {
		return err
	}

	var plan aggregate.Plan
	if !opts.listOptions {
		if len(opts.attributes) == 0 {
			return model.UserErrorf("--attributes argument is mandatory")
		}
		plan, err = aggregate.BuildPlan(aggregate.Selection{Attributes: opts.attributes, Top: opts.top})
		if err != nil {
			return err
		}
	}

	views, err := opts.input.load()
	if err != nil {
		return err
	}

	if opts.listOptions {
		return report.RenderCategories(w, breadcrumbs.CategoryAttributes(views), f)
	}

	rep, err := plan.Run(views)
	if err != nil {
		return err
	}
	return writeReport(w, opts.input.label(), rep, false, opts.output)
}
