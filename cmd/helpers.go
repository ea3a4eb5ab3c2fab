package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/candidash/internal/config"
	"github.com/KaramelBytes/candidash/internal/dashboard"
	"github.com/KaramelBytes/candidash/internal/filter"
	"github.com/KaramelBytes/candidash/internal/source"
)

func currentConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		return nil, errors.New("configuration unavailable (see warning above)")
	}
	return cfg, nil
}

func dashboardConfig(c *cfgpkg.Global) dashboard.Config {
	dc := dashboard.DefaultConfig()
	dc.Limits = c.Limits()
	dc.Analysis.TopN = c.SalaryTopN
	return dc
}

func httpOptions(c *cfgpkg.Global) source.HTTPOptions {
	opts := c.HTTPOptions()
	opts.Logger = logger
	return opts
}

// sourceFlags pick a data source when no file argument is given.
type sourceFlags struct {
	url        string
	sheetID    string
	sheetRange string
}

func addSourceFlags(cmd *cobra.Command, sf *sourceFlags) {
	cmd.Flags().StringVar(&sf.url, "url", "", "published Google Sheet CSV link")
	cmd.Flags().StringVar(&sf.sheetID, "sheet-id", "", "spreadsheet id read through the Sheets API (needs sheets_api_key)")
	cmd.Flags().StringVar(&sf.sheetRange, "range", "", "Sheets API range (default from config)")
}

// resolveSource returns the file argument ("-" reads stdin), else the URL,
// else the Sheets API source.
func resolveSource(ctx context.Context, cmd *cobra.Command, args []string, sf sourceFlags, c *cfgpkg.Global) (source.Source, error) {
	if len(args) > 0 {
		if args[0] == "-" {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			return source.Text{Body: string(b)}, nil
		}
		if _, err := os.Stat(args[0]); err != nil {
			return nil, fmt.Errorf("open %s: %w", args[0], err)
		}
		return source.File{Path: args[0]}, nil
	}
	if strings.TrimSpace(sf.sheetID) != "" {
		rng := sf.sheetRange
		if rng == "" {
			rng = c.SheetsRange
		}
		return source.NewSheets(ctx, strings.TrimSpace(sf.sheetID), rng, c.SheetsAPIKey)
	}
	return source.Select("", sf.url, httpOptions(c))
}

// filterFlags mirror the dashboard controls. Unset flags keep the reset value.
type filterFlags struct {
	specialization string
	city           string
	genders        []string
	education      []string
	statuses       []string
	maxExperience  float64
	maxSalary      float64
}

func addFilterFlags(cmd *cobra.Command, ff *filterFlags) {
	fl := cmd.Flags()
	fl.StringVar(&ff.specialization, "specialization", filter.All, "specialization to keep")
	fl.StringVar(&ff.city, "city", filter.All, "city to keep")
	fl.StringSliceVar(&ff.genders, "gender", nil, "genders to keep (repeatable; default all)")
	fl.StringSliceVar(&ff.education, "education", nil, "education levels to keep (repeatable; default all)")
	fl.StringSliceVar(&ff.statuses, "status", nil, "employment statuses to keep (repeatable; default all)")
	fl.Float64Var(&ff.maxExperience, "max-experience", 0, "maximum years of experience (default unlimited)")
	fl.Float64Var(&ff.maxSalary, "max-salary", 0, "maximum expected salary (default unlimited)")
}

func (ff filterFlags) spec(cmd *cobra.Command, o filter.Options) (filter.Spec, error) {
	spec := o.DefaultSpec()
	fl := cmd.Flags()
	if fl.Changed("specialization") {
		spec.Specialization = ff.specialization
	}
	if fl.Changed("city") {
		spec.City = ff.city
	}
	if fl.Changed("gender") {
		spec.Genders = filter.NewSet(ff.genders...)
	}
	if fl.Changed("education") {
		spec.Education = filter.NewSet(ff.education...)
	}
	if fl.Changed("status") {
		spec.Statuses = filter.NewSet(ff.statuses...)
	}
	if fl.Changed("max-experience") {
		spec.MaxExperience = ff.maxExperience
	}
	if fl.Changed("max-salary") {
		spec.MaxSalary = ff.maxSalary
	}
	if err := o.Validate(spec); err != nil {
		return spec, err
	}
	return spec, nil
}

// warnNotifier prints load failures the way the CLI prints warnings.
func warnNotifier(w io.Writer) dashboard.Notifier {
	return dashboard.NotifierFunc(func(reason string) {
		fmt.Fprintf(w, "⚠ Warning: %s\n", reason)
	})
}

// loadAndFilter runs one load and one filtered cycle on ctrl.
func loadAndFilter(ctx context.Context, cmd *cobra.Command, ctrl *dashboard.Controller, src source.Source, ff filterFlags) (*dashboard.Result, error) {
	if _, err := ctrl.Load(ctx, src); err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Describe(), err)
	}
	spec, err := ff.spec(cmd, ctrl.Options())
	if err != nil {
		return nil, err
	}
	return ctrl.Update(ctx, spec)
}

// summaryMarkdown appends the active filter to the report.
func summaryMarkdown(res *dashboard.Result) string {
	var b strings.Builder
	b.WriteString(res.Summary.Markdown(res.Source))
	b.WriteString("\n[FILTER]\n")
	fmt.Fprintf(&b, "Specialization: %s | City: %s\n", res.Spec.Specialization, res.Spec.City)
	fmt.Fprintf(&b, "Experience: %s | Salary: %s\n", res.ExperienceLabel, res.SalaryLabel)
	fmt.Fprintf(&b, "Matched %d of %d rows\n", res.Matched, res.Rows)
	return b.String()
}
