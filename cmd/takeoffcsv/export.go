package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/acc"
	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/entity"
	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/takeoff/service"
)

type exportFlags struct {
	project string
	pkg     string
	groupBy string
	human   bool
	all     bool
	format  string
	out     string
	verbose bool
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a takeoff report for one package, or for all packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.project, "project", "", "ACC project id (required)")
	cmd.Flags().StringVar(&flags.pkg, "package", "", "takeoff package name")
	cmd.Flags().StringVar(&flags.groupBy, "group-by", "primaryclassification",
		"grouping: primaryclassification, secondaryclassification, document, takeofftype or location")
	cmd.Flags().BoolVar(&flags.human, "human", false, "render human readable labels and rounded quantities")
	cmd.Flags().BoolVar(&flags.all, "all", false, "export every package into one file")
	cmd.Flags().StringVar(&flags.format, "format", "csv", "output format: csv or xlsx")
	cmd.Flags().StringVar(&flags.out, "out", "", "output file (default: stdout for csv)")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "enable debug logging")
	cmd.MarkFlagRequired("project")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if flags.verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
	}

	groupBy, err := entity.ParseGroupBy(flags.groupBy)
	if err != nil {
		return err
	}
	style := entity.StyleRaw
	if flags.human {
		style = entity.StyleHumanReadable
	}

	var opts []acc.Option
	if cfg.Forge.BaseURL != "" {
		opts = append(opts, acc.WithBaseURL(cfg.Forge.BaseURL))
	}
	client := acc.NewClient(cfg.Forge.ClientID, cfg.Forge.ClientSecret, logger, opts...)
	svc := service.NewTakeoffService(client, client, logger)

	ctx := cmd.Context()
	project := svc.LoadProject(ctx, flags.project)

	var table [][]string
	switch {
	case flags.all:
		table, err = svc.ExportAll(ctx, project, flags.project, groupBy, style)
		if err != nil {
			return err
		}
	case flags.pkg != "":
		pkg, found := project.PackageByName(flags.pkg)
		if !found {
			return fmt.Errorf("unknown package %q", flags.pkg)
		}
		report, err := svc.BuildReport(ctx, project, service.AggregationContext{
			ProjectID:   flags.project,
			PackageID:   pkg.ID,
			PackageName: pkg.Name,
			GroupBy:     groupBy,
			Style:       style,
		})
		if err != nil {
			return err
		}
		table = report.Table(false, "")
	default:
		return fmt.Errorf("either --package or --all is required")
	}

	return writeTable(table, flags.format, flags.out)
}

func writeTable(table [][]string, format, out string) error {
	if format == "xlsx" {
		if out == "" {
			return fmt.Errorf("--out is required for xlsx output")
		}
		f, err := service.XLSXFile(table, "Takeoff")
		if err != nil {
			return err
		}
		return f.SaveAs(out)
	}

	data := service.CSVBytes(table)
	if out == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}
