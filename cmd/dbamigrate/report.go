package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/sqlops/mssql-workbench/internal/models"
)

// writeReport renders the run report in the requested format.
func writeReport(w io.Writer, report *models.Report, format string) error {
	if format == "yaml" {
		return yaml.NewEncoder(w).Encode(report)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tDESTINATION\tTYPE\tNAME\tSTATUS\tNOTES")
	for _, st := range report.Statuses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			st.SourceServer, st.DestinationServer, st.Type, st.Name, st.Status, st.Notes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := report.Counts()
	fmt.Fprintf(w, "\n%d successful, %d skipped, %d failed, %d not supported\n",
		counts[models.StatusSuccessful], counts[models.StatusSkipped],
		counts[models.StatusFailed], counts[models.StatusNotSupported])
	for _, warn := range report.Warnings {
		fmt.Fprintln(w, "WARNING: "+warn)
	}
	return nil
}

// writePreview renders the preview in the requested format.
func writePreview(w io.Writer, preview *models.MigrationPreview, format string) error {
	if format == "yaml" {
		return yaml.NewEncoder(w).Encode(preview)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tNAME\tACTION\tNOTE")
	for _, category := range orderedCategories(preview) {
		for _, obj := range preview.Objects[category] {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", category, obj.Name, obj.Action, obj.Note)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, warn := range preview.Warnings {
		fmt.Fprintln(w, "WARNING: "+warn)
	}
	return nil
}

func orderedCategories(preview *models.MigrationPreview) []string {
	var categories []string
	for category := range preview.Objects {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
