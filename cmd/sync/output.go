package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
)

// printRecords renders run records as an aligned table. Records without an
// id (runs rejected before the record was created) are skipped.
func printRecords(out io.Writer, records []syncrun.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tTYPE\tCOMPETITION\tSTATUS\tSTARTED\tTOOK\tPROCESSED\tCREATED\tUPDATED\tUNCHANGED\tSKIPPED\tCALLS")
	for _, record := range records {
		if record.ID == "" {
			continue
		}
		status := string(record.Status)
		if record.DryRun {
			status += " (dry run)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			record.ID,
			record.Type,
			record.CompetitionCode,
			status,
			humanize.Time(record.StartedAt),
			took(record),
			humanize.Comma(int64(record.Counts.Processed)),
			humanize.Comma(int64(record.Counts.Created)),
			humanize.Comma(int64(record.Counts.Updated)),
			humanize.Comma(int64(record.Counts.Unchanged)),
			humanize.Comma(int64(record.Counts.Skipped)),
			humanize.Comma(int64(record.Counts.UpstreamCalls)),
		)
	}
	_ = w.Flush()

	for _, record := range records {
		if record.Error != "" {
			fmt.Fprintf(out, "%s: %s\n", record.ID, record.Error)
		}
	}
}

func took(record syncrun.Record) string {
	if record.FinishedAt == nil {
		return "-"
	}
	return record.FinishedAt.Sub(record.StartedAt).Round(time.Millisecond).String()
}
