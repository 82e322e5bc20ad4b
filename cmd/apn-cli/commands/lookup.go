package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/apn"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/scrapers/assessor"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var lookupJson *bool

func init() {
	lookupJson = lookupCmd.Flags().Bool("json", false, "Print the record as json instead of a table.")
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <apn>",
	Short: "Scrapes a single parcel and prints whatever the assessor has on it.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := createClient(nil)
		defer client.Close()

		rec := client.Lookup(cmd.Context(), apn.Format(args[0]))

		if *lookupJson {
			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				serviceutil.Fatal("failed to marshal record", err)
			}
			fmt.Println(string(out))
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Field", "Value"})
		for _, row := range recordRows(rec) {
			t.AppendRow(row)
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

func recordRows(rec *assessor.Record) []table.Row {
	fields := []struct {
		name  string
		value string
	}{
		{"APN", rec.APN},
		{"Parcel No", rec.ParcelNo},
		{"Owner", rec.Owner},
		{"Owner 2", rec.Owner2},
		{"Mailing Address 1", rec.MailingAddress1},
		{"Mailing Address 2", rec.MailingAddress2},
		{"Mailing Address 3", rec.MailingAddress3},
		{"Mailing Address 4", rec.MailingAddress4},
		{"Mailing Address 5", rec.MailingAddress5},
		{"Location", rec.LocationAddress},
		{"Town", rec.Town},
		{"Description 1", rec.Description1},
		{"Description 2", rec.Description2},
		{"Description 3", rec.Description3},
		{"Recorded Doc", rec.RecordedDoc},
		{"Recorded Date", rec.RecordedDate},
		{"Vesting", rec.Vesting},
		{"Comments", rec.Comments},
		{"Status", rec.Status},
	}

	var rows []table.Row
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		rows = append(rows, table.Row{f.name, f.value})
	}
	return rows
}
