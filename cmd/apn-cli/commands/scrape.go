package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/csvutil"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/restyutil"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/scrapers/assessor"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/serviceutil"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/sqliteutil"
	"github.com/cvdnnn/clark-county-apn-scraper/services/parcels"
	"github.com/cvdnnn/clark-county-apn-scraper/services/parcels/db"

	"github.com/dgraph-io/badger/v4"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var scrapeOutput *string
var scrapeColumn *string
var scrapeDb *string
var scrapeCacheDir *string
var scrapeDelay *time.Duration
var scrapeDebugHttp *bool

func init() {
	scrapeOutput = scrapeCmd.Flags().StringP("output", "o", "results.csv", "The csv file to write scraped records to.")
	scrapeColumn = scrapeCmd.Flags().StringP("column", "c", "apn", "The APN column header in the input file.")
	scrapeDb = scrapeCmd.Flags().String("db", "results.db", "The database to write scrape results to.")
	scrapeCacheDir = scrapeCmd.Flags().String("cache", "", "A directory to cache fetched pages in.")
	scrapeDelay = scrapeCmd.Flags().Duration("delay", time.Millisecond*100, "The pause between consecutive lookups.")
	scrapeDebugHttp = scrapeCmd.Flags().Bool("debug-http", false, "Dump every request/response pair to .dev/resty/assessor.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <input.csv> [-o <output.csv>] [--db <path/to/results.db>]",
	Short: "Scrapes every parcel in an input file into a csv and a results database.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if *scrapeDebugHttp {
			assessor.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/assessor"))
		}

		apns, err := csvutil.ReadAPNs(args[0], *scrapeColumn)
		if err != nil {
			serviceutil.Fatal("failed to read input file", err)
		}
		if len(apns) == 0 {
			slog.Error("input file has no apns", "path", args[0])
			os.Exit(1)
		}
		slog.Info("read input file", "path", args[0], "apns", len(apns))

		var cache *badger.DB
		if *scrapeCacheDir != "" {
			cache, err = badger.Open(badger.DefaultOptions(*scrapeCacheDir))
			if err != nil {
				serviceutil.Fatal("failed to open page cache", err)
			}
			defer cache.Close()
		}

		client := createClient(cache)
		defer client.Close()

		database, err := sqliteutil.OpenDB(db.Schema, *scrapeDb)
		if err != nil {
			serviceutil.Fatal("failed to open db", err)
		}
		defer database.Close()

		service := parcels.NewService(database, client, parcels.Options{
			Delay: *scrapeDelay,
		})

		t1 := time.Now()
		runId, err := service.RunBatch(cmd.Context(), "cli:"+filepath.Base(args[0]), apns)
		if err != nil {
			serviceutil.Fatal("scrape run failed", err)
		}
		t2 := time.Now()
		slog.Info("scraping time", "seconds", t2.Sub(t1).Seconds())

		// ctrl+c cancels the run but whatever got scraped still goes
		// in the csv, so reads run on a fresh context
		ctx := context.Background()

		rows, err := service.ListRecords(ctx, runId)
		if err != nil {
			serviceutil.Fatal("failed to read back records", err)
		}
		records := make([]*assessor.Record, 0, len(rows))
		for _, row := range rows {
			records = append(records, parcels.RecordFromRow(row))
		}
		err = csvutil.WriteRecords(*scrapeOutput, records)
		if err != nil {
			serviceutil.Fatal("failed to write output csv", err)
		}
		slog.Info("wrote output csv", "path", *scrapeOutput, "records", len(records))

		run, err := service.GetRun(ctx, runId)
		if err != nil {
			serviceutil.Fatal("failed to read back run", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRow(table.Row{"Run", run.ID})
		t.AppendRow(table.Row{"Status", run.Status})
		t.AppendRow(table.Row{"Total", run.Total})
		t.AppendRow(table.Row{"Succeeded", run.Succeeded})
		t.AppendRow(table.Row{"Failed", run.Failed})
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
