package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/scrapers/assessor"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/serviceutil"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/telemetry"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/cobra"
)

var verbose *bool

var rootCmd = &cobra.Command{
	Use:   "apn-cli",
	Short: "apn-cli scrapes parcel records off the Clark County assessor site.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every scraping step.")
}

func createClient(cache *badger.DB) *assessor.Client {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	client, err := assessor.NewClient(ctx, assessor.ClientOptions{
		Cache: cache,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize assessor client", err)
	}
	return client
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
