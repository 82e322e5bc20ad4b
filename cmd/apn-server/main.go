package main

import (
	"context"
	"flag"
	"time"

	"github.com/cvdnnn/clark-county-apn-scraper/lib/scrapers/assessor"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/serviceutil"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/sqliteutil"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/telemetry"
	"github.com/cvdnnn/clark-county-apn-scraper/services/parcels"
	"github.com/cvdnnn/clark-county-apn-scraper/services/parcels/db"
	"github.com/cvdnnn/clark-county-apn-scraper/services/parcels/server"

	"github.com/dgraph-io/badger/v4"
)

func main() {
	cfgPath := flag.String("config", "config.json5", "specify the path to a config file")
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()
	telemetry.InitSlog(*verbose)

	config := MustLoadConfig(*cfgPath)

	err := telemetry.Setup(ctx, "apn-server", config.Telemetry)
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer telemetry.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	database, err := sqliteutil.OpenDB(db.Schema, config.Database)
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}
	defer database.Close()

	var cache *badger.DB
	if config.Scraper.CacheDir != "" {
		cache, err = badger.Open(badger.DefaultOptions(config.Scraper.CacheDir))
		if err != nil {
			serviceutil.Fatal("failed to open page cache", err)
		}
		defer cache.Close()
	}

	client, err := assessor.NewClient(ctx, assessor.ClientOptions{
		BaseUrl:    config.Scraper.BaseUrl,
		Timeout:    time.Duration(config.Scraper.TimeoutSeconds) * time.Second,
		MaxRetries: config.Scraper.MaxRetries,
		VerifyTLS:  config.Scraper.VerifyTls,
		Cache:      cache,
		CacheTTL:   time.Duration(config.Scraper.CacheTTLHours) * time.Hour,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize assessor client", err)
	}
	defer client.Close()

	service := parcels.NewService(database, client, parcels.Options{
		Delay: time.Duration(config.Scraper.DelayMs) * time.Millisecond,
		Smtp:  config.Smtp,
	})

	srv := server.New(ctx, service, server.Options{
		AccessToken: config.AccessToken,
	})
	serviceutil.StartHttpServer(ctx, config.Port, srv.Router())

	// a cancelled run still writes its bookkeeping, let it land
	// before the deferred closes tear the database down
	srv.Wait()
}
