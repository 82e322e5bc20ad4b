package main

import (
	"context"

	"github.com/cvdnnn/clark-county-apn-scraper/cmd/apn-cli/commands"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/serviceutil"
	"github.com/cvdnnn/clark-county-apn-scraper/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "apn-cli")
	commands.ExecuteContext(serviceutil.SignalContext())
}
