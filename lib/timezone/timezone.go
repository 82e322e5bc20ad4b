package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Los_Angeles")
	if err != nil {
		panic(err)
	}
}

// Clark County sits in the Pacific timezone. Scrape timestamps and
// recorded-date math must use the county's clock no matter where the
// host machine happens to run.
func Now() time.Time {
	return time.Now().In(Location)
}
