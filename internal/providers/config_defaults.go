package providers

import (
	"time"

	"coronabot/internal/structures"
)

// Defaults mirror the intervals the upstream dashboard data is refreshed at;
// only values the operator is unlikely to tune are filled in here.
func applyDefaults(conf *structures.Config) {
	if conf.Persistence.LockTimeout == 0 {
		conf.Persistence.LockTimeout = 15 * time.Second
	}
	if conf.Corona.RequestTimeout == 0 {
		conf.Corona.RequestTimeout = 120 * time.Second
	}
	if conf.Corona.CountryListTTL == 0 {
		conf.Corona.CountryListTTL = 20 * time.Minute
	}
	if conf.Corona.CountryCountTTL == 0 {
		conf.Corona.CountryCountTTL = 60 * time.Minute
	}
	if conf.Corona.MaxSubscriptions == 0 {
		conf.Corona.MaxSubscriptions = 10
	}
	if conf.Corona.PromptTimeout == 0 {
		conf.Corona.PromptTimeout = 300 * time.Second
	}
	if conf.Feed.Interval == 0 {
		conf.Feed.Interval = 20 * time.Minute
	}
	if conf.Feed.StaleAfter == 0 {
		conf.Feed.StaleAfter = 2 * conf.Feed.Interval
	}
}
