package constants

import "time"

const (
	SearchResultLimit  = 30
	RecentSearchLimit  = 3
	DefaultPollTimeout = 30 * time.Second
)

const (
	TelegramAPITimeout = 35 * time.Second
	DatabaseTimeout    = 5 * time.Second
	EventTimeout       = 10 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

// DeltaChoices are the fixed rating-band buttons on the last search step.
var DeltaChoices = []int{250, 500, 1000}
