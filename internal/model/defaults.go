package model

import "time"

// Shared defaults used by both the runner and the target binaries.
const (
	DefaultChartWidth     = 40
	DefaultUpdateInterval = 5 * time.Second
	DefaultBarGlyph       = "█"
	DefaultCatalogSize    = 10000
	DefaultGridSize       = 10000
)

// TotalTimeStatistic is the measurement consumed from a metrics document.
const TotalTimeStatistic = "TOTAL_TIME"
