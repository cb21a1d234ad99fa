package model

import (
	"fmt"
	"strings"
)

// MetricSample is the cumulative request time read from one telemetry endpoint.
// A sample whose fetch or parse failed carries TotalTime 0 and Present false.
type MetricSample struct {
	Label     string
	Endpoint  string
	TotalTime float64 // seconds, never negative
	Present   bool
}

// TrackTarget names one endpoint to collect.
type TrackTarget struct {
	Label    string `mapstructure:"label" yaml:"label"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// PairSpec configures one comparison by index into the collected samples.
type PairSpec struct {
	Title      string `mapstructure:"title" yaml:"title"`
	Left       int    `mapstructure:"left" yaml:"left"`
	Right      int    `mapstructure:"right" yaml:"right"`
	LeftColor  string `mapstructure:"left-color" yaml:"left-color"`
	RightColor string `mapstructure:"right-color" yaml:"right-color"`
}

// ComparisonPair is a resolved PairSpec ready for reporting.
type ComparisonPair struct {
	Title      string
	Left       MetricSample
	Right      MetricSample
	LeftColor  string
	RightColor string
}

// Peak returns the larger total time of the two sides.
func (p ComparisonPair) Peak() float64 {
	return max(p.Left.TotalTime, p.Right.TotalTime)
}

// ChartBar is a proportional run of glyphs.
type ChartBar struct {
	Width int
	Glyph string
}

// String renders the bar as Glyph repeated Width times.
func (b ChartBar) String() string {
	if b.Width <= 0 {
		return ""
	}
	return strings.Repeat(b.Glyph, b.Width)
}

// Book is the record served by both data-access paths of the target service.
type Book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

// SeedBook returns the deterministic catalog entry for id.
func SeedBook(id int64) Book {
	return Book{
		ID:     id,
		Title:  fmt.Sprintf("Book #%d", id),
		Author: fmt.Sprintf("Author %d", id%97),
		Year:   1900 + int(id%125),
	}
}
