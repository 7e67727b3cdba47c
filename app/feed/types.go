package feed

import (
	"time"
)

// Feed processing types

type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// Item is a single parsed feed entry before it is written to storage.
type Item struct {
	GUID        string
	Title       string
	Link        string
	Content     string
	Author      string
	Tags        []string
	PublishedAt *time.Time
	ContentHash string
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	Timeout         int  `yaml:"timeout"`          // seconds
	ExtractContent  bool `yaml:"extract_content"`  // enable content extraction
}
