// Package types contains shared type definitions for indexer releases.
package types

import (
	"time"
)

// Protocol represents the download protocol.
type Protocol string

const (
	ProtocolUnknown Protocol = ""
	ProtocolTorrent Protocol = "torrent"
	ProtocolUsenet  Protocol = "usenet"
)

// ReleaseInfo represents a search result from an indexer. Values are
// treated as immutable once fetched.
type ReleaseInfo struct {
	GUID        string    `json:"guid" yaml:"guid"`
	Title       string    `json:"title" yaml:"title"`
	DownloadURL string    `json:"downloadUrl,omitempty" yaml:"downloadUrl,omitempty"`
	InfoURL     string    `json:"infoUrl,omitempty" yaml:"infoUrl,omitempty"`
	Size        int64     `json:"size" yaml:"size"`
	PublishDate time.Time `json:"publishDate" yaml:"publishDate"`
	Categories  []int     `json:"categories,omitempty" yaml:"categories,omitempty"`

	// Indexer info
	IndexerID       int64    `json:"indexerId" yaml:"indexerId"`
	IndexerName     string   `json:"indexer" yaml:"indexer"`
	IndexerPriority int      `json:"indexerPriority,omitempty" yaml:"indexerPriority,omitempty"`
	Protocol        Protocol `json:"protocol" yaml:"protocol"`

	// External IDs
	TvdbID int `json:"tvdbId,omitempty" yaml:"tvdbId,omitempty"`

	// Torrent-specific fields. Nil when the indexer did not report them.
	Seeders   *int   `json:"seeders,omitempty" yaml:"seeders,omitempty"`
	Peers     *int   `json:"peers,omitempty" yaml:"peers,omitempty"`
	InfoHash  string `json:"infoHash,omitempty" yaml:"infoHash,omitempty"`
	MagnetURL string `json:"magnetUrl,omitempty" yaml:"magnetUrl,omitempty"`

	// Usenet-specific fields
	Grabs  int    `json:"grabs,omitempty" yaml:"grabs,omitempty"`
	Poster string `json:"poster,omitempty" yaml:"poster,omitempty"`
}

// Age returns how long ago the release was published.
func (r *ReleaseInfo) Age(now time.Time) time.Duration {
	if r.PublishDate.IsZero() {
		return 0
	}
	age := now.Sub(r.PublishDate)
	if age < 0 {
		return 0
	}
	return age
}

// AgeDays returns the release age in whole days.
func (r *ReleaseInfo) AgeDays(now time.Time) int {
	return int(r.Age(now).Hours() / 24)
}

// SeederCount returns the reported seeders, or zero when unknown.
func (r *ReleaseInfo) SeederCount() int {
	if r.Seeders == nil {
		return 0
	}
	return *r.Seeders
}

// Leechers derives the leecher count from peers and seeders when both are known.
func (r *ReleaseInfo) Leechers() *int {
	if r.Seeders == nil || r.Peers == nil {
		return nil
	}
	l := *r.Peers - *r.Seeders
	if l < 0 {
		l = 0
	}
	return &l
}
