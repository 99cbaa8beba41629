package quality

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/language"
)

var (
	ErrInvalidProfile = errors.New("invalid quality profile")
)

// Source values used by quality tiers.
const (
	SourceUnknown = "unknown"
	SourceTV      = "tv"
	SourceDVD     = "dvd"
	SourceWebRip  = "webrip"
	SourceWebDL   = "webdl"
	SourceBluray  = "bluray"
	SourceRemux   = "remux"
)

// Quality represents a quality tier.
type Quality struct {
	ID         int    `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Source     string `json:"source" yaml:"source"`         // "bluray", "webdl", "tv", etc.
	Resolution int    `json:"resolution" yaml:"resolution"` // 480, 720, 1080, 2160
}

// Unknown is assigned when no quality token could be found in a release title.
var Unknown = Quality{ID: 0, Name: "Unknown", Source: SourceUnknown}

// PredefinedQualities are the standard quality definitions.
var PredefinedQualities = []Quality{
	Unknown,
	{ID: 1, Name: "SDTV", Source: SourceTV, Resolution: 480},
	{ID: 2, Name: "DVD", Source: SourceDVD, Resolution: 480},
	{ID: 3, Name: "WEBRip-480p", Source: SourceWebRip, Resolution: 480},
	{ID: 4, Name: "WEB-DL-480p", Source: SourceWebDL, Resolution: 480},
	{ID: 5, Name: "Bluray-480p", Source: SourceBluray, Resolution: 480},
	{ID: 6, Name: "HDTV-720p", Source: SourceTV, Resolution: 720},
	{ID: 7, Name: "WEBRip-720p", Source: SourceWebRip, Resolution: 720},
	{ID: 8, Name: "WEB-DL-720p", Source: SourceWebDL, Resolution: 720},
	{ID: 9, Name: "Bluray-720p", Source: SourceBluray, Resolution: 720},
	{ID: 10, Name: "HDTV-1080p", Source: SourceTV, Resolution: 1080},
	{ID: 11, Name: "WEBRip-1080p", Source: SourceWebRip, Resolution: 1080},
	{ID: 12, Name: "WEB-DL-1080p", Source: SourceWebDL, Resolution: 1080},
	{ID: 13, Name: "Bluray-1080p", Source: SourceBluray, Resolution: 1080},
	{ID: 14, Name: "Remux-1080p", Source: SourceRemux, Resolution: 1080},
	{ID: 15, Name: "HDTV-2160p", Source: SourceTV, Resolution: 2160},
	{ID: 16, Name: "WEBRip-2160p", Source: SourceWebRip, Resolution: 2160},
	{ID: 17, Name: "WEB-DL-2160p", Source: SourceWebDL, Resolution: 2160},
	{ID: 18, Name: "Bluray-2160p", Source: SourceBluray, Resolution: 2160},
	{ID: 19, Name: "Remux-2160p", Source: SourceRemux, Resolution: 2160},
}

// qualityByID is a lookup map for qualities by ID.
var qualityByID map[int]Quality

func init() {
	qualityByID = make(map[int]Quality)
	for _, q := range PredefinedQualities {
		qualityByID[q.ID] = q
	}
}

// GetQualityByID returns a quality by its ID.
func GetQualityByID(id int) (Quality, bool) {
	q, ok := qualityByID[id]
	return q, ok
}

// GetQualityByName finds a quality by name.
func GetQualityByName(name string) (Quality, bool) {
	for _, q := range PredefinedQualities {
		if q.Name == name {
			return q, true
		}
	}
	return Quality{}, false
}

// ProfileItem is one rank of a profile. Grouped qualities share the rank.
type ProfileItem struct {
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Qualities []Quality `json:"qualities" yaml:"qualities"`
	Allowed   bool      `json:"allowed" yaml:"allowed"`
}

// Contains reports whether the item holds the quality.
func (i ProfileItem) Contains(qualityID int) bool {
	for _, q := range i.Qualities {
		if q.ID == qualityID {
			return true
		}
	}
	return false
}

// Profile represents a quality profile. Items are ordered most preferred first.
type Profile struct {
	ID             int64         `json:"id" yaml:"id"`
	Name           string        `json:"name" yaml:"name"`
	Cutoff         int           `json:"cutoff" yaml:"cutoff"` // Quality ID at which upgrades stop
	Items          []ProfileItem `json:"items" yaml:"items"`
	UpgradeAllowed bool          `json:"upgradeAllowed" yaml:"upgradeAllowed"`

	// MinFormatScore rejects releases whose custom format score is lower.
	MinFormatScore int `json:"minFormatScore" yaml:"minFormatScore"`
	// MinUpgradeFormatScore is the score delta a release must add over an
	// existing file that already meets the cutoff.
	MinUpgradeFormatScore int `json:"minUpgradeFormatScore" yaml:"minUpgradeFormatScore"`

	// Languages lists accepted BCP 47 language codes. Empty accepts any.
	Languages []string `json:"languages,omitempty" yaml:"languages,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"-"`
}

// Validate checks that the profile can be used to rank releases.
func (p *Profile) Validate() error {
	if len(p.Items) == 0 {
		return fmt.Errorf("%w: %q has no qualities", ErrInvalidProfile, p.Name)
	}

	seen := make(map[int]bool)
	for _, item := range p.Items {
		if len(item.Qualities) == 0 {
			return fmt.Errorf("%w: %q has an empty item %q", ErrInvalidProfile, p.Name, item.Name)
		}
		for _, q := range item.Qualities {
			if _, ok := GetQualityByID(q.ID); !ok {
				return fmt.Errorf("%w: %q references unknown quality %d", ErrInvalidProfile, p.Name, q.ID)
			}
			if seen[q.ID] {
				return fmt.Errorf("%w: %q lists quality %d twice", ErrInvalidProfile, p.Name, q.ID)
			}
			seen[q.ID] = true
		}
	}

	if !seen[p.Cutoff] {
		return fmt.Errorf("%w: %q cutoff %d is not in the profile", ErrInvalidProfile, p.Name, p.Cutoff)
	}
	if !p.IsAcceptable(p.Cutoff) {
		return fmt.Errorf("%w: %q cutoff %d is not allowed", ErrInvalidProfile, p.Name, p.Cutoff)
	}
	if p.MinUpgradeFormatScore < 0 {
		return fmt.Errorf("%w: %q minimum upgrade score must not be negative", ErrInvalidProfile, p.Name)
	}

	for _, code := range p.Languages {
		if _, err := language.Parse(code); err != nil {
			return fmt.Errorf("%w: %q has invalid language %q: %v", ErrInvalidProfile, p.Name, code, err)
		}
	}

	return nil
}

// Weight returns the rank of a quality in the profile. Lower is more
// preferred. Qualities missing from the profile rank after every item.
func (p *Profile) Weight(qualityID int) int {
	for i, item := range p.Items {
		if item.Contains(qualityID) {
			return i
		}
	}
	return len(p.Items)
}

// IsAcceptable checks if a quality is acceptable for this profile.
func (p *Profile) IsAcceptable(qualityID int) bool {
	for _, item := range p.Items {
		if item.Contains(qualityID) {
			return item.Allowed
		}
	}
	return false
}

// CutoffWeight returns the weight of the cutoff quality.
func (p *Profile) CutoffWeight() int {
	return p.Weight(p.Cutoff)
}

// MeetsCutoff reports whether a quality is at least as preferred as the cutoff.
func (p *Profile) MeetsCutoff(qualityID int) bool {
	return p.Weight(qualityID) <= p.CutoffWeight()
}

// CompareQuality orders two quality models under this profile. It returns a
// positive number when a is preferred over b, negative when b is preferred
// and zero when they are equivalent.
func (p *Profile) CompareQuality(a, b Model) int {
	wa, wb := p.Weight(a.Quality.ID), p.Weight(b.Quality.ID)
	if wa != wb {
		return wb - wa
	}
	return a.Revision.Compare(b.Revision)
}

// AllowsLanguage reports whether the language is accepted by the profile.
func (p *Profile) AllowsLanguage(tag language.Tag) bool {
	if len(p.Languages) == 0 {
		return true
	}
	base, _ := tag.Base()
	for _, code := range p.Languages {
		allowed, err := language.Parse(code)
		if err != nil {
			continue
		}
		if b, _ := allowed.Base(); b == base {
			return true
		}
	}
	return false
}

func singleItems(allowed func(q Quality) bool) []ProfileItem {
	// Most preferred first: reverse of the predefined order.
	items := make([]ProfileItem, 0, len(PredefinedQualities))
	for i := len(PredefinedQualities) - 1; i >= 0; i-- {
		q := PredefinedQualities[i]
		items = append(items, ProfileItem{
			Qualities: []Quality{q},
			Allowed:   allowed(q),
		})
	}
	return items
}

// DefaultProfile returns a default "Any" profile that accepts all known qualities.
func DefaultProfile() Profile {
	return Profile{
		Name:                  "Any",
		Cutoff:                13, // Bluray-1080p
		Items:                 singleItems(func(q Quality) bool { return q.ID != Unknown.ID }),
		UpgradeAllowed:        true,
		MinUpgradeFormatScore: 1,
	}
}

// HD1080pProfile returns a profile targeting 1080p content. WEB-DL and
// WEBRip 1080p share a rank.
func HD1080pProfile() Profile {
	web1080 := ProfileItem{Name: "WEB 1080p", Allowed: true}
	var items []ProfileItem
	for _, item := range singleItems(func(q Quality) bool { return q.Resolution >= 720 && q.Resolution <= 1080 }) {
		q := item.Qualities[0]
		if q.Resolution == 1080 && (q.Source == SourceWebDL || q.Source == SourceWebRip) {
			web1080.Qualities = append(web1080.Qualities, q)
			if len(web1080.Qualities) == 2 {
				items = append(items, web1080)
			}
			continue
		}
		items = append(items, item)
	}
	return Profile{
		Name:                  "HD-1080p",
		Cutoff:                13, // Bluray-1080p
		Items:                 items,
		UpgradeAllowed:        true,
		MinUpgradeFormatScore: 1,
	}
}

// Ultra4KProfile returns a profile targeting 4K content.
func Ultra4KProfile() Profile {
	return Profile{
		Name:                  "Ultra-HD",
		Cutoff:                18, // Bluray-2160p
		Items:                 singleItems(func(q Quality) bool { return q.Resolution >= 1080 }),
		UpgradeAllowed:        true,
		MinUpgradeFormatScore: 1,
	}
}

// SerializeItems converts profile items to JSON for database storage.
func SerializeItems(items []ProfileItem) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DeserializeItems parses JSON profile items from database.
func DeserializeItems(data string) ([]ProfileItem, error) {
	var items []ProfileItem
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}
