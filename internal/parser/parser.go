// Package parser turns raw release titles into structured episode information.
//
// Parsing is a best-effort heuristic: Parse never fails, it only leaves out
// what it cannot recognize so later stages can reject the release with a
// specific reason.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/slipstream/releasedecider/internal/library/quality"
)

// NumberingMode identifies how a release names its episodes.
type NumberingMode int

const (
	// NumberingStandard is season/episode numbering. Titles with no
	// recognizable numbering also fall back to this mode.
	NumberingStandard NumberingMode = iota
	// NumberingDaily identifies episodes by air date.
	NumberingDaily
	// NumberingAbsolute identifies episodes by absolute number (anime).
	NumberingAbsolute
)

func (m NumberingMode) String() string {
	switch m {
	case NumberingDaily:
		return "daily"
	case NumberingAbsolute:
		return "absolute"
	default:
		return "standard"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m NumberingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *NumberingMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "standard", "":
		*m = NumberingStandard
	case "daily":
		*m = NumberingDaily
	case "absolute":
		*m = NumberingAbsolute
	default:
		return fmt.Errorf("unknown numbering mode %q", text)
	}
	return nil
}

// ParsedInfo holds everything recognized in a release title.
type ParsedInfo struct {
	ReleaseTitle string `json:"releaseTitle"`
	SeriesTitle  string `json:"seriesTitle"`
	Year         int    `json:"year,omitempty"`

	Mode                   NumberingMode `json:"mode"`
	SeasonNumber           int           `json:"seasonNumber"`
	EndSeasonNumber        int           `json:"endSeasonNumber,omitempty"` // For multi-season packs (S01-S04)
	EpisodeNumbers         []int         `json:"episodeNumbers,omitempty"`
	AbsoluteEpisodeNumbers []int         `json:"absoluteEpisodeNumbers,omitempty"`
	AirDate                time.Time     `json:"airDate,omitempty"`

	IsDaily        bool `json:"isDaily"`
	IsMultiEpisode bool `json:"isMultiEpisode"`
	IsSeasonPack   bool `json:"isSeasonPack"`
	IsMultiSeason  bool `json:"isMultiSeason"`
	IsSpecial      bool `json:"isSpecial"`
	IsExtras       bool `json:"isExtras"`

	Quality      quality.Model  `json:"quality"`
	Source       string         `json:"source,omitempty"`     // normalized source, e.g. "webdl"
	Resolution   int            `json:"resolution,omitempty"` // 480, 720, 1080, 2160
	ReleaseGroup string         `json:"releaseGroup,omitempty"`
	Languages    []language.Tag `json:"languages,omitempty"`

	VideoCodec  string `json:"videoCodec,omitempty"`
	HDRFormat   string `json:"hdrFormat,omitempty"`
	AudioFormat string `json:"audioFormat,omitempty"`
}

// IsUnnumbered reports whether no episode numbering was recognized.
func (p *ParsedInfo) IsUnnumbered() bool {
	return !p.IsDaily && !p.IsSeasonPack &&
		len(p.EpisodeNumbers) == 0 && len(p.AbsoluteEpisodeNumbers) == 0
}

const sep = `[\s._\-\[\]()]`

var (
	mediaExtension = regexp.MustCompile(`(?i)\.(mkv|mp4|avi|m4v|ts|wmv|nzb|torrent)$`)
	websitePrefix  = regexp.MustCompile(`(?i)^(?:\[\s*)?www\.[a-z0-9-]+\.[a-z]{2,4}(?:\s*\])?[\s._-]*`)
	trailingTags   = regexp.MustCompile(`(?i)(?:\[(?:rartv|eztv|ettv|rarbg|tgx|vtv|publichd)\])+$`)
	animeGroup     = regexp.MustCompile(`^\[([^\]]+)\][\s._-]*`)

	separatorRun   = regexp.MustCompile(`[._]+`)
	multipleSpaces = regexp.MustCompile(`\s+`)
	titleYear      = regexp.MustCompile(`^(.+?)\s+\(?((?:19|20)\d{2})\)?$`)

	// stopToken marks where the series title ends in titles without numbering.
	stopToken = regexp.MustCompile(`(?i)` + sep + `(?:2160p|1080[pi]|720p|480p|576p|4k|uhd|web-?dl|web-?rip|web|hdtv|sdtv|pdtv|blu-?ray|bdrip|brrip|remux|dvd(?:rip)?|proper|repack|complete)(?:` + sep + `|$)`)
)

type numberingPattern struct {
	name string
	re   *regexp.Regexp
	// needsGroup restricts loose patterns to anime-style titles.
	needsGroup bool
	apply      func(g map[string]string, p *ParsedInfo) bool
}

// numberingPatterns are ordered most specific first. Every pattern captures
// the series title as "title" and the numbering tokens as "num".
var numberingPatterns = []numberingPattern{
	{
		name:  "daily",
		re:    regexp.MustCompile(`(?i)^(?P<title>.*?)` + sep + `+(?P<num>(?P<year>(?:19|20)\d{2})[\s._-](?P<month>\d{2})[\s._-](?P<day>\d{2}))(?:` + sep + `|$)`),
		apply: applyDaily,
	},
	{
		name:  "daily-short",
		re:    regexp.MustCompile(`(?i)^(?P<title>.+?)` + sep + `+(?P<num>(?P<year>\d{2})\.(?P<month>\d{2})\.(?P<day>\d{2}))(?:` + sep + `|$)`),
		apply: applyDaily,
	},
	{
		name:  "absolute",
		re:    regexp.MustCompile(`(?i)^(?P<title>.+?)[\s._]+-[\s._]+(?P<num>(?P<abs>\d{2,4})(?:-(?P<absend>\d{2,4}))?(?:v(?P<ver>\d))?)(?:` + sep + `|$)`),
		apply: applyAbsolute,
	},
	{
		name:       "absolute-bare",
		re:         regexp.MustCompile(`(?i)^(?P<title>.+?)[\s._]+(?P<num>(?P<abs>\d{2,4})(?:v(?P<ver>\d))?)(?:` + sep + `|$)`),
		needsGroup: true,
		apply:      applyAbsolute,
	},
	{
		name:  "season-episode",
		re:    regexp.MustCompile(`(?i)^(?P<title>.*?)` + sep + `*(?P<num>S(?P<season>\d{1,4})(?P<eps>(?:[\s._-]?E\d{1,4})+)(?:-E?(?P<epend>\d{1,4}))?)(?:` + sep + `|$)`),
		apply: applySeasonEpisode,
	},
	{
		name:  "season-x-episode",
		re:    regexp.MustCompile(`(?i)^(?P<title>.+?)` + sep + `+(?P<num>(?P<season>\d{1,2})x(?P<eps>\d{2,3}(?:[-x]\d{2,3})*))(?:` + sep + `|$)`),
		apply: applySeasonEpisode,
	},
	{
		name:  "season-episode-spelled",
		re:    regexp.MustCompile(`(?i)^(?P<title>.+?)` + sep + `+(?P<num>Season[\s._-]?(?P<season>\d{1,2})[\s._-]+Episode[\s._-]?(?P<eps>\d{1,3}))(?:` + sep + `|$)`),
		apply: applySeasonEpisode,
	},
	{
		name:  "multi-season",
		re:    regexp.MustCompile(`(?i)^(?P<title>.+?)` + sep + `+(?P<num>S(?P<season>\d{1,2})-S?(?P<endseason>\d{1,2}))(?:` + sep + `|$)`),
		apply: applySeasonPack,
	},
	{
		name:  "season-pack",
		re:    regexp.MustCompile(`(?i)^(?P<title>.+?)` + sep + `+(?P<num>S(?P<season>\d{1,4}))(?:` + sep + `|$)`),
		apply: applySeasonPack,
	},
	{
		name:  "season-pack-spelled",
		re:    regexp.MustCompile(`(?i)^(?P<title>.+?)` + sep + `+(?P<num>Season[\s._-]?(?P<season>\d{1,2}))(?:` + sep + `|$)`),
		apply: applySeasonPack,
	},
}

type numberingMatch struct {
	parsed   ParsedInfo
	title    string
	rest     string
	consumed int
}

// Parse parses a release title. It is a total function: any input, including
// the empty string, yields a ParsedInfo.
func Parse(title string) ParsedInfo {
	parsed := ParsedInfo{
		ReleaseTitle: title,
		Quality:      quality.Model{Quality: quality.Unknown, Revision: quality.DefaultRevision},
	}

	name := strings.TrimSpace(title)
	name = mediaExtension.ReplaceAllString(name, "")
	name = websitePrefix.ReplaceAllString(name, "")
	name = trailingTags.ReplaceAllString(name, "")

	var group string
	if m := animeGroup.FindStringSubmatch(name); m != nil {
		group = strings.TrimSpace(m[1])
		name = name[len(m[0]):]
	}

	var rest string
	if best, ok := matchNumbering(name, group != ""); ok {
		parsed.Mode = best.parsed.Mode
		parsed.SeasonNumber = best.parsed.SeasonNumber
		parsed.EndSeasonNumber = best.parsed.EndSeasonNumber
		parsed.EpisodeNumbers = best.parsed.EpisodeNumbers
		parsed.AbsoluteEpisodeNumbers = best.parsed.AbsoluteEpisodeNumbers
		parsed.AirDate = best.parsed.AirDate
		parsed.IsDaily = best.parsed.IsDaily
		parsed.IsSeasonPack = best.parsed.IsSeasonPack
		parsed.IsMultiSeason = best.parsed.IsMultiSeason
		parsed.IsMultiEpisode = len(parsed.EpisodeNumbers) > 1 || len(parsed.AbsoluteEpisodeNumbers) > 1
		parsed.Quality.Revision = best.parsed.Quality.Revision
		parsed.SeriesTitle, parsed.Year = cleanSeriesTitle(best.title)
		rest = best.rest
	} else if loc := stopToken.FindStringIndex(name); loc != nil {
		parsed.SeriesTitle, parsed.Year = cleanSeriesTitle(name[:loc[0]])
		rest = name[loc[0]:]
	} else {
		// Nothing follows the title, so rest stays empty and title words
		// never set quality or language.
		parsed.SeriesTitle, parsed.Year = cleanSeriesTitle(name)
	}

	if parsed.Mode == NumberingStandard && parsed.SeasonNumber == 0 && !parsed.IsUnnumbered() {
		parsed.IsSpecial = true
	}

	parseQualityInfo(rest, &parsed)
	parsed.ReleaseGroup = parseReleaseGroup(name)
	if parsed.ReleaseGroup == "" {
		parsed.ReleaseGroup = group
	}
	tags := stripReleaseGroup(rest, parsed.ReleaseGroup)
	parsed.Languages = parseLanguages(tags)
	if specialPattern.MatchString(tags) {
		parsed.IsSpecial = true
	}
	if extrasPattern.MatchString(tags) {
		parsed.IsExtras = true
	}

	return parsed
}

// matchNumbering runs every numbering pattern and keeps the one that
// consumed the most characters; earlier patterns win ties.
func matchNumbering(name string, hasGroup bool) (numberingMatch, bool) {
	var best numberingMatch
	found := false

	for _, pattern := range numberingPatterns {
		if pattern.needsGroup && !hasGroup {
			continue
		}
		loc := pattern.re.FindStringSubmatchIndex(name)
		if loc == nil {
			continue
		}
		groups := make(map[string]string)
		var numEnd int
		for i, groupName := range pattern.re.SubexpNames() {
			if groupName == "" || loc[2*i] < 0 {
				continue
			}
			groups[groupName] = name[loc[2*i]:loc[2*i+1]]
			if groupName == "num" {
				numEnd = loc[2*i+1]
			}
		}

		candidate := numberingMatch{
			parsed: ParsedInfo{Quality: quality.Model{Revision: quality.DefaultRevision}},
			title:  groups["title"],
		}
		consumed := len(groups["num"])
		if !pattern.apply(groups, &candidate.parsed) {
			continue
		}
		// apply may give back a trailing part of the numbering token.
		numEnd -= consumed - len(groups["num"])
		candidate.rest = name[numEnd:]
		candidate.consumed = len(groups["num"])

		if !found || candidate.consumed > best.consumed {
			best = candidate
			found = true
		}
	}

	return best, found
}

func applyDaily(g map[string]string, p *ParsedInfo) bool {
	year, _ := strconv.Atoi(g["year"])
	month, _ := strconv.Atoi(g["month"])
	day, _ := strconv.Atoi(g["day"])
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != time.Month(month) {
		return false
	}
	p.Mode = NumberingDaily
	p.IsDaily = true
	p.AirDate = date
	return true
}

func applyAbsolute(g map[string]string, p *ParsedInfo) bool {
	start, err := strconv.Atoi(g["abs"])
	if err != nil || looksLikeYear(g["abs"]) {
		return false
	}
	end := start
	if g["absend"] != "" {
		end, _ = strconv.Atoi(g["absend"])
	}
	p.Mode = NumberingAbsolute
	p.AbsoluteEpisodeNumbers = expandRange(start, end)
	if v, err := strconv.Atoi(g["ver"]); err == nil && v > 1 {
		p.Quality.Revision.Version = v
	}
	return true
}

var episodeNumber = regexp.MustCompile(`\d{1,4}`)

// maxEpisodeSpan is the widest episode range a single release may name.
const maxEpisodeSpan = 50

func applySeasonEpisode(g map[string]string, p *ParsedInfo) bool {
	season, err := strconv.Atoi(g["season"])
	if err != nil {
		return false
	}
	var numbers []int
	for _, token := range episodeNumber.FindAllString(g["eps"], -1) {
		n, _ := strconv.Atoi(token)
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		return false
	}
	if g["epend"] != "" {
		n, _ := strconv.Atoi(g["epend"])
		last := numbers[len(numbers)-1]
		if n > last && n-numbers[0] <= maxEpisodeSpan {
			numbers = append(numbers, n)
		} else {
			// Not a range end, e.g. the 1080 of "S01E05-1080.HDTV". Leave it
			// for the attribute passes.
			g["num"] = g["num"][:strings.LastIndex(g["num"], "-")]
		}
	}
	p.Mode = NumberingStandard
	p.SeasonNumber = season
	p.EpisodeNumbers = expandRange(numbers[0], numbers[len(numbers)-1])
	return true
}

func applySeasonPack(g map[string]string, p *ParsedInfo) bool {
	season, err := strconv.Atoi(g["season"])
	if err != nil || looksLikeYear(g["season"]) {
		return false
	}
	p.Mode = NumberingStandard
	p.SeasonNumber = season
	p.IsSeasonPack = true
	if g["endseason"] != "" {
		end, _ := strconv.Atoi(g["endseason"])
		if end <= season {
			return false
		}
		p.EndSeasonNumber = end
		p.IsMultiSeason = true
	}
	return true
}

func looksLikeYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	n, _ := strconv.Atoi(s)
	return n >= 1900 && n <= 2099
}

// expandRange returns start..end inclusive. Implausible ranges keep only the
// two endpoints.
func expandRange(start, end int) []int {
	if end <= start {
		return []int{start}
	}
	if end-start > 50 {
		return []int{start, end}
	}
	numbers := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		numbers = append(numbers, n)
	}
	return numbers
}

// cleanSeriesTitle replaces separators with spaces and splits off a trailing year.
func cleanSeriesTitle(raw string) (string, int) {
	cleaned := separatorRun.ReplaceAllString(raw, " ")
	cleaned = multipleSpaces.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(cleaned, " -[]")

	if m := titleYear.FindStringSubmatch(cleaned); m != nil {
		year, _ := strconv.Atoi(m[2])
		return strings.Trim(m[1], " -"), year
	}
	return cleaned, 0
}
