package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"

	"github.com/slipstream/releasedecider/internal/library/quality"
)

type tokenPattern struct {
	value string
	re    *regexp.Regexp
}

// token builds a case-insensitive pattern bounded by separators.
func token(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|` + sep + `)(?:` + expr + `)(?:` + sep + `|$)`)
}

var (
	// Resolution patterns (order matters - higher resolutions first)
	resolutionPatterns = []struct {
		resolution int
		re         *regexp.Regexp
	}{
		{2160, token(`2160p|4k|uhd`)},
		{1080, token(`1080[pi]`)},
		{720, token(`720p`)},
		{480, token(`480[pi]|576[pi]`)},
	}

	// Source patterns (order matters - remux before bluray, webrip before web)
	sourcePatterns = []tokenPattern{
		{quality.SourceRemux, token(`(?:bd)?remux`)},
		{quality.SourceBluray, token(`blu-?ray|bdrip|brrip|bdmv|bd25|bd50`)},
		{quality.SourceWebRip, token(`web-?rip|webrip`)},
		{quality.SourceWebDL, token(`web-?dl|webdl|web`)},
		{quality.SourceTV, token(`hdtv|sdtv|pdtv|dsr|tvrip`)},
		{quality.SourceDVD, token(`dvd(?:rip|r|5|9)?|ntsc|pal`)},
	}

	properPattern = token(`proper|rerip`)
	repackPattern = token(`repack`)
	versionTag    = token(`v(\d)`)
	realPattern   = regexp.MustCompile(`(?:^|` + sep + `)REAL(?:` + sep + `|$)`)

	// Codec patterns
	codecPatterns = []tokenPattern{
		{"x265", token(`x265|h\.?265|hevc`)},
		{"x264", token(`x264|h\.?264|avc`)},
		{"AV1", token(`av1`)},
		{"VP9", token(`vp9`)},
		{"XviD", token(`xvid`)},
		{"DivX", token(`divx`)},
		{"MPEG2", token(`mpeg-?2`)},
	}

	// HDR patterns (more specific patterns first)
	hdrPatterns = []tokenPattern{
		{"DV", token(`dolby[\.\s]?vision|dovi|dv`)},
		{"HDR10+", regexp.MustCompile(`(?i)hdr10(?:\+|plus)`)},
		{"HDR10", token(`hdr10`)},
		{"HDR", token(`hdr`)},
		{"HLG", token(`hlg`)},
	}

	// Audio patterns (more specific patterns first)
	audioPatterns = []tokenPattern{
		{"Atmos", regexp.MustCompile(`(?i)atmos`)},
		{"DTS-X", token(`dts[\.\-]?x`)},
		{"DTS-HD", regexp.MustCompile(`(?i)dts[\.\-]?hd(?:[\.\-]?ma)?`)},
		{"TrueHD", regexp.MustCompile(`(?i)truehd`)},
		{"DTS", token(`dts`)},
		{"DD+", regexp.MustCompile(`(?i)(?:ddp|dd\+|e[\.\-]?ac[\.\-]?3)`)},
		{"DD", regexp.MustCompile(`(?i)(?:dd[25]\.[01]|(?:^|[\.\s\-])ac[\.\-]?3(?:[\.\s\-]|$))`)},
		{"AAC", token(`aac(?:[25]\.[01])?`)},
		{"FLAC", token(`flac`)},
	}

	languagePatterns = []struct {
		tag language.Tag
		re  *regexp.Regexp
	}{
		{language.Make("mul"), token(`multi|dual[\s._-]?audio`)},
		{language.English, token(`english|eng`)},
		{language.French, token(`french|truefrench|vff|vfq|vostfr|fr`)},
		{language.German, token(`german|deutsch|ger`)},
		{language.Spanish, token(`spanish|castellano|latino|esp`)},
		{language.Italian, token(`italian|ita`)},
		{language.Japanese, token(`japanese|jap|jpn`)},
		{language.Korean, token(`korean|kor`)},
		{language.Russian, token(`russian|rus`)},
		{language.Portuguese, token(`portuguese|por|dublado`)},
		{language.Dutch, token(`dutch|nl`)},
		{language.Polish, token(`polish`)},
		{language.Hindi, token(`hindi`)},
		{language.Chinese, token(`chinese|chs|cht`)},
		{language.Swedish, token(`swedish|swe`)},
		{language.Danish, token(`danish`)},
		{language.Norwegian, token(`norwegian`)},
		{language.Finnish, token(`finnish`)},
	}

	specialPattern = token(`special|specials|ova|oav|ona|sp\d{1,2}`)
	extrasPattern  = token(`extras|bonus|featurettes?|behind[\s._-]the[\s._-]scenes`)

	releaseGroupPattern = regexp.MustCompile(`-([A-Za-z0-9]+)$`)
	notReleaseGroups    = map[string]bool{
		"dl": true, "rip": true, "ray": true, "hd": true, "ma": true, "x": true, "es": true,
		"sdr": true, "hdr": true, "audio": true,
	}
)

// parseQualityInfo extracts quality, revision, and attributes from remaining text.
func parseQualityInfo(text string, parsed *ParsedInfo) {
	for _, p := range resolutionPatterns {
		if p.re.MatchString(text) {
			parsed.Resolution = p.resolution
			break
		}
	}

	for _, p := range sourcePatterns {
		if p.re.MatchString(text) {
			parsed.Source = p.value
			break
		}
	}

	parsed.Quality.Quality = quality.Match(parsed.Source, parsed.Resolution)

	revision := parsed.Quality.Revision
	if revision.Version < 1 {
		revision.Version = 1
	}
	if properPattern.MatchString(text) && revision.Version < 2 {
		revision.Version = 2
	}
	if repackPattern.MatchString(text) {
		revision.IsRepack = true
		if revision.Version < 2 {
			revision.Version = 2
		}
	}
	if m := versionTag.FindStringSubmatch(text); m != nil {
		if v := int(m[1][0] - '0'); v > revision.Version {
			revision.Version = v
		}
	}
	revision.Real = len(realPattern.FindAllString(text, -1))
	parsed.Quality.Revision = revision

	parsed.VideoCodec = firstMatch(codecPatterns, text)
	parsed.HDRFormat = firstMatch(hdrPatterns, text)
	parsed.AudioFormat = firstMatch(audioPatterns, text)
}

func firstMatch(patterns []tokenPattern, text string) string {
	for _, p := range patterns {
		if p.re.MatchString(text) {
			return p.value
		}
	}
	return ""
}

// parseReleaseGroup returns the trailing hyphenated token of the title.
func parseReleaseGroup(name string) string {
	m := releaseGroupPattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return ""
	}
	if notReleaseGroups[strings.ToLower(m[1])] {
		return ""
	}
	return m[1]
}

// stripReleaseGroup removes the trailing "-group" token from text so that
// groups named like language codes are not read as languages.
func stripReleaseGroup(text, group string) string {
	if group == "" {
		return text
	}
	trimmed := strings.TrimSpace(text)
	if suffix := "-" + group; strings.HasSuffix(trimmed, suffix) {
		return trimmed[:len(trimmed)-len(suffix)]
	}
	return text
}

// parseLanguages returns the languages tagged in the text, in pattern order.
func parseLanguages(text string) []language.Tag {
	var tags []language.Tag
	for _, p := range languagePatterns {
		if p.re.MatchString(text) {
			tags = append(tags, p.tag)
		}
	}
	return tags
}
