package quality

import (
	"strings"
)

// sourceMapping maps parsed source strings to quality source identifiers.
// Keys are lowercase for case-insensitive matching.
var sourceMapping = map[string]string{
	"bluray":  SourceBluray,
	"blu-ray": SourceBluray,
	"bdrip":   SourceBluray,
	"brrip":   SourceBluray,
	"bdremux": SourceRemux,
	"remux":   SourceRemux,
	"web-dl":  SourceWebDL,
	"webdl":   SourceWebDL,
	"webrip":  SourceWebRip,
	"web":     SourceWebDL, // Assume WEB-DL if just "WEB"
	"hdtv":    SourceTV,
	"sdtv":    SourceTV,
	"pdtv":    SourceTV,
	"dsr":     SourceTV,
	"dvdrip":  SourceDVD,
	"dvd-r":   SourceDVD,
	"dvd":     SourceDVD,
}

// NormalizeSource converts a parsed source string to a quality source identifier.
func NormalizeSource(source string) string {
	lower := strings.ToLower(source)
	if normalized, ok := sourceMapping[lower]; ok {
		return normalized
	}
	if strings.Contains(lower, "remux") {
		return SourceRemux
	}
	if strings.Contains(lower, "bluray") || strings.Contains(lower, "blu-ray") {
		return SourceBluray
	}
	if strings.Contains(lower, "web") {
		if strings.Contains(lower, "rip") {
			return SourceWebRip
		}
		return SourceWebDL
	}
	if strings.Contains(lower, "hdtv") || strings.Contains(lower, "tv") {
		return SourceTV
	}
	if strings.Contains(lower, "dvd") {
		return SourceDVD
	}
	return ""
}

// Match resolves a normalized source and a resolution to a quality tier.
// It never fails: when neither is known the Unknown tier is returned.
func Match(source string, resolution int) Quality {
	if source != "" && resolution > 0 {
		if q, ok := matchExact(source, resolution); ok {
			return q
		}
	}

	switch source {
	case SourceRemux:
		if resolution >= 2160 {
			return mustGet(19)
		}
		return mustGet(14)
	case SourceDVD:
		return mustGet(2)
	case SourceTV:
		if resolution == 0 || resolution < 720 {
			return mustGet(1)
		}
	case SourceWebDL:
		if resolution == 0 {
			return mustGet(4)
		}
	case SourceWebRip:
		if resolution == 0 {
			return mustGet(3)
		}
	case SourceBluray:
		if resolution == 0 {
			return mustGet(9)
		}
	}

	// Resolution without a recognizable source is treated as a TV capture.
	switch {
	case resolution >= 2160:
		return mustGet(15)
	case resolution >= 1080:
		return mustGet(10)
	case resolution >= 720:
		return mustGet(6)
	case resolution > 0:
		return mustGet(1)
	}

	return Unknown
}

func matchExact(source string, resolution int) (Quality, bool) {
	for _, q := range PredefinedQualities {
		if q.Source == source && q.Resolution == resolution {
			return q, true
		}
	}
	return Quality{}, false
}

func mustGet(id int) Quality {
	q, _ := GetQualityByID(id)
	return q
}
