// Package release parses free-form tracker release titles into a
// capability sketch: Dolby Vision profile, FEL flag, Atmos flag,
// resolution, source, title and year.
package release

import (
	"regexp"
	"strconv"
	"strings"
)

// Pre-compiled regex patterns, in the same style as the rest of the
// release parser: each token family gets its own small, anchored
// pattern rather than one sprawling expression.
var (
	profile7WordRegex = regexp.MustCompile(`(?i)\bprofile\s?7\b|\bp7\b|\bprofile7\b`)
	profile58Regex    = regexp.MustCompile(`(?i)(?:profile\s?|p)([58])\b`)
	felTokenRegex     = regexp.MustCompile(`(?i)\bfel\b|\bbl\s?\+\s?el\b|\bbl\s+el\b`)
	dvTokenRegex      = regexp.MustCompile(`(?i)\bdolby\s?vision\b|\bdv\b|\bdovi\b`)
	atmosTokenRegex   = regexp.MustCompile(`(?i)\btruehd\s+atmos\b|\batmos\b`)

	res2160Regex = regexp.MustCompile(`(?i)\b2160p\b|\b4k\b|\buhd\b`)
	res1080Regex = regexp.MustCompile(`(?i)\b1080p\b|\bfhd\b`)
	res720Regex  = regexp.MustCompile(`(?i)\b720p\b|\bhd\b`)
	res480Regex  = regexp.MustCompile(`(?i)\b480p\b|\bsd\b`)

	sourceBluRayRegex = regexp.MustCompile(`(?i)\bbluray\b|\bbd\s?r\b|\bbdrip\b`)
	sourceWebDLRegex  = regexp.MustCompile(`(?i)\bweb-?dl\b`)
	sourceWebRipRegex = regexp.MustCompile(`(?i)\bwebrip\b`)
	sourceHDTVRegex   = regexp.MustCompile(`(?i)\bhdtv\b`)

	// titleYearRegex is the primary title/year split: a title followed
	// by a delimited four-digit year.
	titleYearRegex = regexp.MustCompile(`^(.+?)[.\s]+(\d{4})[.\s]`)
	// titleYearFallbackRegex handles a year trailing at the end of the
	// string with nothing after it.
	titleYearFallbackRegex = regexp.MustCompile(`^(.+?)\s+(\d{4})\s*$`)
)

// Parse extracts a capability sketch from a free-form release title.
// Rules are case-insensitive and the first matching rule wins per
// field. If no year can be found, Parse returns nil: the caller must
// treat the release as unparseable and skip it.
func Parse(title string) *Info {
	normalized := collapseSpaces(strings.NewReplacer(".", " ", "_", " ").Replace(title))

	parsedTitle, year, ok := parseTitleYear(normalized)
	if !ok {
		return nil
	}

	return &Info{
		Title:      parsedTitle,
		Year:       year,
		Resolution: parseResolution(normalized),
		Source:     parseSource(normalized),
		DVProfile:  parseDVProfile(normalized),
		IsFEL:      felTokenRegex.MatchString(normalized),
		HasAtmos:   atmosTokenRegex.MatchString(normalized),
	}
}

// parseDVProfile applies first-match-wins: explicit profile 7 tokens,
// then FEL-implies-7, then an explicit P5/P8 digit, then a bare
// "Dolby Vision"/"DV"/"DOVI" token falling back to profile 5, the
// most common consumer release encoding.
func parseDVProfile(normalized string) DVProfile {
	switch {
	case profile7WordRegex.MatchString(normalized):
		return DVProfile7
	case felTokenRegex.MatchString(normalized):
		return DVProfile7
	case profile58Regex.MatchString(normalized):
		m := profile58Regex.FindStringSubmatch(normalized)
		if m[1] == "8" {
			return DVProfile8
		}
		return DVProfile5
	case dvTokenRegex.MatchString(normalized):
		return DVProfile5
	default:
		return DVProfileNone
	}
}

func parseResolution(normalized string) Resolution {
	switch {
	case res2160Regex.MatchString(normalized):
		return Resolution2160p
	case res1080Regex.MatchString(normalized):
		return Resolution1080p
	case res720Regex.MatchString(normalized):
		return Resolution720p
	case res480Regex.MatchString(normalized):
		return Resolution480p
	default:
		return ResolutionUnknown
	}
}

func parseSource(normalized string) Source {
	switch {
	case sourceBluRayRegex.MatchString(normalized):
		return SourceBluRay
	case sourceWebDLRegex.MatchString(normalized):
		return SourceWEBDL
	case sourceWebRipRegex.MatchString(normalized):
		return SourceWEBRip
	case sourceHDTVRegex.MatchString(normalized):
		return SourceHDTV
	default:
		return SourceUnknown
	}
}

// parseTitleYear splits a normalized release title into a cleaned
// title and a year, trying the primary delimited pattern first and
// falling back to a looser trailing-year pattern.
func parseTitleYear(normalized string) (string, int, bool) {
	if m := titleYearRegex.FindStringSubmatch(normalized); len(m) == 3 {
		if year, err := strconv.Atoi(m[2]); err == nil {
			return cleanTitle(m[1]), year, true
		}
	}
	if m := titleYearFallbackRegex.FindStringSubmatch(normalized); len(m) == 3 {
		if year, err := strconv.Atoi(m[2]); err == nil {
			return cleanTitle(m[1]), year, true
		}
	}
	return "", 0, false
}

func cleanTitle(s string) string {
	return strings.TrimSpace(collapseSpaces(s))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
