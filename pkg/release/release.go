// Package release parses free-form tracker release titles into a
// capability-shaped sketch: Dolby Vision profile, FEL flag, Atmos flag,
// resolution, title and year. This is the Capability Sketch producer
// described for the upgrade classification pipeline: the sketch is
// transient and used only for comparison against a library's stored
// Capability Record, never persisted as-is.
package release

import "strings"

// DVProfile identifies a Dolby Vision encoding variant. The zero value
// means "no Dolby Vision detected".
type DVProfile string

const (
	DVProfileNone DVProfile = ""
	DVProfile5    DVProfile = "5"
	DVProfile7    DVProfile = "7"
	DVProfile8    DVProfile = "8"
)

// Resolution represents the video resolution parsed from a release title.
type Resolution int

const (
	ResolutionUnknown Resolution = iota
	Resolution480p
	Resolution720p
	Resolution1080p
	Resolution2160p
)

// unknownStr is the string representation for unknown values.
const unknownStr = "unknown"

func (r Resolution) String() string {
	switch r {
	case Resolution480p:
		return "480p"
	case Resolution720p:
		return "720p"
	case Resolution1080p:
		return "1080p"
	case Resolution2160p:
		return "2160p"
	default:
		return unknownStr
	}
}

// Rank returns the ordinal used for strict upgrade comparisons:
// SD < 720 < 1080 < 2160. The table has no 4320p/8K entry; such
// titles parse as ResolutionUnknown and rank 0.
func (r Resolution) Rank() int {
	switch r {
	case Resolution480p:
		return 1
	case Resolution720p:
		return 2
	case Resolution1080p:
		return 3
	case Resolution2160p:
		return 4
	default:
		return 0
	}
}

// Source represents the media source type of a release.
type Source int

const (
	SourceUnknown Source = iota
	SourceBluRay
	SourceWEBDL
	SourceWEBRip
	SourceHDTV
	SourceCAM
	SourceTelesync
)

func (s Source) String() string {
	switch s {
	case SourceBluRay:
		return "bluray"
	case SourceWEBDL:
		return "webdl"
	case SourceWEBRip:
		return "webrip"
	case SourceHDTV:
		return "hdtv"
	case SourceCAM:
		return "cam"
	case SourceTelesync:
		return "telesync"
	default:
		return unknownStr
	}
}

// ResolutionFromString maps a canonical resolution string (as stored
// on a Capability Record) to the same Resolution enum the parser
// produces, so the classifier can compare a stored record against a
// parsed sketch on equal footing.
func ResolutionFromString(s string) Resolution {
	switch strings.ToLower(s) {
	case "2160p", "4k", "uhd":
		return Resolution2160p
	case "1080p", "fhd":
		return Resolution1080p
	case "720p", "hd":
		return Resolution720p
	case "480p", "sd":
		return Resolution480p
	default:
		return ResolutionUnknown
	}
}

// Info is the capability sketch parsed from a release title. Several
// fields may be zero/unknown.
type Info struct {
	Title      string
	Year       int
	Resolution Resolution
	Source     Source

	// DVProfile is the Dolby Vision profile detected in the title, or
	// DVProfileNone if no DV token was found.
	DVProfile DVProfile
	// IsFEL is true when the title carries an explicit full-enhancement-
	// layer indicator (FEL, BL+EL, BL EL); no profile 7 token is needed,
	// and such a title also parses as DVProfile7.
	IsFEL bool
	// HasAtmos is true when an Atmos token was found.
	HasAtmos bool
}
