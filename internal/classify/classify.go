// Package classify implements the Upgrade Classifier: a pure function
// mapping (current capability, candidate sketch, policy) to a notify
// decision with a stable reason string. It performs no I/O.
package classify

import (
	"github.com/vmunix/felscan/internal/capability"
	"github.com/vmunix/felscan/internal/config"
	"github.com/vmunix/felscan/pkg/release"
)

// Current is the subset of a Capability Record the classifier reads.
type Current struct {
	DVProfile  capability.DVProfile
	DVFEL      bool
	HasAtmos   bool
	Resolution release.Resolution
}

// Candidate is the subset of a Capability Sketch the classifier reads.
type Candidate struct {
	DVProfile  release.DVProfile
	IsFEL      bool
	HasAtmos   bool
	Resolution release.Resolution
}

func profileRank(p string) int {
	switch p {
	case "8":
		return 3
	case "7":
		return 2
	case "5":
		return 1
	default:
		return 0
	}
}

// Classify applies the seven-rule upgrade decision table, first
// matching rule wins.
func Classify(current Current, candidate Candidate, policy config.UpgradePolicy) (notify bool, reason string) {
	curHasDV := current.DVProfile != capability.DVProfileNone
	candHasDV := candidate.DVProfile != release.DVProfileNone

	// Rule 1: exact duplicate.
	if string(current.DVProfile) == string(candidate.DVProfile) &&
		current.DVFEL == candidate.IsFEL &&
		current.HasAtmos == candidate.HasAtmos &&
		current.Resolution == candidate.Resolution {
		return false, "already have this exact quality"
	}

	// Rule 2: candidate is FEL.
	if policy.NotifyFEL && candidate.IsFEL {
		switch {
		case current.DVFEL:
			if policy.NotifyFELDuplicates {
				return true, "DV P7 FEL → P7 FEL"
			}
			return false, "already have P7 FEL"
		case curHasDV:
			if policy.NotifyFELFromP5 {
				return true, "DV Pn → P7 FEL"
			}
		default:
			if policy.NotifyFELFromHDR {
				return true, "HDR/SDR → P7 FEL"
			}
		}
	}

	// Rule 3: DV acquisition.
	if policy.NotifyDV && candHasDV && !curHasDV {
		if policy.NotifyDVFromHDR {
			return true, "no DV → DV Pn"
		}
	}

	// Rule 4: DV profile upgrade.
	if curHasDV && candHasDV {
		curRank := profileRank(string(current.DVProfile))
		candRank := profileRank(string(candidate.DVProfile))
		if candRank > curRank && policy.NotifyDVProfileUpgrades {
			return true, "DV Pn → Pm"
		}
	}

	// Rule 5: Atmos.
	if policy.NotifyAtmos && candidate.HasAtmos && !current.HasAtmos {
		curRank := profileRank(string(current.DVProfile))
		candRank := profileRank(string(candidate.DVProfile))
		if curHasDV && candHasDV && candRank > curRank {
			if policy.NotifyAtmosWithDVUpgrade {
				return true, "combo upgrade DV+Atmos"
			}
		} else if policy.NotifyAtmosOnlyIfNoAtmos {
			return true, "added Atmos"
		}
	}

	// Rule 6: resolution upgrade.
	if policy.NotifyResolution && candidate.Resolution.Rank() > current.Resolution.Rank() {
		if policy.NotifyResolutionOnlyUp {
			return true, current.Resolution.String() + " → " + candidate.Resolution.String()
		}
	}

	// Rule 7: fallback.
	return false, "not an upgrade per policy"
}
