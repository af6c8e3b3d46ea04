package classify

import (
	"testing"

	"github.com/vmunix/felscan/internal/capability"
	"github.com/vmunix/felscan/internal/config"
	"github.com/vmunix/felscan/pkg/release"
)

func allowAllPolicy() config.UpgradePolicy {
	return config.UpgradePolicy{
		NotifyFEL:                true,
		NotifyFELFromP5:          true,
		NotifyFELFromHDR:         true,
		NotifyFELDuplicates:      false,
		NotifyDV:                 true,
		NotifyDVFromHDR:          true,
		NotifyDVProfileUpgrades:  true,
		NotifyAtmos:              true,
		NotifyAtmosWithDVUpgrade: true,
		NotifyAtmosOnlyIfNoAtmos: true,
		NotifyResolution:         true,
		NotifyResolutionOnlyUp:   true,
		NotifyOnlyLibraryMovies:  true,
		NotifyExpireHours:        24,
	}
}

func TestClassify_ExactDuplicate(t *testing.T) {
	cur := Current{DVProfile: capability.DVProfile5, Resolution: release.Resolution2160p}
	cand := Candidate{DVProfile: release.DVProfile5, Resolution: release.Resolution2160p}

	notify, reason := Classify(cur, cand, allowAllPolicy())
	if notify {
		t.Error("expected notify=false for exact duplicate")
	}
	if reason != "already have this exact quality" {
		t.Errorf("reason = %q", reason)
	}
}

func TestClassify_FELFromP5(t *testing.T) {
	cur := Current{DVProfile: capability.DVProfile5}
	cand := Candidate{DVProfile: release.DVProfile7, IsFEL: true}

	notify, reason := Classify(cur, cand, allowAllPolicy())
	if !notify || reason != "DV Pn → P7 FEL" {
		t.Errorf("notify=%v reason=%q, want true/\"DV Pn → P7 FEL\"", notify, reason)
	}
}

func TestClassify_FELDuplicates_Disabled(t *testing.T) {
	cur := Current{DVProfile: capability.DVProfile7, DVFEL: true}
	cand := Candidate{DVProfile: release.DVProfile7, IsFEL: true}

	notify, reason := Classify(cur, cand, allowAllPolicy())
	if notify {
		t.Error("FEL-to-FEL must not notify when notify_fel_duplicates=false")
	}
	if reason != "already have P7 FEL" {
		t.Errorf("reason = %q", reason)
	}
}

func TestClassify_FELFromHDR(t *testing.T) {
	cur := Current{}
	cand := Candidate{DVProfile: release.DVProfile7, IsFEL: true}

	notify, reason := Classify(cur, cand, allowAllPolicy())
	if !notify || reason != "HDR/SDR → P7 FEL" {
		t.Errorf("notify=%v reason=%q", notify, reason)
	}
}

func TestClassify_DVAcquisition(t *testing.T) {
	cur := Current{}
	cand := Candidate{DVProfile: release.DVProfile5}

	notify, reason := Classify(cur, cand, allowAllPolicy())
	if !notify || reason != "no DV → DV Pn" {
		t.Errorf("notify=%v reason=%q", notify, reason)
	}
}

func TestClassify_DVProfileUpgrade(t *testing.T) {
	cur := Current{DVProfile: capability.DVProfile5}
	cand := Candidate{DVProfile: release.DVProfile8}

	notify, reason := Classify(cur, cand, allowAllPolicy())
	if !notify || reason != "DV Pn → Pm" {
		t.Errorf("notify=%v reason=%q", notify, reason)
	}
}

func TestClassify_AtmosComboUpgrade(t *testing.T) {
	cur := Current{DVProfile: capability.DVProfile5}
	cand := Candidate{DVProfile: release.DVProfile7, HasAtmos: true}
	// Rule 4 (DV profile upgrade) would match first; switch it off so
	// the Atmos rule's combo branch is the one exercised.
	policy := allowAllPolicy()
	policy.NotifyDVProfileUpgrades = false

	notify, reason := Classify(cur, cand, policy)
	if !notify || reason != "combo upgrade DV+Atmos" {
		t.Errorf("notify=%v reason=%q", notify, reason)
	}
}

func TestClassify_AtmosStandalone(t *testing.T) {
	cur := Current{}
	cand := Candidate{HasAtmos: true}

	notify, reason := Classify(cur, cand, allowAllPolicy())
	if !notify || reason != "added Atmos" {
		t.Errorf("notify=%v reason=%q", notify, reason)
	}
}

func TestClassify_ResolutionUpgrade(t *testing.T) {
	cur := Current{Resolution: release.Resolution1080p}
	cand := Candidate{Resolution: release.Resolution2160p}

	notify, reason := Classify(cur, cand, allowAllPolicy())
	if !notify || reason != "1080p → 2160p" {
		t.Errorf("notify=%v reason=%q", notify, reason)
	}
}

func TestClassify_ResolutionTie_DoesNotFire(t *testing.T) {
	cur := Current{Resolution: release.Resolution1080p}
	cand := Candidate{Resolution: release.Resolution1080p}

	notify, reason := Classify(cur, cand, allowAllPolicy())
	if notify {
		t.Errorf("resolution tie must not notify, got reason=%q", reason)
	}
}

func TestClassify_Fallback(t *testing.T) {
	policy := config.UpgradePolicy{} // everything disabled
	cur := Current{}
	cand := Candidate{Resolution: release.Resolution2160p}

	notify, reason := Classify(cur, cand, policy)
	if notify || reason != "not an upgrade per policy" {
		t.Errorf("notify=%v reason=%q", notify, reason)
	}
}

func TestClassify_IdempotentOnSelf(t *testing.T) {
	policies := []config.UpgradePolicy{allowAllPolicy(), {}}
	cur := Current{DVProfile: capability.DVProfile7, DVFEL: true, HasAtmos: true, Resolution: release.Resolution2160p}
	cand := Candidate{DVProfile: release.DVProfile7, IsFEL: true, HasAtmos: true, Resolution: release.Resolution2160p}

	for _, p := range policies {
		notify, reason := Classify(cur, cand, p)
		if notify || reason != "already have this exact quality" {
			t.Errorf("self-classification must always report the duplicate rule, got notify=%v reason=%q", notify, reason)
		}
	}
}
