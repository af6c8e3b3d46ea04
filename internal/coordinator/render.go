package coordinator

import (
	"fmt"

	"github.com/vmunix/felscan/internal/approval"
	"github.com/vmunix/felscan/internal/classify"
)

// RenderProposal formats a Current/Candidate pair into the plain-text
// blocks approval.RenderProposal expects, keeping the typed comparison
// values (classify.Current/classify.Candidate) out of the approval
// package, which knows nothing about capability or release sketches.
func RenderProposal(title string, year int, current classify.Current, candidate classify.Candidate, reason, targetFolder string) string {
	return approval.RenderProposal(title, year, describeCurrent(current), describeCandidate(candidate), reason, targetFolder)
}

func describeCurrent(c classify.Current) string {
	if c.DVProfile == "" && !c.HasAtmos && c.Resolution == 0 {
		return "nothing on file"
	}
	dv := "no DV"
	if c.DVProfile != "" {
		dv = "DV P" + string(c.DVProfile)
		if c.DVFEL {
			dv += " FEL"
		}
	}
	atmos := ""
	if c.HasAtmos {
		atmos = ", Atmos"
	}
	return fmt.Sprintf("%s, %s%s", dv, c.Resolution.String(), atmos)
}

func describeCandidate(c classify.Candidate) string {
	dv := "no DV"
	if c.DVProfile != "" {
		dv = "DV P" + string(c.DVProfile)
		if c.IsFEL {
			dv += " FEL"
		}
	}
	atmos := ""
	if c.HasAtmos {
		atmos = ", Atmos"
	}
	return fmt.Sprintf("%s, %s%s", dv, c.Resolution.String(), atmos)
}
