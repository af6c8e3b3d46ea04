package coordinator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/vmunix/felscan/pkg/release"
)

// newRequestID derives a Pending Download's request_id: a 12-hex
// digest of the movie title, the parsed sketch, and the discovery
// instant, so two simultaneous discoveries of the same title with
// differing quality never collide.
func newRequestID(title string, sketch *release.Info, now time.Time) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%v|%v|%s|%d",
		title, sketch.Year, sketch.DVProfile, sketch.IsFEL, sketch.HasAtmos, sketch.Resolution, now.UnixNano())
	return hex.EncodeToString(h.Sum(nil))[:12]
}
