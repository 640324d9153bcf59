package cluster

import (
	"fmt"

	"github.com/kozaktomas/photo-grouper/internal/constants"
)

// Zone is the band of the distance axis a score falls into.
type Zone int

const (
	ZoneAccept    Zone = iota // same person, no questions asked
	ZoneAmbiguous             // a human has to decide
	ZoneReject                // different person
)

func (z Zone) String() string {
	switch z {
	case ZoneAccept:
		return "accept"
	case ZoneAmbiguous:
		return "ambiguous"
	case ZoneReject:
		return "reject"
	default:
		return fmt.Sprintf("zone(%d)", int(z))
	}
}

// Thresholds splits the distance axis into three zones:
// d < Accept, Accept <= d < Reject, and d >= Reject.
type Thresholds struct {
	Accept float64
	Reject float64
}

// DefaultThresholds returns the 0.4 / 0.6 split tuned for ArcFace cosine distance.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Accept: constants.DefaultAcceptThreshold,
		Reject: constants.DefaultRejectThreshold,
	}
}

// Zone classifies a distance. NaN never compares below a threshold, so it lands
// in the reject zone.
func (t Thresholds) Zone(d float64) Zone {
	switch {
	case d < t.Accept:
		return ZoneAccept
	case d < t.Reject:
		return ZoneAmbiguous
	default:
		return ZoneReject
	}
}
