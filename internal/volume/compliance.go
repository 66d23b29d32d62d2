package volume

import (
	"sort"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

// ComplianceStatus is a display classification of a muscle's projected week.
type ComplianceStatus string

const (
	OverMAV           ComplianceStatus = "OVER_MAV"
	AtMAV             ComplianceStatus = "AT_MAV"
	ApproachingMAV    ComplianceStatus = "APPROACHING_MAV"
	OverTarget        ComplianceStatus = "OVER_TARGET"
	OnTarget          ComplianceStatus = "ON_TARGET"
	ApproachingTarget ComplianceStatus = "APPROACHING_TARGET"
	UnderMEV          ComplianceStatus = "UNDER_MEV"
)

// approachMargin is how many sets below MAV still counts as approaching it.
const approachMargin = 2

var severity = map[ComplianceStatus]int{
	OverMAV:           7,
	AtMAV:             6,
	ApproachingMAV:    5,
	OverTarget:        4,
	OnTarget:          3,
	ApproachingTarget: 2,
	UnderMEV:          1,
}

// Severity orders statuses for display; higher is more severe.
func (s ComplianceStatus) Severity() int {
	return severity[s]
}

type Compliance struct {
	Muscle         models.Muscle    `json:"muscle" yaml:"muscle"`
	Prior          float64          `json:"prior" yaml:"prior"`
	Prescribed     float64          `json:"prescribed" yaml:"prescribed"`
	ProjectedTotal float64          `json:"projected_total" yaml:"projected_total"`
	Target         float64          `json:"target" yaml:"target"`
	Status         ComplianceStatus `json:"status" yaml:"status"`
}

// Classify projects prior direct sets plus today's prescription against the
// target and landmarks. The most severe matching status wins.
func Classify(prior, prescribed, target float64, lm models.Landmark) ComplianceStatus {
	projected := prior + prescribed
	mav := float64(lm.MAV)
	switch {
	case projected > mav:
		return OverMAV
	case projected == mav:
		return AtMAV
	case projected >= mav-approachMargin:
		return ApproachingMAV
	case projected > target:
		return OverTarget
	case projected == target:
		return OnTarget
	case projected >= float64(lm.MEV):
		return ApproachingTarget
	default:
		return UnderMEV
	}
}

// Report classifies every muscle with a target, most severe first.
func Report(prior, prescribed, targets map[models.Muscle]float64, lms *Landmarks) []Compliance {
	out := make([]Compliance, 0, len(targets))
	for m, target := range targets {
		c := Compliance{
			Muscle:     m,
			Prior:      prior[m],
			Prescribed: prescribed[m],
			Target:     target,
		}
		c.ProjectedTotal = c.Prior + c.Prescribed
		c.Status = Classify(c.Prior, c.Prescribed, target, lms.Lookup(m))
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].Status.Severity(), out[j].Status.Severity()
		if si != sj {
			return si > sj
		}
		return out[i].Muscle < out[j].Muscle
	})
	return out
}
