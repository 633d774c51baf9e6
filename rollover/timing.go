package rollover

import (
	"github.com/sirupsen/logrus"

	"github.com/dskm-project/dskm/model"
)

// minimalPrepublish is the prepublish interval of a successor whose creation was late
const minimalPrepublish = int64(60)

// TimingPolicy converts the day granular intervals of a zone into the milestones of a new key
type TimingPolicy struct {
	Now    int64
	Params model.KeyTimings
	Logger *logrus.Entry
}

// Schedule returns the milestones of a new key of the key type. If incumbentInactive is set,
// the new key is the successor of a key going inactive at that time and becomes active then.
// A successor created too late gets a prepublish interval of one minute.
func (p *TimingPolicy) Schedule(kt model.KeyType, incumbentInactive int64) model.Timing {
	params := p.Params.For(kt)

	t := model.Timing{Publish: p.Now, Active: p.Now}

	if incumbentInactive != 0 {
		t.Active = incumbentInactive

		if t.Active < p.Now+minimalPrepublish {
			t.Active = p.Now + minimalPrepublish

			if p.Logger != nil {
				p.Logger.Warnf("Failed timely key rollover: %s becomes active at %s",
					kt, model.FormatTimestamp(t.Active))
			}
		}
	}

	t.Inactive = t.Active + int64(params.ActiveToInactive)*model.SecondsPerDay
	t.Delete = t.Inactive + int64(params.InactiveToDelete)*model.SecondsPerDay

	return t
}
