package client

import (
	"fmt"
	"time"
)

// TimeRange renders the block bounds as 15:04–15:04, marking an end on a later day.
func (b Block) TimeRange() string {
	out := b.Start.Format("15:04") + "–" + b.End.Format("15:04")

	sy, sm, sd := b.Start.Date()
	ey, em, ed := b.End.In(b.Start.Location()).Date()
	startDay := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	endDay := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	if days := int(endDay.Sub(startDay).Hours() / 24); days > 0 {
		out += fmt.Sprintf(" +%dd", days)
	}
	return out
}

// Duration renders the block length as 1h30m, 2h or 45m.
func (b Block) Duration() string {
	d := b.End.Sub(b.Start).Round(time.Minute)
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%dm", h, m)
	}
}
