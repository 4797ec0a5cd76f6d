package lottery

import "time"

// SpeedProfile is the pacing of one elimination round: how many numbers are
// drawn and how long to wait before the next round.
type SpeedProfile struct {
	Numbers int
	Delay   time.Duration
}

// speedProfile picks the round pacing from the distance to the bubble. Far
// from the bubble rounds are fast and draw several numbers; approaching it
// they tighten for ceremony, collapsing to a single draw with the longest
// delay when the next elimination decides the winners.
func speedProfile(remaining, target int) SpeedProfile {
	gap := remaining - target

	var p SpeedProfile
	switch {
	case gap <= 1:
		p = SpeedProfile{Numbers: 1, Delay: 30 * time.Second}
	case gap < 5:
		p = SpeedProfile{Numbers: 1, Delay: 20 * time.Second}
	case gap < 10:
		p = SpeedProfile{Numbers: 2, Delay: 15 * time.Second}
	case gap < 20:
		p = SpeedProfile{Numbers: 3, Delay: 10 * time.Second}
	default:
		p = SpeedProfile{Numbers: 5, Delay: 5 * time.Second}
	}

	// Never draw more numbers than eliminations we want; a multi-hit batch
	// can still finish below target, which is accepted, but there is no
	// reason to invite it.
	if gap > 0 && p.Numbers > gap {
		p.Numbers = gap
	}
	return p
}
