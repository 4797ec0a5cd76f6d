package lottery

import (
	"testing"
	"time"
)

func TestSpeedProfileTightensTowardBubble(t *testing.T) {
	t.Parallel()

	cases := []struct {
		remaining, target int
		wantNumbers       int
		wantDelay         time.Duration
	}{
		{50, 2, 5, 5 * time.Second},
		{22, 2, 5, 5 * time.Second},
		{21, 2, 3, 10 * time.Second},
		{12, 2, 3, 10 * time.Second},
		{11, 2, 2, 15 * time.Second},
		{7, 2, 2, 15 * time.Second},
		{6, 2, 1, 20 * time.Second},
		{4, 2, 1, 20 * time.Second},
		{3, 2, 1, 30 * time.Second}, // bubble
		{2, 1, 1, 30 * time.Second}, // bubble
	}

	for _, tc := range cases {
		p := speedProfile(tc.remaining, tc.target)
		if p.Numbers != tc.wantNumbers || p.Delay != tc.wantDelay {
			t.Errorf("speedProfile(%d, %d) = {%d, %v}, want {%d, %v}",
				tc.remaining, tc.target, p.Numbers, p.Delay, tc.wantNumbers, tc.wantDelay)
		}
	}
}

func TestSpeedProfileNeverDrawsPastGap(t *testing.T) {
	t.Parallel()

	for target := 1; target <= 10; target++ {
		for remaining := target + 1; remaining <= 100; remaining++ {
			p := speedProfile(remaining, target)
			if gap := remaining - target; p.Numbers > gap {
				t.Fatalf("speedProfile(%d, %d) draws %d numbers, more than gap %d",
					remaining, target, p.Numbers, gap)
			}
			if p.Numbers < 1 {
				t.Fatalf("speedProfile(%d, %d) draws no numbers", remaining, target)
			}
		}
	}
}
