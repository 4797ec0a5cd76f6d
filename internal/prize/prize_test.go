package prize

import (
	"testing"
	"time"

	"github.com/lox/elimdraw/internal/vrf"
)

func TestTierBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		players int
		wantMax int64
	}{
		{2, 20000},
		{10, 20000},
		{11, 40000},
		{20, 40000},
		{30, 60000},
		{40, 80000},
		{50, 100000},
		{120, 100000},
	}

	for _, tc := range cases {
		tier := TierFor(tc.players)
		if tier.Max != tc.wantMax {
			t.Errorf("TierFor(%d).Max = %d, want %d", tc.players, tier.Max, tc.wantMax)
		}
		if tier.Min != 10000 {
			t.Errorf("TierFor(%d).Min = %d, want fixed 10000", tc.players, tier.Min)
		}
	}
}

func TestAllocateWithinBand(t *testing.T) {
	t.Parallel()

	at := time.Unix(1700000000, 0)
	for players := 2; players <= 60; players += 7 {
		alloc := Allocate("game-x", players, at)
		tier := TierFor(players)
		if alloc.Amount < tier.Min || alloc.Amount > tier.Max {
			t.Errorf("Allocate(%d players) = %d, outside [%d, %d]",
				players, alloc.Amount, tier.Min, tier.Max)
		}
	}
}

func TestAllocateProofVerifies(t *testing.T) {
	t.Parallel()

	at := time.Unix(1700000000, 0)
	alloc := Allocate("game-x", 10, at)

	r := vrf.Generate(alloc.Seed, at)
	if r.Proof != alloc.Proof {
		t.Fatal("allocation proof is not re-derivable from its seed")
	}
	if !vrf.Verify(r) {
		t.Fatal("allocation proof does not verify")
	}
}

func TestSplitNeverOverpays(t *testing.T) {
	t.Parallel()

	cases := []struct {
		total     int64
		survivors int
		want      int64
	}{
		{10000, 3, 3333},
		{10000, 1, 10000},
		{99999, 2, 49999},
		{5, 10, 0},
		{10000, 0, 0},
	}

	for _, tc := range cases {
		got := Split(tc.total, tc.survivors)
		if got != tc.want {
			t.Errorf("Split(%d, %d) = %d, want %d", tc.total, tc.survivors, got, tc.want)
		}
		if tc.survivors > 0 && got*int64(tc.survivors) > tc.total {
			t.Errorf("Split(%d, %d) pays out %d total, more than the pool",
				tc.total, tc.survivors, got*int64(tc.survivors))
		}
	}
}
