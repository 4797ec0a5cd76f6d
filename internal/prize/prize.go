// Package prize derives randomized prize pools bounded by player-count tiers.
package prize

import (
	"fmt"
	"time"

	"github.com/lox/elimdraw/internal/vrf"
)

// Tier bounds the prize band for games up to MaxPlayers participants.
type Tier struct {
	MaxPlayers int
	Min        int64
	Max        int64
}

// Bigger fields earn bigger prize ceilings; the floor stays fixed so even a
// small game pays something worth surviving for.
var tiers = []Tier{
	{MaxPlayers: 10, Min: 10000, Max: 20000},
	{MaxPlayers: 20, Min: 10000, Max: 40000},
	{MaxPlayers: 30, Min: 10000, Max: 60000},
	{MaxPlayers: 40, Min: 10000, Max: 80000},
	{MaxPlayers: 50, Min: 10000, Max: 100000},
}

// Allocation is a prize amount together with the proof of its derivation.
type Allocation struct {
	Amount int64  `json:"amount"`
	Seed   string `json:"seed"`
	Proof  string `json:"proof"`
}

// TierFor returns the prize band for the given player count. Counts beyond
// the largest tier use the top band.
func TierFor(playerCount int) Tier {
	for _, t := range tiers {
		if playerCount <= t.MaxPlayers {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// Allocate draws a prize amount within the tier band for playerCount. The
// seed mixes the game ID with wall-clock time, which prevents precomputing
// the prize before the game exists but not post-hoc collusion by whoever
// controls the clock; that tradeoff is accepted since the elimination draws
// themselves never bypass verifiable randomness.
func Allocate(gameID string, playerCount int, at time.Time) Allocation {
	tier := TierFor(playerCount)
	seed := fmt.Sprintf("%s:%d", gameID, at.UnixNano())
	r := vrf.Generate(seed, at)
	return Allocation{
		Amount: int64(r.Int(int(tier.Min), int(tier.Max))),
		Seed:   seed,
		Proof:  r.Proof,
	}
}

// Split divides the prize evenly among survivors, rounding down. The
// remainder is intentionally not redistributed.
func Split(total int64, survivors int) int64 {
	if survivors <= 0 {
		return 0
	}
	return total / int64(survivors)
}
