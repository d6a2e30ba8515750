package game

import "sort"

// LeaderboardEntry is one player's standing by damage dealt to enemy bases
type LeaderboardEntry struct {
	PlayerID  string   `json:"playerId"`
	Team      TeamType `json:"team"`
	Damage    float64  `json:"damage"`
	Hits      int      `json:"hits"`
	Destroyed int      `json:"destroyed"`
	Rank      int      `json:"rank"`
}

// Leaderboard ranks players by total base damage. Ties go to the player
// with fewer hits, then by player ID. Not safe for concurrent use; the
// engine guards it with its own lock.
type Leaderboard struct {
	entries map[string]*LeaderboardEntry
}

// NewLeaderboard creates an empty leaderboard
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{entries: make(map[string]*LeaderboardEntry)}
}

// Record credits a hit to its player. Hits without damage are ignored.
func (lb *Leaderboard) Record(h Hit) {
	if h.PlayerID == "" || h.Damage <= 0 {
		return
	}
	e, ok := lb.entries[h.PlayerID]
	if !ok {
		// Hit.Team is the defender
		e = &LeaderboardEntry{PlayerID: h.PlayerID, Team: h.Team.Opponent()}
		lb.entries[h.PlayerID] = e
	}
	e.Damage += h.Damage
	e.Hits++
	if h.Destroyed {
		e.Destroyed++
	}
}

// RemovePlayer drops a player's entry
func (lb *Leaderboard) RemovePlayer(playerID string) {
	delete(lb.entries, playerID)
}

// Len returns the number of ranked players
func (lb *Leaderboard) Len() int {
	return len(lb.entries)
}

// Top returns the best n entries; n <= 0 returns all
func (lb *Leaderboard) Top(n int) []LeaderboardEntry {
	ranked := lb.ranked()
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Entry returns a player's entry with its current rank
func (lb *Leaderboard) Entry(playerID string) (LeaderboardEntry, bool) {
	if _, ok := lb.entries[playerID]; !ok {
		return LeaderboardEntry{}, false
	}
	for _, e := range lb.ranked() {
		if e.PlayerID == playerID {
			return e, true
		}
	}
	return LeaderboardEntry{}, false
}

// TeamDamage sums damage dealt by each team's players
func (lb *Leaderboard) TeamDamage() map[TeamType]float64 {
	out := make(map[TeamType]float64, len(Teams))
	for _, e := range lb.entries {
		out[e.Team] += e.Damage
	}
	return out
}

func (lb *Leaderboard) ranked() []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(lb.entries))
	for _, e := range lb.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Damage != b.Damage {
			return a.Damage > b.Damage
		}
		if a.Hits != b.Hits {
			return a.Hits < b.Hits
		}
		return a.PlayerID < b.PlayerID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
