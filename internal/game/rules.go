// Package game holds the turn-engine rules that are independent of
// persistence: the difficulty point table, round-robin turn derivation,
// and the end-of-game winner fold.
package game

// PointsByDifficulty maps question difficulty to the points awarded for a
// correct answer. Kept as an explicit table so balancing is a config edit.
var PointsByDifficulty = map[int]int{
	1: 10,
	2: 20,
	3: 50,
	4: 100,
	5: 150,
}

// Points returns the award for answering a question of the given difficulty
// correctly. Unknown difficulties award nothing.
func Points(difficulty int) int {
	return PointsByDifficulty[difficulty]
}

// CurrentPlayerIndex derives the acting player's position in the roster from
// the monotonically increasing turn index. The roster is ordered by
// ascending id and fixed at creation, so this is a pure round-robin.
func CurrentPlayerIndex(turnIndex, playerCount int) int {
	if playerCount <= 0 {
		return -1
	}
	return turnIndex % playerCount
}

// MaxScore returns the highest score among the given final scores.
// Returns 0 for an empty slice.
func MaxScore(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	return max
}
