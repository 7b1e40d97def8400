package engine

// Seat order is fixed at match time: the first joiner holds seat 0 and
// opens, then turns alternate after every miss.

func opponentOf(players []string, id string) string {
	for _, p := range players {
		if p != id {
			return p
		}
	}
	return ""
}

func nextTurn(players []string, current string) string {
	if len(players) < 2 {
		return current
	}
	return opponentOf(players, current)
}
