package engine

func ContainsEvent(notes []Notification, eventType EventType) bool {
	for _, n := range notes {
		if n.Type == eventType {
			return true
		}
	}
	return false
}

// NotificationsFor filters notes down to the ones addressed to playerID,
// keeping their order.
func NotificationsFor(notes []Notification, playerID string) []Notification {
	var out []Notification
	for _, n := range notes {
		if n.To == playerID {
			out = append(out, n)
		}
	}
	return out
}

func CountEvent(notes []Notification, eventType EventType) int {
	n := 0
	for _, note := range notes {
		if note.Type == eventType {
			n++
		}
	}
	return n
}
