package engine

import (
	"feature-service/internal/models"
)

// ResolveOrderCustomers collapses the noisy many-to-one interaction stream
// into exactly one customer key per order number. Only events with
// interaction type "order" and non-empty order number and customer key are
// considered. For each order number the event with the latest event time
// wins; when several events share the latest timestamp the lexicographically
// smallest customer key is chosen, so the mapping is deterministic across
// runs regardless of input ordering.
func ResolveOrderCustomers(events []models.InteractionEvent) map[string]string {
	links := make(map[string]models.InteractionEvent)

	for _, ev := range events {
		if ev.InteractionType != models.InteractionTypeOrder {
			continue
		}
		if ev.RelatedOrderNumber == "" || ev.ExternalCustomerKey == "" {
			continue
		}

		cur, ok := links[ev.RelatedOrderNumber]
		if !ok || betterLink(ev, cur) {
			links[ev.RelatedOrderNumber] = ev
		}
	}

	resolved := make(map[string]string, len(links))
	for orderNumber, ev := range links {
		resolved[orderNumber] = ev.ExternalCustomerKey
	}
	return resolved
}

// betterLink reports whether candidate should replace current: later event
// time first, then smallest customer key on equal timestamps.
func betterLink(candidate, current models.InteractionEvent) bool {
	if candidate.EventTime.After(current.EventTime) {
		return true
	}
	if candidate.EventTime.Equal(current.EventTime) {
		return candidate.ExternalCustomerKey < current.ExternalCustomerKey
	}
	return false
}
