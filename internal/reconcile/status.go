package reconcile

import (
	"strings"

	"portsync/internal/ledger"
)

// venueStatusTable is the explicit, total mapping from the venue's order
// status vocabulary onto the local state machine. Statuses missing from
// the table are tagged unmapped instead of silently guessed; live-but-not-
// yet-final venue states collapse onto accepted.
var venueStatusTable = map[string]ledger.OrderStatus{
	"new":                  ledger.OrderStatusNew,
	"accepted":             ledger.OrderStatusAccepted,
	"pending_new":          ledger.OrderStatusAccepted,
	"accepted_for_bidding": ledger.OrderStatusAccepted,
	"pending_cancel":       ledger.OrderStatusAccepted,
	"pending_replace":      ledger.OrderStatusAccepted,
	"done_for_day":         ledger.OrderStatusAccepted,
	"partially_filled":     ledger.OrderStatusPartiallyFilled,
	"filled":               ledger.OrderStatusFilled,
	"canceled":             ledger.OrderStatusCanceled,
	"expired":              ledger.OrderStatusExpired,
	"rejected":             ledger.OrderStatusRejected,
	"replaced":             ledger.OrderStatusReplaced,
}

// MapVenueStatus maps a venue-reported status onto the local enumeration.
// The second result is false when the status is unknown; callers fall back
// to "new" but must log and tag the item rather than drop it.
func MapVenueStatus(venueStatus string) (ledger.OrderStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(venueStatus))
	if mapped, ok := venueStatusTable[key]; ok {
		return mapped, true
	}
	return ledger.OrderStatusNew, false
}
