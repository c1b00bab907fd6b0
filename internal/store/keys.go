package store

import "strconv"

// Storage key names are part of the external contract and must match the
// widget's browser storage layout byte for byte.
const (
	keySession     = "mysellkit_session"
	keySessionTime = "mysellkit_session_time"
	keyToken       = "mysellkit_purchase_token"
)

func purchasedKey(productID string) string {
	return "mysellkit_purchased_" + productID
}

func seenKey(popupID string) string {
	return "mysellkit_seen_" + popupID
}

func impressionKey(popupID string) string {
	return "mysellkit_impression_" + popupID
}

// Timestamps are stored as unix milliseconds, the original storage format.
func formatMillis(ms int64) string {
	return strconv.FormatInt(ms, 10)
}

func parseMillis(raw string) (int64, bool) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return ms, true
}
