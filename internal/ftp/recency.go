package ftp

import "time"

// Recent reports whether modifiedAt falls within the lookback window
// ending at now. Comparison is done in UTC. A zero timestamp (missing or
// unparseable on the server side) is treated as not recent: excluding a
// file beats reprocessing the whole directory.
func Recent(modifiedAt, now time.Time, lookback time.Duration) bool {
	if modifiedAt.IsZero() {
		return false
	}
	return now.UTC().Sub(modifiedAt.UTC()) <= lookback
}
