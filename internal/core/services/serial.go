package services

import "time"

// NextSerial returns the SOA serial that follows current on the day of now.
// Serials use the YYYYMMDDnn convention: the first change of a day resets to
// YYYYMMDD00, later changes (or a serial already ahead of the date) increment.
// The result is never below current, so secondaries always see an update.
func NextSerial(current uint64, now time.Time) uint64 {
	y, m, d := now.Date()
	base := (uint64(y)*10000 + uint64(m)*100 + uint64(d)) * 100
	if current < base {
		return base
	}
	return current + 1
}
