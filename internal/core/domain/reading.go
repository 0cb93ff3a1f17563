package domain

import "time"

// PositionReading is a single positioning sample reported by a provider.
// It is a value type: copies are independent and nothing mutates it after
// NewPositionReading returns.
type PositionReading struct {
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	TimestampMillis   int64   `json:"timestamp_millis"`
	ProviderAvailable bool    `json:"provider_available"`
}

// NewPositionReading builds a reading stamped with ts.
func NewPositionReading(lat, lon float64, ts time.Time, providerAvailable bool) PositionReading {
	return PositionReading{
		Latitude:          lat,
		Longitude:         lon,
		TimestampMillis:   ts.UnixMilli(),
		ProviderAvailable: providerAvailable,
	}
}

// Time returns the reading timestamp as a time.Time.
func (r PositionReading) Time() time.Time {
	return time.UnixMilli(r.TimestampMillis)
}

// AgeAt reports how old the reading is at now. Negative when the reading
// carries a timestamp in the future relative to now.
func (r PositionReading) AgeAt(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-r.TimestampMillis) * time.Millisecond
}

// After reports whether r is strictly newer than other. Equal timestamps are
// not ordered.
func (r PositionReading) After(other PositionReading) bool {
	return r.TimestampMillis > other.TimestampMillis
}
