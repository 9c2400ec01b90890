package model

// DailyStats aggregates reservation outcomes for one (date, space) pair.
// Keying per space rather than per date alone lets a single day carry
// counters for several spaces without last-writer-wins clobbering.
//
// Counters are maintained by atomic store-side increments; AverageRating
// is derived from the feedback collection at read time.
type DailyStats struct {
	Date             string  `json:"date"` // ISO date, derived from reservation StartTime (UTC)
	SpaceID          string  `json:"space_id"`
	ReservationCount int     `json:"reservation_count"`
	CheckInCount     int     `json:"check_in_count"`
	NoShowCount      int     `json:"no_show_count"`
	AverageRating    float64 `json:"average_rating"`
}
