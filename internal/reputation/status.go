package reputation

// Status is the named band a reputation value falls into
type Status string

const (
	StatusExcellent Status = "Excellent"
	StatusGood      Status = "Good"
	StatusNeutral   Status = "Neutral"
	StatusPoor      Status = "Poor"
	StatusBad       Status = "Bad"
	StatusTerrible  Status = "Terrible"
)

// StatusOf maps a reputation value to its band
func StatusOf(reputation int) Status {
	switch {
	case reputation >= 10:
		return StatusExcellent
	case reputation >= 5:
		return StatusGood
	case reputation >= 0:
		return StatusNeutral
	case reputation >= -5:
		return StatusPoor
	case reputation >= -10:
		return StatusBad
	default:
		return StatusTerrible
	}
}

// Clamp bounds v to [MinReputation, MaxReputation]
func Clamp(v int) int {
	return min(max(v, MinReputation), MaxReputation)
}
