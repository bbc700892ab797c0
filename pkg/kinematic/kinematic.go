package kinematic

// FinalVelocity returns the velocity of a body after accelerating for the
// given time.
func FinalVelocity(initialVelocity float64, time float64, acceleration float64) float64 {
	return initialVelocity + acceleration*time
}
