package rank

// Default weights and bounds for the frecency function.
const (
	DefaultFrequencyWeight = 2.0   // α
	DefaultRecencyWeight   = 100.0 // β
	DefaultMaxDays         = 365
)

// Score computes the frecency rank for a command last used at lastUsed
// (seconds since epoch) with the given frequency, as observed at now.
//
//	days = max(1, min(MaxDays, floor((now - lastUsed) / 86400)))
//	rank = freqWeight*frequency + recencyWeight/days
//
// Score is total and deterministic: it never errors and is defined for any
// input, including lastUsed > now (clock skew), which is clamped to 0 days
// elapsed.
func Score(frequency int64, lastUsed, now int64, freqWeight, recencyWeight float64, maxDays int64) float64 {
	elapsedSeconds := now - lastUsed
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	days := elapsedSeconds / 86400
	if days < 1 {
		days = 1
	}
	if days > maxDays {
		days = maxDays
	}
	return freqWeight*float64(frequency) + recencyWeight/float64(days)
}

// DefaultScore computes Score using the default weights and bounds.
func DefaultScore(frequency int64, lastUsed, now int64) float64 {
	return Score(frequency, lastUsed, now, DefaultFrequencyWeight, DefaultRecencyWeight, DefaultMaxDays)
}
