package models

// FallbackScore is substituted when a signal fetch fails.
const FallbackScore = 50

// Score bounds for every index.
const (
	MinScore = 0
	MaxScore = 100
)

// Evidence references the raw material behind a score (a news article, an auction search page).
type Evidence struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source,omitempty"`
}

// SignalResult is the outcome of one fetch. Failures are values, not errors.
type SignalResult struct {
	Score     int        `json:"score"`
	Evidence  []Evidence `json:"evidence,omitempty"`
	Succeeded bool       `json:"succeeded"`
	Synthetic bool       `json:"synthetic,omitempty"`
	Err       string     `json:"error,omitempty"`
}

// Fallback builds the failure result carrying reason.
func Fallback(reason string) SignalResult {
	return SignalResult{Score: FallbackScore, Succeeded: false, Err: reason}
}

// Measured builds a successful result with the score clamped into range.
func Measured(score int, evidence []Evidence) SignalResult {
	return SignalResult{Score: ClampScore(score), Evidence: evidence, Succeeded: true}
}

// ClampScore bounds v to [MinScore, MaxScore].
func ClampScore(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// Credentials are supplied per registration and never stored.
type Credentials struct {
	NewsAPIKey string `json:"-"`
}
