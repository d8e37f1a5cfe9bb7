package models

import "time"

// Index names, also the radar chart axes in display order.
const (
	IndexCCI  = "CCI"  // Cultural Capital Index: media visibility
	IndexEES  = "EES"  // Emotional Engagement Score: audience engagement (synthetic)
	IndexRSMI = "RSMI" // Repeat Sales Market Index: auction-market activity
)

// Indices lists the three index names in chart order.
var Indices = []string{IndexCCI, IndexEES, IndexRSMI}

// Scores holds the three indices, each in [0,100].
type Scores struct {
	CCI  int `json:"cci"`
	EES  int `json:"ees"`
	RSMI int `json:"rsmi"`
}

// Values returns the scores in Indices order.
func (s Scores) Values() [3]int {
	return [3]int{s.CCI, s.EES, s.RSMI}
}

// SignalStatus tells a consumer whether an index was measured or guessed.
type SignalStatus struct {
	Succeeded bool   `json:"succeeded"`
	Synthetic bool   `json:"synthetic,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Signals carries one status per index.
type Signals struct {
	CCI  SignalStatus `json:"cci"`
	EES  SignalStatus `json:"ees"`
	RSMI SignalStatus `json:"rsmi"`
}

// Artist is one registry entry.
type Artist struct {
	Name      string     `json:"name"`
	Scores    Scores     `json:"scores"`
	Signals   Signals    `json:"signals"`
	FetchedAt time.Time  `json:"fetched_at"`
	Evidence  []Evidence `json:"evidence,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
}

// Measured reports whether every non-synthetic signal succeeded.
func (a Artist) Measured() bool {
	return a.Signals.CCI.Succeeded && a.Signals.RSMI.Succeeded
}
