package progress

import "math"

// Percent returns round(done/total*100). A zero or negative total yields 0.
func Percent(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	if done > total {
		done = total
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}

// Breakdown is a done/total pair with its derived percentage.
type Breakdown struct {
	Label   string `json:"label,omitempty"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
}

func NewBreakdown(label string, done, total int) Breakdown {
	return Breakdown{Label: label, Done: done, Total: total, Percent: Percent(done, total)}
}
