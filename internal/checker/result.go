package checker

// Sentinel statuses used when no HTTP status code was obtainable.
const (
	StatusTimeout         = "[timeout]"
	StatusConnectionError = "[connection error]"
	StatusRequestError    = "[request error]"
	StatusUnknownError    = "[unknown error]"
)

// Hop is one traversed redirect step.
type Hop struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
}

// HopTiming is one traversed redirect step with its measured duration.
// Elapsed is zero where the hop was not separately measurable.
type HopTiming struct {
	URL        string  `json:"url"`
	StatusCode int     `json:"status_code"`
	Elapsed    float64 `json:"elapsed"`
}

// CheckResult is the outcome of probing a single URL. Status holds either a
// numeric HTTP status code or one of the sentinel statuses, never both and
// never empty. RedirectChain and RedirectTiming always have equal length.
type CheckResult struct {
	Domain         string      `json:"domain"`
	Status         string      `json:"status"`
	Message        string      `json:"message"`
	RedirectChain  []Hop       `json:"redirect_chain"`
	RedirectTiming []HopTiming `json:"redirect_timing"`
	ResponseTime   float64     `json:"response_time"`
}

// FinalURL returns the last URL in the redirect chain, or a URL constructed
// from the domain if no redirect occurred.
func (r CheckResult) FinalURL() string {
	if len(r.RedirectChain) > 0 {
		return r.RedirectChain[len(r.RedirectChain)-1].URL
	}
	return "https://" + r.Domain
}
