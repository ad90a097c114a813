package guide

import "strings"

// Topic is a two-variant guide: detailed setup instructions or a general
// overview, picked from the raw query text.
type Topic struct {
	Setup    GuideResult
	Overview GuideResult
}

// Select returns the setup variant when text asks to set up, install,
// initialize, start or configure something, and the overview otherwise.
func (t Topic) Select(text string) GuideResult {
	if IsSetupRequest(text) {
		return t.Setup.clone()
	}
	return t.Overview.clone()
}

func (t Topic) handle(q Query, _ signal) GuideResult {
	return t.Select(q.Text)
}

// IsSetupRequest reports whether text carries a setup/installation intent.
func IsSetupRequest(text string) bool {
	return containsAny(strings.ToLower(text), setupKeywords)
}
