// Package guard protects form-style submissions from automation with three
// cheap, layered checks: a honeypot field bots fill in, a minimum time
// between form render and submit, and a single-use action token bound to
// the route.
package guard

import "time"

// ActionToken is the server-side record behind an issued form token. The
// client only ever sees the opaque Token string.
type ActionToken struct {
	Token         string    `json:"token"`
	Route         string    `json:"route"`
	HoneypotField string    `json:"honeypot_field"`
	FormStartedAt time.Time `json:"form_started_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Expired reports whether the token lifetime has passed.
func (t *ActionToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Issued is what the client receives when a form is rendered.
type Issued struct {
	Token         string    `json:"form_token"`
	HoneypotField string    `json:"honeypot_field"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Submission is one inbound form post as seen by the guard.
type Submission struct {
	Route     string
	Token     string
	IP        string
	UserAgent string
	// Fields holds the posted form values. The guard inspects them for
	// honeypot content and ignores everything else.
	Fields map[string]string
}
