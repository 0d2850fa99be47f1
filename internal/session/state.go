package session

import (
	"errors"
	"time"
)

// State is a step of the login state machine.
type State int

const (
	// Anonymous is the state before the landing page has been inspected.
	Anonymous State = iota
	// LoginSubmitted means the site asked for a login and one is in flight.
	LoginSubmitted
	// AwaitingChallenge means a human must complete a verification step
	// in the visible browser window.
	AwaitingChallenge
	// Authenticated means the feed is reachable.
	Authenticated
	// Failed is terminal for the current scrape call.
	Failed
)

var stateNames = [...]string{
	Anonymous:         "anonymous",
	LoginSubmitted:    "login_submitted",
	AwaitingChallenge: "awaiting_challenge",
	Authenticated:     "authenticated",
	Failed:            "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Authenticated || s == Failed
}

// Transition records one state change.
type Transition struct {
	From   State
	To     State
	Reason string
	At     time.Time
}

// Errors returned by Authenticate.
var (
	ErrLoginFailed      = errors.New("login failed")
	ErrChallengeTimeout = errors.New("verification challenge not completed in time")
	ErrNotOpen          = errors.New("session browser is not open")
)

// Credentials are the login details of the feed account.
type Credentials struct {
	Email    string
	Password string
}

// Valid reports whether both fields are set.
func (c Credentials) Valid() bool {
	return c.Email != "" && c.Password != ""
}
