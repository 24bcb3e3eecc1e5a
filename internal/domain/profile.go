package domain

// Identity is the result of verifying an opaque bearer credential.
type Identity struct {
	UserID string
	Email  string
}

// Profile is a user profile document. The payload is unstructured and stored
// verbatim; the backend never interprets individual fields beyond
// submission_id bookkeeping on abstract creation.
type Profile map[string]any

// Preference maps a conference edition to the set of submission IDs the user
// voted for.
type Preference map[string][]string

// EditionVotes pairs an edition with the hydrated abstracts the user voted for.
type EditionVotes struct {
	Edition   string       `json:"edition"`
	Abstracts []Submission `json:"abstracts"`
}
