package models

import "time"

// Identity maps a username to an email and every SoulMark issued to it.
type Identity struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	SoulMarks []string  `json:"soulmarks"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasSoulMark reports whether mark is already recorded.
func (i *Identity) HasSoulMark(mark string) bool {
	for _, m := range i.SoulMarks {
		if m == mark {
			return true
		}
	}
	return false
}

// RegisterUsernameRequest is the payload for POST /register-username.
type RegisterUsernameRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	SoulMark string `json:"soulmark"`
}

// UsernameAvailability is returned by GET /check-username/:username.
type UsernameAvailability struct {
	Available bool `json:"available"`
}

// IdentityProfile is the public view of an Identity.
type IdentityProfile struct {
	Username      string    `json:"username"`
	SoulMarkCount int       `json:"soulmarkCount"`
	CreatedAt     time.Time `json:"createdAt"`
}
