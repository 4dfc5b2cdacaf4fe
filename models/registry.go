package models

import (
	"encoding/json"
	"strings"
)

// Registry is the single persisted document holding every collection.
type Registry struct {
	Orders     []Order    `json:"orders"`
	Donations  []Donation `json:"donations"`
	Identities []Identity `json:"identities"`
}

// NewRegistry returns an empty document.
func NewRegistry() *Registry {
	return &Registry{
		Orders:     []Order{},
		Donations:  []Donation{},
		Identities: []Identity{},
	}
}

// DecodeRegistry parses a persisted document. Empty input yields an empty
// document and missing collections decode as empty slices.
func DecodeRegistry(data []byte) (*Registry, error) {
	reg := NewRegistry()
	if len(strings.TrimSpace(string(data))) == 0 {
		return reg, nil
	}
	if err := json.Unmarshal(data, reg); err != nil {
		return nil, err
	}
	reg.normalize()
	return reg, nil
}

// Encode serializes the document, always writing collections as arrays.
func (r *Registry) Encode() ([]byte, error) {
	r.normalize()
	return json.MarshalIndent(r, "", "  ")
}

func (r *Registry) normalize() {
	if r.Orders == nil {
		r.Orders = []Order{}
	}
	if r.Donations == nil {
		r.Donations = []Donation{}
	}
	if r.Identities == nil {
		r.Identities = []Identity{}
	}
}

// FindOrder returns a pointer into Orders, or nil.
func (r *Registry) FindOrder(id string) *Order {
	for i := range r.Orders {
		if r.Orders[i].ID == id {
			return &r.Orders[i]
		}
	}
	return nil
}

// FindDonation returns a pointer into Donations, or nil.
func (r *Registry) FindDonation(sessionID string) *Donation {
	for i := range r.Donations {
		if r.Donations[i].ID == sessionID {
			return &r.Donations[i]
		}
	}
	return nil
}

// FindIdentityByEmail matches emails case-insensitively.
func (r *Registry) FindIdentityByEmail(email string) *Identity {
	for i := range r.Identities {
		if strings.EqualFold(r.Identities[i].Email, email) {
			return &r.Identities[i]
		}
	}
	return nil
}

// FindIdentityByUsername matches usernames case-insensitively.
func (r *Registry) FindIdentityByUsername(username string) *Identity {
	for i := range r.Identities {
		if strings.EqualFold(r.Identities[i].Username, username) {
			return &r.Identities[i]
		}
	}
	return nil
}
