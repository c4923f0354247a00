package models

import (
	"fmt"
	"strings"
)

type OwnerKind string

const (
	OwnerSession OwnerKind = "session"
	OwnerUser    OwnerKind = "user"
)

// guestOwnerPrefix marks orders placed by an anonymous session.
const guestOwnerPrefix = "guest:"

// OwnerKey identifies whoever owns a cart: an anonymous session or an
// authenticated user. Exactly one of the two is ever set.
type OwnerKey struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
}

func SessionOwner(sessionID string) OwnerKey {
	return OwnerKey{Kind: OwnerSession, ID: sessionID}
}

func UserOwner(userID string) OwnerKey {
	return OwnerKey{Kind: OwnerUser, ID: userID}
}

func (k OwnerKey) IsUser() bool {
	return k.Kind == OwnerUser
}

func (k OwnerKey) IsSession() bool {
	return k.Kind == OwnerSession
}

func (k OwnerKey) Validate() error {
	if k.Kind != OwnerSession && k.Kind != OwnerUser {
		return fmt.Errorf("unknown owner kind %q", k.Kind)
	}

	if strings.TrimSpace(k.ID) == "" {
		return fmt.Errorf("owner id is required")
	}

	return nil
}

// String renders the key as "<kind>:<id>"; used for lock and channel names.
func (k OwnerKey) String() string {
	return string(k.Kind) + ":" + k.ID
}

// OrderOwnerID is the owner recorded on orders. Guests get a synthetic id
// derived from their session.
func (k OwnerKey) OrderOwnerID() string {
	if k.IsUser() {
		return k.ID
	}

	return guestOwnerPrefix + k.ID
}

func ParseOwnerKey(s string) (OwnerKey, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok {
		return OwnerKey{}, fmt.Errorf("malformed owner key %q", s)
	}

	key := OwnerKey{Kind: OwnerKind(kind), ID: id}
	if err := key.Validate(); err != nil {
		return OwnerKey{}, err
	}

	return key, nil
}
