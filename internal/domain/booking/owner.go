// internal/domain/booking/owner.go
package booking

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GuestInfo is the contact profile captured when a booking is made without an account.
type GuestInfo struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	LicenseNumber string `json:"license_number"`
}

// Complete reports whether every guest field is non-blank.
func (g *GuestInfo) Complete() bool {
	if g == nil {
		return false
	}
	for _, f := range []string{g.FirstName, g.LastName, g.Email, g.Phone, g.Address, g.LicenseNumber} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// OwnerRef identifies who a reservation belongs to: either an authenticated
// user or a guest profile. Exactly one of the two is set.
type OwnerRef struct {
	userID int64
	guest  *GuestInfo
}

// Authenticated returns an owner reference for a signed-in user.
func Authenticated(userID int64) OwnerRef {
	return OwnerRef{userID: userID}
}

// Guest returns an owner reference for an anonymous booking.
func Guest(info GuestInfo) OwnerRef {
	return OwnerRef{guest: &info}
}

func (o OwnerRef) IsGuest() bool {
	return o.guest != nil
}

// UserID returns the owning user id; ok is false for guest owners.
func (o OwnerRef) UserID() (int64, bool) {
	if o.guest != nil || o.userID == 0 {
		return 0, false
	}
	return o.userID, true
}

// GuestInfo returns a copy of the guest profile, or nil for authenticated owners.
func (o OwnerRef) GuestInfo() *GuestInfo {
	if o.guest == nil {
		return nil
	}
	g := *o.guest
	return &g
}

// OwnedBy reports whether userID is the authenticated owner. Guest
// reservations are never owned by any user id.
func (o OwnerRef) OwnedBy(userID int64) bool {
	id, ok := o.UserID()
	return ok && id == userID
}

func (o OwnerRef) String() string {
	if o.guest != nil {
		return "guest:" + o.guest.Email
	}
	return fmt.Sprintf("user:%d", o.userID)
}

type ownerJSON struct {
	Type   string     `json:"type"`
	UserID int64      `json:"user_id,omitempty"`
	Guest  *GuestInfo `json:"guest,omitempty"`
}

func (o OwnerRef) MarshalJSON() ([]byte, error) {
	if o.guest != nil {
		return json.Marshal(ownerJSON{Type: "guest", Guest: o.guest})
	}
	return json.Marshal(ownerJSON{Type: "user", UserID: o.userID})
}

func (o *OwnerRef) UnmarshalJSON(data []byte) error {
	var raw ownerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case "guest":
		if raw.Guest == nil {
			return fmt.Errorf("guest owner without profile")
		}
		*o = Guest(*raw.Guest)
	case "user":
		*o = Authenticated(raw.UserID)
	default:
		return fmt.Errorf("unknown owner type %q", raw.Type)
	}
	return nil
}

// Actor is the authenticated caller performing an operation.
type Actor struct {
	UserID int64
	Admin  bool
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Admin
}

// CanAccess reports whether the actor may read or act on a reservation owned by owner.
func (a *Actor) CanAccess(owner OwnerRef) bool {
	if a == nil {
		return false
	}
	return a.Admin || owner.OwnedBy(a.UserID)
}
