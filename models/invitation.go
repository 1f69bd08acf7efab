package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultName is used when an invitation does not carry a display name
	DefaultName = "New User"

	// ActionLinkValidity is the product contract for how long an issued link stays usable.
	// The link issuer enforces it; doorbell only tells the recipient about it.
	ActionLinkValidity = 7 * 24 * time.Hour

	// LinkTypeRecovery is the action link type used for password-set invitations
	LinkTypeRecovery = "recovery"
)

type (
	// InvitationRequest is the inbound body of an invite call
	InvitationRequest struct {
		Email    string  `json:"email"`
		Name     *string `json:"name,omitempty"`
		IsParent *bool   `json:"isParent,omitempty"`
		FamilyID string  `json:"familyId"`
	}

	// Invitee is an InvitationRequest with its defaults applied
	Invitee struct {
		Email    string
		Name     string
		IsParent bool
		FamilyID string
	}

	// ProvisionedIdentity is what the account provisioner gives back.
	// TemporaryPassword is only held to satisfy account creation; it is never stored.
	ProvisionedIdentity struct {
		UserID            string
		Email             string
		TemporaryPassword string
	}

	// Profile is the profile row keyed by user id
	Profile struct {
		ID       string `json:"id" gorm:"primaryKey"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		IsParent bool   `json:"is_parent"`
	}

	// FamilyMember is the association between a family and a user
	FamilyMember struct {
		FamilyID string `json:"family_id" gorm:"primaryKey"`
		UserID   string `json:"user_id" gorm:"primaryKey"`
	}

	LinkClaims struct {
		Name     string `json:"name"`
		IsParent bool   `json:"is_parent"`
		FamilyID string `json:"family_id"`
	}

	// LinkRequest asks the link issuer for an action link
	LinkRequest struct {
		Type       string
		Email      string
		RedirectTo string
		Claims     *LinkClaims
	}

	// ActionLink is a single-use URL letting the recipient set a password
	ActionLink struct {
		URL        string
		RedirectTo string
		Claims     *LinkClaims
	}

	// ValidationError is returned when a request misses a required field
	ValidationError struct {
		Field   string
		Message string
	}
)

func (Profile) TableName() string      { return "profiles" }
func (FamilyMember) TableName() string { return "family_members" }

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks the required fields, email first then family id
func (r InvitationRequest) Validate() error {
	if r.Email == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if r.FamilyID == "" {
		return &ValidationError{Field: "familyId", Message: "Family ID is required"}
	}
	return nil
}

// WithDefaults fills in name and role flag when they were not sent
func (r InvitationRequest) WithDefaults() Invitee {
	invitee := Invitee{
		Email:    r.Email,
		Name:     DefaultName,
		IsParent: true,
		FamilyID: r.FamilyID,
	}
	if r.Name != nil && *r.Name != "" {
		invitee.Name = *r.Name
	}
	if r.IsParent != nil {
		invitee.IsParent = *r.IsParent
	}
	return invitee
}

func (i Invitee) Profile(userID string) *Profile {
	return &Profile{ID: userID, Email: i.Email, Name: i.Name, IsParent: i.IsParent}
}

func (i Invitee) FamilyMember(userID string) *FamilyMember {
	return &FamilyMember{FamilyID: i.FamilyID, UserID: userID}
}

func (i Invitee) Claims() *LinkClaims {
	return &LinkClaims{Name: i.Name, IsParent: i.IsParent, FamilyID: i.FamilyID}
}

// MaskedPassword returns the first three characters of the temporary password followed by a mask
func (p *ProvisionedIdentity) MaskedPassword() string {
	return MaskSecret(p.TemporaryPassword)
}

func (p *ProvisionedIdentity) String() string {
	return fmt.Sprintf("identity %s <%s>", p.UserID, p.Email)
}

// MaskSecret keeps at most three leading characters of a secret
func MaskSecret(secret string) string {
	if len(secret) > 3 {
		secret = secret[:3]
	}
	return secret + "****"
}

// ErrInviteInProgress is returned by an invite guard when another invitation for
// the same email is still running
var ErrInviteInProgress = errors.New("an invitation for this email is already in progress")

// ResetPasswordRedirect is where an action link sends the recipient once verified
func ResetPasswordRedirect(siteURL, email string) string {
	return strings.TrimRight(siteURL, "/") + "/reset-password?email=" + email
}
