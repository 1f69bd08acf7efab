package models

import (
	"time"

	"github.com/google/uuid"
)

type (
	// Reconciliation records an identity left in a partial state, or an invitation
	// whose link never reached the recipient. Operators resolve them out of band.
	Reconciliation struct {
		ID        string               `json:"id" bson:"_id"`
		Email     string               `json:"email" bson:"email"`
		UserID    string               `json:"userId" bson:"userId"`
		FamilyID  string               `json:"familyId" bson:"familyId"`
		Stage     Stage                `json:"stage" bson:"stage"`
		Reason    string               `json:"reason" bson:"reason"`
		ResetLink string               `json:"resetLink,omitempty" bson:"resetLink,omitempty"`
		Status    ReconciliationStatus `json:"status" bson:"status"`
		Created   time.Time            `json:"created" bson:"created"`
		Modified  time.Time            `json:"modified" bson:"modified"`
	}

	Stage                string
	ReconciliationStatus string
)

const (
	StageProfile      Stage = "profile"
	StageFamilyMember Stage = "family_member"
	StageLink         Stage = "link"
	StageDelivery     Stage = "delivery"

	ReconciliationPending  ReconciliationStatus = "pending"
	ReconciliationResolved ReconciliationStatus = "resolved"
)

func NewReconciliation(stage Stage, userID string, invitee Invitee, reason string) *Reconciliation {
	return &Reconciliation{
		ID:       uuid.NewString(),
		Email:    invitee.Email,
		UserID:   userID,
		FamilyID: invitee.FamilyID,
		Stage:    stage,
		Reason:   reason,
		Status:   ReconciliationPending,
		Created:  time.Now(),
	}
}

// Resolve marks the record as handled and updates the modified time
func (r *Reconciliation) Resolve() {
	r.Status = ReconciliationResolved
	r.Modified = time.Now()
}
