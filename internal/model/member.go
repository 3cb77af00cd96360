package model

import "time"

// FamilyMember is a person known within a family. Members are created the
// first time they act in a family and never deleted; a later contact may
// refresh the display name.
type FamilyMember struct {
	FamilyID    int64     `json:"family_id"`
	MemberID    int64     `json:"member_id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}
