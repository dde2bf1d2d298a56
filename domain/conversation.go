package domain

import "time"

// ConversationPreview is the derived per-partner entry of the
// conversation list. It owns no persisted state.
type ConversationPreview struct {
	PartnerID     string    `json:"partner_id"`
	PartnerName   string    `json:"partner_name"`
	Preview       string    `json:"preview"`
	LastMessageAt time.Time `json:"last_message_at"`
	Unread        int       `json:"unread"`
}

// Profile is the directory's view of an organization member.
type Profile struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
}

// Directory resolves user identifiers to display profiles and lists
// organization membership. Message and directory data can be
// transiently inconsistent; callers must treat a missing profile as
// a soft failure.
type Directory interface {
	Profile(userID string) (Profile, error)
	Members(organizationID string) ([]Profile, error)
}
