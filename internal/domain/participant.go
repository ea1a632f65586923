package domain

// Participant is a user's membership record within a room.
// Added on join, removed on leave or removal, never mutated in between.
type Participant struct {
	UserID      UserID `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	JoinedAt    string `json:"joined_at"`
	IsOwner     bool   `json:"is_owner"`
}

// Name returns the display name, falling back to the user id so lists never
// render an empty entry.
func (p Participant) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return string(p.UserID)
}
