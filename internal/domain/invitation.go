package domain

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// Invitation is a pending request for a friend to join a room. Created by the
// owner over REST, answered by the recipient over REST.
type Invitation struct {
	InvitationID        string           `json:"invitation_id"`
	RoomID              RoomID           `json:"room_id"`
	RoomName            string           `json:"room_name,omitempty"`
	FromUserID          UserID           `json:"from_user_id"`
	ToUserID            UserID           `json:"to_user_id"`
	Status              InvitationStatus `json:"status"`
	SenderDisplayName   string           `json:"sender_display_name,omitempty"`
	ReceiverDisplayName string           `json:"receiver_display_name,omitempty"`
	CreatedAt           string           `json:"created_at,omitempty"`
}
