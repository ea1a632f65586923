package domain

type (
	RoomID  string
	UserID  string
	MovieID string
)

// RoomStatus is the server-side room lifecycle. Only REST calls move a room
// between statuses; the live session merely observes them.
type RoomStatus string

const (
	StatusActive     RoomStatus = "active"
	StatusProcessing RoomStatus = "processing"
	StatusCompleted  RoomStatus = "completed"
	StatusInactive   RoomStatus = "inactive"
)

type Room struct {
	RoomID                 RoomID        `json:"room_id"`
	Name                   string        `json:"name"`
	Description            string        `json:"description,omitempty"`
	Status                 RoomStatus    `json:"status"`
	MaxParticipants        int           `json:"max_participants"`
	CurrentParticipants    int           `json:"current_participants"`
	CreatedAt              string        `json:"created_at"`
	UpdatedAt              string        `json:"updated_at"`
	OwnerID                UserID        `json:"owner_id"`
	Participants           []Participant `json:"participants"`
	CurrentRecommendations []Movie       `json:"current_recommendations,omitempty"`
}

// Owner returns the participant flagged as owner. A well-formed room carries
// exactly one such participant.
func (r *Room) Owner() (Participant, bool) {
	for _, p := range r.Participants {
		if p.IsOwner {
			return p, true
		}
	}
	return Participant{}, false
}

func (r *Room) IsOwnedBy(uid UserID) bool {
	return r.OwnerID == uid
}
