// Package protocol defines the wire messages exchanged over a room voting
// session and the codec that maps them to and from frame bytes.
package protocol

import "github.com/roomkino/watchroom/internal/domain"

// Inbound message type tags as sent by the server.
const (
	TypeRoomState     = "room_state"
	TypeCurrentMovie  = "current_movie"
	TypeVoteConfirmed = "vote_confirmed"
	TypeVotingResult  = "voting_result"
	TypeError         = "error"
)

// Outbound message type tags.
const (
	TypeVote          = "vote"
	TypeStartVoting   = "start_voting"
	TypeGetRoomStatus = "get_room_status"
	TypePing          = "ping"
)

// Message is one decoded inbound frame.
type Message interface {
	MessageType() string
}

// RoomState reports the room's participant set and lifecycle status.
type RoomState struct {
	RoomID       domain.RoomID
	Participants []domain.Participant
	Status       domain.RoomStatus
}

// CurrentMovie moves the voting cursor. The server is the only party that
// advances the queue; the client treats MovieIndex/TotalMovies as
// authoritative.
type CurrentMovie struct {
	RoomID      domain.RoomID
	Movie       domain.Movie
	MovieIndex  int
	TotalMovies int
}

// VoteConfirmed acknowledges one of this client's vote submissions.
type VoteConfirmed struct {
	MovieID domain.MovieID
	Vote    domain.Vote
}

// VotingResult closes the session with the tallied winner.
type VotingResult struct {
	RoomID            domain.RoomID
	Winner            domain.Movie
	Score             float64
	AllScores         map[string]float64
	TotalParticipants int
}

// ServerError carries a server-side error message for display. It does not
// terminate the session.
type ServerError struct {
	Message string
}

func (RoomState) MessageType() string     { return TypeRoomState }
func (CurrentMovie) MessageType() string  { return TypeCurrentMovie }
func (VoteConfirmed) MessageType() string { return TypeVoteConfirmed }
func (VotingResult) MessageType() string  { return TypeVotingResult }
func (ServerError) MessageType() string   { return TypeError }
