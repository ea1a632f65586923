package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roomkino/watchroom/internal/domain"
)

// ErrUnknownFrame is returned when an inbound frame matches no known message
// shape. Callers drop the frame; it is never fatal to the session.
var ErrUnknownFrame = errors.New("frame matches no known message shape")

// Decoding is permissive: each known shape is attempted in the order below
// and the first one whose required fields are all present wins. Extra fields
// never fail an attempt, so a payload carrying fields of several shapes
// resolves to the highest-priority one. The order is a contract, not an
// accident; tests pin it.
var decodeOrder = []func([]byte) (Message, bool){
	decodeRoomState,
	decodeCurrentMovie,
	decodeVoteConfirmed,
	decodeVotingResult,
	decodeServerError,
}

// Decode resolves one inbound frame to a Message, or ErrUnknownFrame.
func Decode(data []byte) (Message, error) {
	for _, attempt := range decodeOrder {
		if msg, ok := attempt(data); ok {
			return msg, nil
		}
	}
	return nil, ErrUnknownFrame
}

// Shadow structs use pointers for required fields so a missing field is
// distinguishable from a present-but-zero one.

func decodeRoomState(data []byte) (Message, bool) {
	var w struct {
		RoomID       *string               `json:"room_id"`
		Participants *[]domain.Participant `json:"participants"`
		Status       *string               `json:"status"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, false
	}
	if w.RoomID == nil || w.Participants == nil || w.Status == nil {
		return nil, false
	}
	return RoomState{
		RoomID:       domain.RoomID(*w.RoomID),
		Participants: *w.Participants,
		Status:       domain.RoomStatus(*w.Status),
	}, true
}

func decodeCurrentMovie(data []byte) (Message, bool) {
	var w struct {
		RoomID      *string       `json:"room_id"`
		Movie       *domain.Movie `json:"movie"`
		MovieIndex  *int          `json:"movie_index"`
		TotalMovies *int          `json:"total_movies"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, false
	}
	if w.RoomID == nil || w.Movie == nil || w.MovieIndex == nil || w.TotalMovies == nil {
		return nil, false
	}
	return CurrentMovie{
		RoomID:      domain.RoomID(*w.RoomID),
		Movie:       *w.Movie,
		MovieIndex:  *w.MovieIndex,
		TotalMovies: *w.TotalMovies,
	}, true
}

func decodeVoteConfirmed(data []byte) (Message, bool) {
	var w struct {
		MovieID *string `json:"movie_id"`
		Vote    *string `json:"vote"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, false
	}
	if w.MovieID == nil || w.Vote == nil {
		return nil, false
	}
	return VoteConfirmed{
		MovieID: domain.MovieID(*w.MovieID),
		Vote:    domain.Vote(*w.Vote),
	}, true
}

func decodeVotingResult(data []byte) (Message, bool) {
	var w struct {
		RoomID            *string             `json:"room_id"`
		Winner            *domain.Movie       `json:"winner"`
		Score             *float64            `json:"score"`
		AllScores         *map[string]float64 `json:"all_scores"`
		TotalParticipants *int                `json:"total_participants"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, false
	}
	if w.RoomID == nil || w.Winner == nil || w.Score == nil || w.AllScores == nil || w.TotalParticipants == nil {
		return nil, false
	}
	return VotingResult{
		RoomID:            domain.RoomID(*w.RoomID),
		Winner:            *w.Winner,
		Score:             *w.Score,
		AllScores:         *w.AllScores,
		TotalParticipants: *w.TotalParticipants,
	}, true
}

func decodeServerError(data []byte) (Message, bool) {
	var w struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, false
	}
	if w.Message == nil {
		return nil, false
	}
	return ServerError{Message: *w.Message}, true
}

// Command is one outbound frame payload.
type Command interface {
	wire() any
}

// VoteCommand submits this participant's verdict on a movie. The server is
// last-write-wins per participant/movie pair.
type VoteCommand struct {
	MovieID domain.MovieID
	Vote    domain.Vote
}

func (c VoteCommand) wire() any {
	return struct {
		Type    string `json:"type"`
		MovieID string `json:"movie_id"`
		Vote    string `json:"vote"`
	}{TypeVote, string(c.MovieID), string(c.Vote)}
}

// StartVotingCommand is retained for backward compatibility with older
// servers only. Current servers ignore it: starting a voting session is a
// REST operation, and nothing in this repo emits this command.
//
// Deprecated: trigger voting via the room control client instead.
type StartVotingCommand struct{}

func (StartVotingCommand) wire() any {
	return struct {
		Type string `json:"type"`
	}{TypeStartVoting}
}

// RoomStatusCommand asks the server to push a fresh room_state.
type RoomStatusCommand struct{}

func (RoomStatusCommand) wire() any {
	return struct {
		Type string `json:"type"`
	}{TypeGetRoomStatus}
}

// PingCommand is the application-level keep-alive. Timestamp is unix seconds.
type PingCommand struct {
	Timestamp int64
}

func (c PingCommand) wire() any {
	return struct {
		Type      string `json:"type"`
		Timestamp int64  `json:"timestamp"`
	}{TypePing, c.Timestamp}
}

// Encode serializes an outbound command to frame bytes.
func Encode(c Command) ([]byte, error) {
	b, err := json.Marshal(c.wire())
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", c, err)
	}
	return b, nil
}
