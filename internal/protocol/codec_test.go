package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomkino/watchroom/internal/domain"
)

func TestDecode_RoomState(t *testing.T) {
	data := []byte(`{
		"type": "room_state",
		"room_id": "room-42",
		"participants": [
			{"user_id": "u1", "display_name": "Ada", "joined_at": "2025-06-01T10:00:00Z", "is_owner": true},
			{"user_id": "u2", "joined_at": "2025-06-01T10:05:00Z", "is_owner": false}
		],
		"status": "active"
	}`)

	msg, err := Decode(data)
	require.NoError(t, err)

	state, ok := msg.(RoomState)
	require.True(t, ok, "expected RoomState, got %T", msg)
	assert.Equal(t, domain.RoomID("room-42"), state.RoomID)
	assert.Equal(t, domain.StatusActive, state.Status)
	require.Len(t, state.Participants, 2)
	assert.True(t, state.Participants[0].IsOwner)
	assert.Equal(t, "Ada", state.Participants[0].DisplayName)
	assert.Empty(t, state.Participants[1].DisplayName)
}

func TestDecode_CurrentMovie(t *testing.T) {
	data := []byte(`{
		"type": "current_movie",
		"room_id": "room-42",
		"movie": {
			"movie_id": "m1",
			"title": "Heat",
			"poster_path": "/heat.jpg",
			"group_score": 0.82,
			"reasons": ["everyone liked crime dramas"],
			"participants_who_liked": []
		},
		"movie_index": 0,
		"total_movies": 2
	}`)

	msg, err := Decode(data)
	require.NoError(t, err)

	cur, ok := msg.(CurrentMovie)
	require.True(t, ok, "expected CurrentMovie, got %T", msg)
	assert.Equal(t, domain.MovieID("m1"), cur.Movie.MovieID)
	assert.Equal(t, 0, cur.MovieIndex)
	assert.Equal(t, 2, cur.TotalMovies)
	assert.Equal(t, 82, cur.Movie.ScorePercent())
}

func TestDecode_VoteConfirmed(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"vote_confirmed","movie_id":"m1","vote":"like"}`))
	require.NoError(t, err)

	conf, ok := msg.(VoteConfirmed)
	require.True(t, ok, "expected VoteConfirmed, got %T", msg)
	assert.Equal(t, domain.MovieID("m1"), conf.MovieID)
	assert.Equal(t, domain.VoteLike, conf.Vote)
}

func TestDecode_VotingResult(t *testing.T) {
	data := []byte(`{
		"type": "voting_result",
		"room_id": "room-42",
		"winner": {"movie_id": "m1", "title": "Heat", "group_score": 0.82, "reasons": [], "participants_who_liked": ["u1","u2"]},
		"score": 0.82,
		"all_scores": {"m1": 0.82, "m2": 0.41},
		"total_participants": 3
	}`)

	msg, err := Decode(data)
	require.NoError(t, err)

	res, ok := msg.(VotingResult)
	require.True(t, ok, "expected VotingResult, got %T", msg)
	assert.Equal(t, domain.MovieID("m1"), res.Winner.MovieID)
	assert.InDelta(t, 0.82, res.Score, 1e-9)
	assert.Equal(t, map[string]float64{"m1": 0.82, "m2": 0.41}, res.AllScores)
	assert.Equal(t, 3, res.TotalParticipants)
}

func TestDecode_ServerError(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"error","message":"room not in voting phase"}`))
	require.NoError(t, err)

	serr, ok := msg.(ServerError)
	require.True(t, ok, "expected ServerError, got %T", msg)
	assert.Equal(t, "room not in voting phase", serr.Message)
}

// A payload carrying the fields of several shapes must resolve to the
// highest-priority one, deterministically. room_state outranks everything.
func TestDecode_AmbiguousPayloadPrefersRoomState(t *testing.T) {
	data := []byte(`{
		"type": "error",
		"room_id": "room-42",
		"participants": [],
		"status": "active",
		"message": "also plausible as an error frame"
	}`)

	msg, err := Decode(data)
	require.NoError(t, err)
	_, ok := msg.(RoomState)
	assert.True(t, ok, "expected RoomState to win the ambiguity, got %T", msg)
}

// vote_confirmed outranks voting_result in the fixed order.
func TestDecode_AmbiguousPayloadOrderIsFixed(t *testing.T) {
	data := []byte(`{
		"movie_id": "m1",
		"vote": "like",
		"room_id": "room-42",
		"winner": {"movie_id": "m1", "title": "Heat", "group_score": 0.82},
		"score": 0.82,
		"all_scores": {"m1": 0.82},
		"total_participants": 3
	}`)

	msg, err := Decode(data)
	require.NoError(t, err)
	_, ok := msg.(VoteConfirmed)
	assert.True(t, ok, "expected VoteConfirmed to win, got %T", msg)
}

func TestDecode_MissingRequiredFieldFailsVariant(t *testing.T) {
	// Looks like current_movie but has no movie payload; only the error
	// shape could match, and it has no message either.
	_, err := Decode([]byte(`{"type":"current_movie","room_id":"room-42","movie_index":1,"total_movies":2}`))
	assert.ErrorIs(t, err, ErrUnknownFrame)
}

func TestDecode_UnknownFrame(t *testing.T) {
	_, err := Decode([]byte(`{"type":"mystery","payload":1}`))
	assert.ErrorIs(t, err, ErrUnknownFrame)

	_, err = Decode([]byte(`not json at all`))
	assert.ErrorIs(t, err, ErrUnknownFrame)
}

func TestDecode_PresentButEmptyFieldsStillMatch(t *testing.T) {
	// Empty participants and empty status are present, so room_state matches.
	msg, err := Decode([]byte(`{"room_id":"r","participants":[],"status":""}`))
	require.NoError(t, err)
	state, ok := msg.(RoomState)
	require.True(t, ok)
	assert.Empty(t, state.Participants)
}

func TestEncode_Vote(t *testing.T) {
	b, err := Encode(VoteCommand{MovieID: "m1", Vote: domain.VoteDislike})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"vote","movie_id":"m1","vote":"dislike"}`, string(b))
}

func TestEncode_RoomStatus(t *testing.T) {
	b, err := Encode(RoomStatusCommand{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"get_room_status"}`, string(b))
}

func TestEncode_Ping(t *testing.T) {
	b, err := Encode(PingCommand{Timestamp: 1735689600})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping","timestamp":1735689600}`, string(b))
}

// start_voting stays encodable for old servers, even though nothing in this
// repo emits it: starting a session is a REST operation.
func TestEncode_DeprecatedStartVoting(t *testing.T) {
	b, err := Encode(StartVotingCommand{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"start_voting"}`, string(b))
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	// An echoed vote command must not be mistaken for an inbound shape other
	// than vote_confirmed, which shares both fields.
	b, err := Encode(VoteCommand{MovieID: "m9", Vote: domain.VoteLike})
	require.NoError(t, err)

	msg, err := Decode(b)
	require.NoError(t, err)
	conf, ok := msg.(VoteConfirmed)
	require.True(t, ok)
	assert.Equal(t, domain.MovieID("m9"), conf.MovieID)
}
