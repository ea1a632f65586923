package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomOwner(t *testing.T) {
	room := Room{
		OwnerID: "u1",
		Participants: []Participant{
			{UserID: "u2"},
			{UserID: "u1", IsOwner: true},
		},
	}

	owner, ok := room.Owner()
	require.True(t, ok)
	assert.Equal(t, UserID("u1"), owner.UserID)
	assert.True(t, room.IsOwnedBy("u1"))
	assert.False(t, room.IsOwnedBy("u2"))

	empty := Room{}
	_, ok = empty.Owner()
	assert.False(t, ok)
}

func TestMovieScorePercent(t *testing.T) {
	assert.Equal(t, 0, Movie{GroupScore: 0}.ScorePercent())
	assert.Equal(t, 82, Movie{GroupScore: 0.82}.ScorePercent())
	assert.Equal(t, 100, Movie{GroupScore: 1}.ScorePercent())
	assert.Equal(t, 50, Movie{GroupScore: 0.5}.ScorePercent())
}

func TestVoteValid(t *testing.T) {
	assert.True(t, VoteLike.Valid())
	assert.True(t, VoteDislike.Valid())
	assert.False(t, Vote("maybe").Valid())
	assert.False(t, Vote("").Valid())
}

func TestParticipantName(t *testing.T) {
	assert.Equal(t, "Ada", Participant{UserID: "u1", DisplayName: "Ada"}.Name())
	assert.Equal(t, "u1", Participant{UserID: "u1"}.Name())
}
