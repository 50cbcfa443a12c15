package circle

import (
	"testing"
	"unicode/utf8"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	user := database.User{Id: 7, DisplayName: "Provider Name", Nickname: "nick"}

	tcases := []struct {
		name  string
		mode  database.DisplayNameMode
		user  database.User
		count int
		want  string
	}{
		{"nickname", database.ModeNickname, user, 0, "nick"},
		{"nickname falls back to provider name", database.ModeNickname, database.User{DisplayName: "Provider Name"}, 0, "Provider Name"},
		{"nickname with no names", database.ModeNickname, database.User{}, 0, "Unknown"},
		{"anonymous first", database.ModeAnonymous, user, 0, "参加者#1"},
		{"anonymous fifth", database.ModeAnonymous, user, 4, "参加者#5"},
		{"animal", database.ModeAnimal, user, 0, AnimalName(7, 3)},
		{"unknown mode behaves like nickname", database.DisplayNameMode("bogus"), user, 0, "nick"},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DisplayName(tc.mode, tc.user, 7, 3, tc.count))
		})
	}
}

func TestAnimalName(t *testing.T) {
	first := AnimalName(12, 34)
	assert.Equal(t, first, AnimalName(12, 34), "expected name to be deterministic")
	assert.True(t, utf8.ValidString(first))

	distinct := make(map[string]bool)
	for session := 1; session <= 50; session++ {
		distinct[AnimalName(12, session)] = true
	}
	assert.Greater(t, len(distinct), 1, "expected names to vary across sessions")
}

func TestParseDisplayNameMode(t *testing.T) {
	tcases := []struct {
		in   string
		want database.DisplayNameMode
		ok   bool
	}{
		{"nickname", database.ModeNickname, true},
		{" Animal ", database.ModeAnimal, true},
		{"anonymous", database.ModeAnonymous, true},
		{"random", "", false},
		{"", "", false},
	}

	for _, tc := range tcases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseDisplayNameMode(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
