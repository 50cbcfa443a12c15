package circle

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/zeebo/blake3"
)

var animals = []string{
	"うさぎ", "ねこ", "いぬ", "くま", "パンダ", "ペンギン", "きつね", "たぬき",
	"ハムスター", "リス", "コアラ", "アルパカ", "ひつじ", "やぎ", "しか", "フクロウ",
	"インコ", "カメレオン", "カワウソ", "ラッコ", "アザラシ", "イルカ", "くじら", "カピバラ",
	"レッサーパンダ", "ハリネズミ", "モモンガ", "フェレット", "チンチラ", "フラミンゴ",
	"ペリカン", "カモメ", "スズメ", "メジロ", "シマエナガ", "カワセミ", "ツバメ", "ハト", "カラス",
}

var adjectives = []string{
	"げんき", "のんびり", "ふわふわ", "もふもふ", "すやすや", "きらきら", "にこにこ",
	"ぽかぽか", "わくわく", "どきどき", "ほんわか", "さらさら", "つやつや", "ぴかぴか",
	"もぐもぐ", "ゆらゆら", "ころころ", "ふかふか", "しっとり", "まったり",
}

const unknownName = "Unknown"

// ParseDisplayNameMode accepts the three supported policies.
func ParseDisplayNameMode(s string) (database.DisplayNameMode, bool) {
	switch mode := database.DisplayNameMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case database.ModeNickname, database.ModeAnimal, database.ModeAnonymous:
		return mode, true
	default:
		return "", false
	}
}

// DisplayName computes the name a member is shown under. memberCount is the
// number of members already in the session.
func DisplayName(mode database.DisplayNameMode, user database.User, userId, sessionId, memberCount int) string {
	switch mode {
	case database.ModeAnimal:
		return AnimalName(userId, sessionId)
	case database.ModeAnonymous:
		return fmt.Sprintf("参加者#%d", memberCount+1)
	default:
		if user.Nickname != "" {
			return user.Nickname
		}
		if user.DisplayName != "" {
			return user.DisplayName
		}
		return unknownName
	}
}

// AnimalName is stable for a (user, session) pair and usually differs
// between sessions.
func AnimalName(userId, sessionId int) string {
	h := blake3.New()
	fmt.Fprintf(h, "%d:%d", userId, sessionId)
	n := binary.BigEndian.Uint64(h.Sum(nil)[:8])

	adj := adjectives[n%uint64(len(adjectives))]
	animal := animals[(n/uint64(len(adjectives)))%uint64(len(animals))]
	return adj + animal
}
