package bracket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNextSlot(t *testing.T) {
	testCases := []struct {
		roundNo, matchNo int
		expected         Advancement
	}{
		{1, 1, Advancement{RoundNo: 2, MatchNo: 1, Slot: SlotA}},
		{1, 2, Advancement{RoundNo: 2, MatchNo: 1, Slot: SlotB}},
		{1, 3, Advancement{RoundNo: 2, MatchNo: 2, Slot: SlotA}},
		{1, 4, Advancement{RoundNo: 2, MatchNo: 2, Slot: SlotB}},
		// Same formula holds at deeper round boundaries.
		{2, 1, Advancement{RoundNo: 3, MatchNo: 1, Slot: SlotA}},
		{2, 2, Advancement{RoundNo: 3, MatchNo: 1, Slot: SlotB}},
		{3, 1, Advancement{RoundNo: 4, MatchNo: 1, Slot: SlotA}},
		{4, 7, Advancement{RoundNo: 5, MatchNo: 4, Slot: SlotA}},
		{4, 8, Advancement{RoundNo: 5, MatchNo: 4, Slot: SlotB}},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, NextSlot(tc.roundNo, tc.matchNo),
			"round %d match %d", tc.roundNo, tc.matchNo)
	}
}

func TestIsFinalMatch(t *testing.T) {
	assert.True(t, IsFinalMatch(3, 3, 1))
	assert.False(t, IsFinalMatch(3, 2, 1))
	assert.False(t, IsFinalMatch(3, 3, 2))
	assert.True(t, IsFinalMatch(1, 1, 1))
}

func TestRatingImpact(t *testing.T) {
	// Non-normal endings never move ratings, whatever the caller wants.
	assert.True(t, RatingImpact(EndNormal, true))
	assert.False(t, RatingImpact(EndNormal, false))
	assert.False(t, RatingImpact(EndWalkover, true))
	assert.False(t, RatingImpact(EndForfeit, true))
	assert.False(t, RatingImpact(EndTimeLimit, true))
}

func TestAdvantageGame(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	set, ok := AdvantageGame(true, false, a, b, nil)
	assert.True(t, ok)
	assert.Equal(t, b, set.WinnerID)
	assert.Equal(t, 1, set.GameNo)
	assert.True(t, set.DefaultWin)

	set, ok = AdvantageGame(false, true, a, b, nil)
	assert.True(t, ok)
	assert.Equal(t, a, set.WinnerID)

	// Both qualified the same way: no advantage either direction.
	_, ok = AdvantageGame(false, false, a, b, nil)
	assert.False(t, ok)
	_, ok = AdvantageGame(true, true, a, b, nil)
	assert.False(t, ok)

	// A recorded game 1 blocks the automatic award.
	_, ok = AdvantageGame(true, false, a, b, []Set{{GameNo: 1, WinnerID: a}})
	assert.False(t, ok)
	set, ok = AdvantageGame(true, false, a, b, []Set{{GameNo: 2, WinnerID: a}})
	assert.True(t, ok)
	assert.Equal(t, b, set.WinnerID)
}
