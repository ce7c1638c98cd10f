package bracket

type Slot int

const (
	SlotA Slot = 1
	SlotB Slot = 2
)

// Advancement says where a match's winner goes next.
type Advancement struct {
	RoundNo int
	MatchNo int
	Slot    Slot
}

// NextSlot computes the feeding position for the winner of (roundNo,
// matchNo): the next round's match ceil(matchNo/2), side A when matchNo is
// odd. The same formula holds at every round boundary.
func NextSlot(roundNo, matchNo int) Advancement {
	adv := Advancement{
		RoundNo: roundNo + 1,
		MatchNo: (matchNo + 1) / 2,
		Slot:    SlotB,
	}
	if matchNo%2 != 0 {
		adv.Slot = SlotA
	}
	return adv
}

// IsFinalMatch reports whether (roundNo, matchNo) is the deciding match of
// a bracket with the given total round count.
func IsFinalMatch(totalRounds, roundNo, matchNo int) bool {
	return roundNo == totalRounds && matchNo == 1
}
