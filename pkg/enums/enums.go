package enums

// MatchStatus tracks the lifecycle of a match between a liker and a listing owner.
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusAccepted MatchStatus = "accepted"
	MatchStatusRejected MatchStatus = "rejected"
)

func (s MatchStatus) IsValid() bool {
	switch s {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further ledger transition is allowed.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusAccepted || s == MatchStatusRejected
}

// DealStatus classifies an accepted match with an engaged document workflow.
type DealStatus string

const (
	DealStatusDrafted DealStatus = "drafted"
	DealStatusSent    DealStatus = "sent"
	DealStatusSigned  DealStatus = "signed"
)

func (s DealStatus) IsValid() bool {
	switch s {
	case DealStatusDrafted, DealStatusSent, DealStatusSigned:
		return true
	}
	return false
}
