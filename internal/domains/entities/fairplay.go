package entities

import "time"

// DuelOutcome tags how a duel ended for one player.
type DuelOutcome string

const (
	OutcomeCompleted DuelOutcome = "completed"
	OutcomeAborted   DuelOutcome = "aborted"
	OutcomeTimeout   DuelOutcome = "timeout"
	OutcomeRageQuit  DuelOutcome = "rage_quit"
)

func (o DuelOutcome) Valid() bool {
	switch o {
	case OutcomeCompleted, OutcomeAborted, OutcomeTimeout, OutcomeRageQuit:
		return true
	}
	return false
}

// FairPlayHistory is a user's recent duel outcomes, newest first.
type FairPlayHistory []DuelOutcome

// BehaviorRecord is one persisted fair-play outcome row.
type BehaviorRecord struct {
	UserId    string      `dynamodbav:"UserId"`
	DuelId    string      `dynamodbav:"DuelId"`
	Outcome   DuelOutcome `dynamodbav:"Outcome"`
	CreatedAt time.Time   `dynamodbav:"CreatedAt"`
}
