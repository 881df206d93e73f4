package entities

import "time"

// ActiveDuel is a created duel record, persisted until the duel ends.
type ActiveDuel struct {
	DuelId       string    `dynamodbav:"DuelId"`
	Player1Id    string    `dynamodbav:"Player1Id"`
	Player2Id    string    `dynamodbav:"Player2Id"`
	Player1Color Color     `dynamodbav:"Player1Color"`
	Player2Color Color     `dynamodbav:"Player2Color"`
	GameMode     GameMode  `dynamodbav:"GameMode"`
	TimeControl  string    `dynamodbav:"TimeControl"`
	CreatedAt    time.Time `dynamodbav:"CreatedAt"`
}

// DuelRecord is one row of a user's duel history, used for rematch
// avoidance and last-color tracking.
type DuelRecord struct {
	UserId        string    `dynamodbav:"UserId"`
	DuelId        string    `dynamodbav:"DuelId"`
	OpponentId    string    `dynamodbav:"OpponentId"`
	AssignedColor Color     `dynamodbav:"AssignedColor"`
	CreatedAt     time.Time `dynamodbav:"CreatedAt"`
}
