package entities

import "time"

type UserRating struct {
	UserId    string    `dynamodbav:"UserId"`
	Rating    int       `dynamodbav:"Rating"`
	UpdatedAt time.Time `dynamodbav:"UpdatedAt"`
}

// RatingUpdate is the persisted application of a duel's rating deltas
// to one player. Keyed by (UserId, DuelId) so a replayed result
// submission cannot apply twice.
type RatingUpdate struct {
	UserId    string    `dynamodbav:"UserId"`
	DuelId    string    `dynamodbav:"DuelId"`
	OldRating int       `dynamodbav:"OldRating"`
	NewRating int       `dynamodbav:"NewRating"`
	Delta     int       `dynamodbav:"Delta"`
	CreatedAt time.Time `dynamodbav:"CreatedAt"`
}
