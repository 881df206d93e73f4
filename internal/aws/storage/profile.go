package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
)

// DefaultRating is assigned to users with no rating row yet.
const DefaultRating = 1200

var ErrRatingAlreadyApplied = fmt.Errorf("rating update already applied")

// GetRating returns the user's current rating, or DefaultRating for a
// user who has never played.
func (client *Client) GetRating(ctx context.Context, userId string) (int, error) {
	output, err := client.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: client.cfg.UserRatingsTableName,
		Key: map[string]types.AttributeValue{
			"UserId": &types.AttributeValueMemberS{Value: userId},
		},
	})
	if err != nil {
		return 0, err
	}
	if output.Item == nil {
		return DefaultRating, nil
	}
	var userRating entities.UserRating
	if err := attributevalue.UnmarshalMap(output.Item, &userRating); err != nil {
		return 0, err
	}
	return userRating.Rating, nil
}

// GetRecentBehavior returns the user's most recent duel outcomes,
// newest first.
func (client *Client) GetRecentBehavior(
	ctx context.Context,
	userId string,
	limit int,
) (entities.FairPlayHistory, error) {
	output, err := client.dynamodb.Query(ctx, &dynamodb.QueryInput{
		TableName:              client.cfg.BehaviorTableName,
		KeyConditionExpression: aws.String("UserId = :userId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userId},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, err
	}
	var records []entities.BehaviorRecord
	if err := attributevalue.UnmarshalListOfMaps(output.Items, &records); err != nil {
		return nil, err
	}
	history := make(entities.FairPlayHistory, 0, len(records))
	for _, record := range records {
		history = append(history, record.Outcome)
	}
	return history, nil
}

// GetRecentOpponents returns the user ids of the user's most recent
// opponents, newest first.
func (client *Client) GetRecentOpponents(
	ctx context.Context,
	userId string,
	limit int,
) ([]string, error) {
	records, err := client.fetchDuelHistory(ctx, userId, limit)
	if err != nil {
		return nil, err
	}
	opponents := make([]string, 0, len(records))
	for _, record := range records {
		opponents = append(opponents, record.OpponentId)
	}
	return opponents, nil
}

// GetLastAssignedColor returns the color the user played most
// recently, or the empty color for a user with no duel history.
func (client *Client) GetLastAssignedColor(
	ctx context.Context,
	userId string,
) (entities.Color, error) {
	records, err := client.fetchDuelHistory(ctx, userId, 1)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}
	return records[0].AssignedColor, nil
}

func (client *Client) fetchDuelHistory(
	ctx context.Context,
	userId string,
	limit int,
) ([]entities.DuelRecord, error) {
	output, err := client.dynamodb.Query(ctx, &dynamodb.QueryInput{
		TableName:              client.cfg.DuelHistoryTableName,
		KeyConditionExpression: aws.String("UserId = :userId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userId},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, err
	}
	var records []entities.DuelRecord
	if err := attributevalue.UnmarshalListOfMaps(output.Items, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ApplyRatingUpdate persists one side's rating delta. The update row
// is conditionally put on (UserId, DuelId), so replaying the same duel
// result is detected and rejected with ErrRatingAlreadyApplied before
// the rating row is touched.
func (client *Client) ApplyRatingUpdate(ctx context.Context, update entities.RatingUpdate) error {
	item, err := attributevalue.MarshalMap(update)
	if err != nil {
		return err
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           client.cfg.RatingUpdatesTableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(DuelId)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return ErrRatingAlreadyApplied
		}
		return err
	}

	ratingItem, err := attributevalue.MarshalMap(entities.UserRating{
		UserId:    update.UserId,
		Rating:    update.NewRating,
		UpdatedAt: update.CreatedAt,
	})
	if err != nil {
		return err
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.UserRatingsTableName,
		Item:      ratingItem,
	})
	return err
}

// RecordBehavior appends one fair-play outcome row.
func (client *Client) RecordBehavior(ctx context.Context, record entities.BehaviorRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return err
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.BehaviorTableName,
		Item:      item,
	})
	return err
}

// RecordDuelHistory appends one duel-history row.
func (client *Client) RecordDuelHistory(ctx context.Context, record entities.DuelRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return err
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.DuelHistoryTableName,
		Item:      item,
	})
	return err
}
