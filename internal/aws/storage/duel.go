package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/MatinDeevv/ByteDuel-sub000/internal/domains/entities"
	"github.com/MatinDeevv/ByteDuel-sub000/pkg/utils"
)

var ErrActiveDuelNotFound = fmt.Errorf("active duel not found")

// CreateDuel persists a new active duel and returns its id. This is
// the DuelService collaborator the matcher commits pairings through.
func (client *Client) CreateDuel(
	ctx context.Context,
	player1Id, player2Id string,
	mode entities.GameMode,
	timeControl string,
	color1, color2 entities.Color,
) (string, error) {
	duel := entities.ActiveDuel{
		DuelId:       utils.GenerateUUID(),
		Player1Id:    player1Id,
		Player2Id:    player2Id,
		Player1Color: color1,
		Player2Color: color2,
		GameMode:     mode,
		TimeControl:  timeControl,
		CreatedAt:    time.Now(),
	}
	item, err := attributevalue.MarshalMap(duel)
	if err != nil {
		return "", err
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.ActiveDuelsTableName,
		Item:      item,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create duel: %w", err)
	}
	return duel.DuelId, nil
}

// GetActiveDuel fetches a duel by id.
func (client *Client) GetActiveDuel(ctx context.Context, duelId string) (entities.ActiveDuel, error) {
	output, err := client.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: client.cfg.ActiveDuelsTableName,
		Key: map[string]types.AttributeValue{
			"DuelId": &types.AttributeValueMemberS{Value: duelId},
		},
	})
	if err != nil {
		return entities.ActiveDuel{}, err
	}
	if output.Item == nil {
		return entities.ActiveDuel{}, ErrActiveDuelNotFound
	}
	var duel entities.ActiveDuel
	if err := attributevalue.UnmarshalMap(output.Item, &duel); err != nil {
		return entities.ActiveDuel{}, err
	}
	return duel, nil
}

// FinishDuel removes the duel from the active set.
func (client *Client) FinishDuel(ctx context.Context, duelId string) error {
	_, err := client.dynamodb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: client.cfg.ActiveDuelsTableName,
		Key: map[string]types.AttributeValue{
			"DuelId": &types.AttributeValueMemberS{Value: duelId},
		},
	})
	return err
}
