package repository

import (
	"context"
	"fmt"
	"sort"

	"amen-chat/internal/domain/message"
	"amen-chat/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type DynamoMessageRepository struct {
	store *store.Store
}

func NewMessageRepository(s *store.Store) MessageRepository {
	return &DynamoMessageRepository{store: s}
}

func (r *DynamoMessageRepository) ListByConversation(ctx context.Context, conversationID string, limit int) ([]message.Message, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.store.Tables.Messages),
		KeyConditionExpression: aws.String("conversationId = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: conversationID},
		},
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	items, err := r.store.Query(ctx, input)
	if err != nil {
		return nil, err
	}

	var messages []message.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (r *DynamoMessageRepository) Get(ctx context.Context, conversationID, messageID string) (message.Message, error) {
	var m message.Message
	err := r.store.Get(ctx, r.store.Tables.Messages, store.MessageKey(conversationID, messageID), &m)
	return m, err
}

// SaveMutable rewrites only the read set and reactions. Last write wins;
// these fields carry no counters, so concurrent updates cannot corrupt the
// gating state.
func (r *DynamoMessageRepository) SaveMutable(ctx context.Context, m message.Message) error {
	readBy, err := attributevalue.Marshal(m.ReadBy)
	if err != nil {
		return fmt.Errorf("failed to marshal readBy: %w", err)
	}
	reactions, err := attributevalue.Marshal(m.Reactions)
	if err != nil {
		return fmt.Errorf("failed to marshal reactions: %w", err)
	}
	return r.store.Update(ctx, r.store.Tables.Messages,
		store.MessageKey(m.ConversationID, m.ID),
		"SET readBy = :readBy, reactions = :reactions",
		map[string]types.AttributeValue{
			":readBy":    readBy,
			":reactions": reactions,
		})
}
