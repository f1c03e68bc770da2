package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"amen-chat/internal/domain/conversation"
	"amen-chat/internal/domain/message"
	"amen-chat/internal/store"
	amen_errors "amen-chat/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	participantAIndex = "participantA-index"
	participantBIndex = "participantB-index"
)

// conversationRecord mirrors the domain entity plus the two scalar
// participant attributes the listing GSIs key on (a list attribute cannot
// back an index).
type conversationRecord struct {
	conversation.Conversation
	ParticipantA string `dynamodbav:"participantA"`
	ParticipantB string `dynamodbav:"participantB"`
}

func newConversationRecord(c conversation.Conversation) conversationRecord {
	rec := conversationRecord{Conversation: c}
	if len(c.ParticipantIDs) == 2 {
		rec.ParticipantA = c.ParticipantIDs[0]
		rec.ParticipantB = c.ParticipantIDs[1]
	}
	return rec
}

type DynamoConversationRepository struct {
	store *store.Store
}

func NewConversationRepository(s *store.Store) ConversationRepository {
	return &DynamoConversationRepository{store: s}
}

func (r *DynamoConversationRepository) Exists(ctx context.Context, id string) (bool, error) {
	return r.store.Exists(ctx, r.store.Tables.Conversations, store.Key(id))
}

func (r *DynamoConversationRepository) Get(ctx context.Context, id string) (conversation.Conversation, error) {
	var rec conversationRecord
	if err := r.store.Get(ctx, r.store.Tables.Conversations, store.Key(id), &rec); err != nil {
		return conversation.Conversation{}, err
	}
	return rec.Conversation, nil
}

// GetOrCreate is the race-free creation path: probe, read, then create with
// an existence condition. Two clients racing on the same pair converge on
// one record; the loser of the create race just reads the winner's record.
func (r *DynamoConversationRepository) GetOrCreate(ctx context.Context, initial conversation.Conversation) (conversation.Conversation, bool, error) {
	exists, err := r.Exists(ctx, initial.ID)
	if err != nil {
		return conversation.Conversation{}, false, err
	}
	if exists {
		conv, err := r.Get(ctx, initial.ID)
		return conv, false, err
	}

	err = r.store.Create(ctx, r.store.Tables.Conversations, newConversationRecord(initial))
	if errors.Is(err, amen_errors.ErrAlreadyExists) {
		conv, err := r.Get(ctx, initial.ID)
		return conv, false, err
	}
	if err != nil {
		return conversation.Conversation{}, false, err
	}
	return initial, true, nil
}

func (r *DynamoConversationRepository) Update(ctx context.Context, c conversation.Conversation) (conversation.Conversation, error) {
	expected := c.Version
	c.Version++
	if err := r.store.PutIfVersion(ctx, r.store.Tables.Conversations, newConversationRecord(c), expected); err != nil {
		return conversation.Conversation{}, err
	}
	return c, nil
}

// ApplyMessage commits the message document and the conversation mutation
// in one transaction. Either both land or neither does: an aborted or
// conflicted send never leaves a counter incremented without its message,
// or a message without its counter.
func (r *DynamoConversationRepository) ApplyMessage(ctx context.Context, c conversation.Conversation, m message.Message) (conversation.Conversation, error) {
	expected := c.Version
	c.Version++

	convItem, err := attributevalue.MarshalMap(newConversationRecord(c))
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("failed to marshal conversation: %w", err)
	}
	msgItem, err := attributevalue.MarshalMap(m)
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	err = r.store.TransactWrite(ctx,
		types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(r.store.Tables.Messages),
				Item:                msgItem,
				ConditionExpression: aws.String("attribute_not_exists(id)"),
			},
		},
		types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(r.store.Tables.Conversations),
				Item:                convItem,
				ConditionExpression: aws.String("attribute_exists(id) AND version = :expected"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expected)},
				},
			},
		},
	)
	if err != nil {
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (r *DynamoConversationRepository) ListForUser(ctx context.Context, userID string) ([]conversation.Conversation, error) {
	first, err := r.queryIndex(ctx, participantAIndex, "participantA", userID)
	if err != nil {
		return nil, err
	}
	second, err := r.queryIndex(ctx, participantBIndex, "participantB", userID)
	if err != nil {
		return nil, err
	}

	out := append(first, second...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out, nil
}

func (r *DynamoConversationRepository) queryIndex(ctx context.Context, index, attr, userID string) ([]conversation.Conversation, error) {
	items, err := r.store.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.store.Tables.Conversations),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String(fmt.Sprintf("%s = :u", attr)),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}

	var records []conversationRecord
	if err := attributevalue.UnmarshalListOfMaps(items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversations: %w", err)
	}
	out := make([]conversation.Conversation, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Conversation)
	}
	return out, nil
}
