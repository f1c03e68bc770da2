package store

import (
	"context"
	"errors"
	"fmt"

	amen_errors "amen-chat/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Tables names the DynamoDB tables backing the engine.
type Tables struct {
	Conversations string
	Messages      string
	Blocks        string
	Follows       string
	Settings      string
}

// Store is the document-store boundary. Everything above it speaks in
// optimistic reads and conditional writes; no table lock, no transactions
// beyond the single TransactWrite unit used for message sends.
type Store struct {
	Client *dynamodb.Client
	Tables Tables
}

type ClientConfig struct {
	Region    string
	Endpoint  string // non-empty for local DynamoDB
	AccessKey string
	SecretKey string
}

// NewClient builds the DynamoDB client. A non-empty endpoint switches to
// static credentials so local development does not need real AWS keys.
func NewClient(ctx context.Context, cfg ClientConfig) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	return dynamodb.NewFromConfig(awsCfg, clientOpts...), nil
}

func New(client *dynamodb.Client, tables Tables) *Store {
	return &Store{Client: client, Tables: tables}
}

// Key builds the primary key for tables keyed by a single "id" attribute.
func Key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// MessageKey builds the composite key for the messages table.
func MessageKey(conversationID, messageID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: conversationID},
		"id":             &types.AttributeValueMemberS{Value: messageID},
	}
}

// Exists is the cheap existence probe: a key-only projection so the common
// "record not yet created" path does not pay for a full document read.
func (s *Store) Exists(ctx context.Context, table string, key map[string]types.AttributeValue) (bool, error) {
	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(table),
		Key:                  key,
		ProjectionExpression: aws.String("id"),
	})
	if err != nil {
		return false, translate(err)
	}
	return out.Item != nil, nil
}

// Get reads a single document into out, or ErrNotFound.
func (s *Store) Get(ctx context.Context, table string, key map[string]types.AttributeValue, out interface{}) error {
	res, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	if err != nil {
		return translate(err)
	}
	if res.Item == nil {
		return amen_errors.ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("failed to unmarshal item from table '%s': %w", table, err)
	}
	return nil
}

// Create writes a document only if no document with the same id exists.
// ErrAlreadyExists is the signal for the idempotent-create discipline:
// callers racing on the same key treat it as success and re-read.
func (s *Store) Create(ctx context.Context, table string, item interface{}) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item for table '%s': %w", table, err)
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if conditionFailed(err) {
		return amen_errors.ErrAlreadyExists
	}
	return translate(err)
}

// Put writes a document unconditionally.
func (s *Store) Put(ctx context.Context, table string, item interface{}) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item for table '%s': %w", table, err)
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	})
	return translate(err)
}

// PutIfVersion replaces a document only if its stored version still equals
// expected. A stale writer gets ErrConflict and must re-read and reapply.
func (s *Store) PutIfVersion(ctx context.Context, table string, item interface{}, expected int64) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item for table '%s': %w", table, err)
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(table),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(id) AND version = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expected)},
		},
	})
	if conditionFailed(err) {
		return amen_errors.ErrConflict
	}
	return translate(err)
}

// Update applies an update expression to an existing document.
func (s *Store) Update(ctx context.Context, table string, key map[string]types.AttributeValue, updateExpression string, values map[string]types.AttributeValue) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key,
		UpdateExpression:          aws.String(updateExpression),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: values,
	})
	if conditionFailed(err) {
		return amen_errors.ErrNotFound
	}
	return translate(err)
}

// Delete removes a document if it exists; deleting an absent document is a
// no-op so unblock/unfollow retries are safe.
func (s *Store) Delete(ctx context.Context, table string, key map[string]types.AttributeValue) error {
	_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	return translate(err)
}

// Query runs a prepared query and returns the raw items.
func (s *Store) Query(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	out, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, translate(err)
	}
	return out.Items, nil
}

// TransactWrite commits all items or none of them. A cancelled transaction
// whose reason is a failed condition surfaces as ErrConflict; everything in
// the unit is then retried by the caller from a fresh read.
func (s *Store) TransactWrite(ctx context.Context, items ...types.TransactWriteItem) error {
	_, err := s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err == nil {
		return nil
	}
	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return amen_errors.ErrConflict
			}
		}
	}
	return translate(err)
}

func conditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// translate folds store-level failures into the engine's error taxonomy so
// callers never see raw SDK errors for the classes they must react to.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var throttled *types.ProvisionedThroughputExceededException
	var internal *types.InternalServerError
	if errors.As(err, &throttled) || errors.As(err, &internal) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", amen_errors.ErrUnavailable, err)
	}
	return err
}
