package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// EnsureTables creates every table the engine needs. Existing tables are
// left untouched. Billing is on-demand so local and production setups use
// the same definitions.
func (s *Store) EnsureTables(ctx context.Context) error {
	specs := []dynamodb.CreateTableInput{
		conversationsTableSpec(s.Tables.Conversations),
		messagesTableSpec(s.Tables.Messages),
		keyOnlyTableSpec(s.Tables.Blocks),
		keyOnlyTableSpec(s.Tables.Follows),
		keyOnlyTableSpec(s.Tables.Settings),
	}

	for _, spec := range specs {
		spec := spec
		_, err := s.Client.CreateTable(ctx, &spec)
		if err != nil {
			var exists *types.ResourceInUseException
			if errors.As(err, &exists) {
				continue
			}
			return fmt.Errorf("create table %s: %w", aws.ToString(spec.TableName), err)
		}
	}
	return nil
}

// TableStatus reports the DynamoDB status string for each configured table.
func (s *Store) TableStatus(ctx context.Context) (map[string]string, error) {
	names := []string{
		s.Tables.Conversations,
		s.Tables.Messages,
		s.Tables.Blocks,
		s.Tables.Follows,
		s.Tables.Settings,
	}

	out := make(map[string]string, len(names))
	for _, name := range names {
		desc, err := s.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(name),
		})
		if err != nil {
			var missing *types.ResourceNotFoundException
			if errors.As(err, &missing) {
				out[name] = "MISSING"
				continue
			}
			return nil, err
		}
		out[name] = string(desc.Table.TableStatus)
	}
	return out, nil
}

func conversationsTableSpec(name string) dynamodb.CreateTableInput {
	return dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("participantA"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("participantB"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String("participantA-index"),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("participantA"), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
			{
				IndexName: aws.String("participantB-index"),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("participantB"), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	}
}

func messagesTableSpec(name string) dynamodb.CreateTableInput {
	return dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("conversationId"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("conversationId"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeRange},
		},
	}
}

func keyOnlyTableSpec(name string) dynamodb.CreateTableInput {
	return dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
	}
}
