package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	pkPrefixPattern = "PATTERN#"
	skRecord        = "RECORD#"
	ttlDuration     = 30 * 24 * time.Hour // matches snapshot retention
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client stores pattern records in a DynamoDB table, one item per record key.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

// patternPK returns the DynamoDB partition key for a pattern record.
func patternPK(key string) string {
	return pkPrefixPattern + key
}

// ttlValue returns a Unix timestamp 30 days after t.
func ttlValue(t time.Time) int64 {
	return t.Add(ttlDuration).Unix()
}

// GetRecord returns the serialized record, or nil when the item does not exist.
func (c *Client) GetRecord(ctx context.Context, key string) ([]byte, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: patternPK(key)},
			"SK": &types.AttributeValueMemberS{Value: skRecord},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: GetRecord get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}

	record, err := strAttr(out.Item, "record")
	if err != nil {
		return nil, fmt.Errorf("repository: GetRecord decode: %w", err)
	}
	return []byte(record), nil
}

// PutRecord replaces the record and pushes its expiry out by the TTL.
func (c *Client) PutRecord(ctx context.Context, key string, data []byte) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("repository: PutRecord: key is required")
	}
	now := c.now().UTC()
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: patternPK(key)},
			"SK":        &types.AttributeValueMemberS{Value: skRecord},
			"recordKey": &types.AttributeValueMemberS{Value: key},
			"record":    &types.AttributeValueMemberS{Value: string(data)},
			"updatedAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			"ttl":       &types.AttributeValueMemberN{Value: strconv.FormatInt(ttlValue(now), 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: PutRecord: %w", err)
	}
	return nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
