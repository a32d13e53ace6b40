package repository

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"early-warning/internal/patterns"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	putErr       error
	lastGetInput *dynamodb.GetItemInput
	lastPutInput *dynamodb.PutItemInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func makeRecordItem(key, record string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":     &types.AttributeValueMemberS{Value: patternPK(key)},
		"SK":     &types.AttributeValueMemberS{Value: skRecord},
		"record": &types.AttributeValueMemberS{Value: record},
	}
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "test-table")
	require.NoError(t, err)
	return c
}

func sAttr(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %q should be a string", key)
	return v.Value
}

var _ patterns.Backend = (*Client)(nil)

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "t")
	require.ErrorContains(t, err, "api must not be nil")

	_, err = New(&fakeDynamo{}, "  ")
	require.ErrorContains(t, err, "table name")
}

func TestGetRecord_HappyPath(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: makeRecordItem("patterns", `{"temporalTrends":[]}`)}}
	c := mustNewClient(t, db)

	data, err := c.GetRecord(context.Background(), "patterns")
	require.NoError(t, err)
	require.JSONEq(t, `{"temporalTrends":[]}`, string(data))

	require.Equal(t, "test-table", *db.lastGetInput.TableName)
	require.True(t, *db.lastGetInput.ConsistentRead)
	require.Equal(t, "PATTERN#patterns", sAttr(t, db.lastGetInput.Key, "PK"))
	require.Equal(t, skRecord, sAttr(t, db.lastGetInput.Key, "SK"))
}

func TestGetRecord_NotFound(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{}})
	data, err := c.GetRecord(context.Background(), "patterns")
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestGetRecord_ApiError(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{getErr: errors.New("throttled")})
	_, err := c.GetRecord(context.Background(), "patterns")
	require.ErrorContains(t, err, "throttled")
}

func TestGetRecord_WrongAttributeType(t *testing.T) {
	item := makeRecordItem("patterns", "")
	item["record"] = &types.AttributeValueMemberN{Value: "1"}
	c := mustNewClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: item}})

	_, err := c.GetRecord(context.Background(), "patterns")
	require.ErrorContains(t, err, "not a string")
}

func TestGetRecord_MissingAttribute(t *testing.T) {
	item := makeRecordItem("patterns", "")
	delete(item, "record")
	c := mustNewClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: item}})

	_, err := c.GetRecord(context.Background(), "patterns")
	require.ErrorContains(t, err, "missing attribute")
}

func TestPutRecord_WritesItemWithTTL(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	err := c.PutRecord(context.Background(), "patterns", []byte(`{"a":1}`))
	require.NoError(t, err)

	item := db.lastPutInput.Item
	require.Equal(t, "test-table", *db.lastPutInput.TableName)
	require.Equal(t, "PATTERN#patterns", sAttr(t, item, "PK"))
	require.Equal(t, skRecord, sAttr(t, item, "SK"))
	require.Equal(t, "patterns", sAttr(t, item, "recordKey"))
	require.Equal(t, `{"a":1}`, sAttr(t, item, "record"))
	require.Equal(t, "2026-03-10T12:00:00Z", sAttr(t, item, "updatedAt"))

	ttl, ok := item["ttl"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	require.Equal(t, strconv.FormatInt(now.Add(30*24*time.Hour).Unix(), 10), ttl.Value)
}

func TestPutRecord_EmptyKey(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	err := c.PutRecord(context.Background(), " ", []byte("{}"))
	require.ErrorContains(t, err, "key is required")
	require.Nil(t, db.lastPutInput)
}

func TestPutRecord_ApiError(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{putErr: errors.New("conditional check failed")})
	err := c.PutRecord(context.Background(), "patterns", []byte("{}"))
	require.ErrorContains(t, err, "conditional check failed")
}

func TestClient_BacksPatternStore(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{}}
	c := mustNewClient(t, db)

	store, err := patterns.Open(context.Background(), c, "patterns")
	require.NoError(t, err)
	require.NoError(t, store.Update(context.Background(), patternsSnapshot(-0.4)))

	require.NotNil(t, db.lastPutInput)
	require.Contains(t, sAttr(t, db.lastPutInput.Item, "record"), `"moodTrendSlope":-0.4`)
}
