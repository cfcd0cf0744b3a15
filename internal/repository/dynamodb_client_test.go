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
)

// fakeDynamo evaluates the two conditional writes against an in-memory item
// so the fixed-window semantics can be checked end to end.
type fakeDynamo struct {
	items     map[string]map[string]types.AttributeValue
	updateErr error
	putErr    error
	updates   int
	puts      int
	lastPut   *dynamodb.PutItemInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func numAttr(t map[string]types.AttributeValue, key string) int64 {
	n, ok := t[key].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	v, _ := strconv.ParseInt(n.Value, 10, 64)
	return v
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	pk := in.Key["PK"].(*types.AttributeValueMemberS).Value
	item, ok := f.items[pk]
	now := numAttr(in.ExpressionAttributeValues, ":now")
	limit := numAttr(in.ExpressionAttributeValues, ":limit")
	if !ok || numAttr(item, "resetTime") < now || numAttr(item, "count") >= limit {
		return nil, &types.ConditionalCheckFailedException{}
	}
	count := numAttr(item, "count") + 1
	item["count"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(count, 10)}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts++
	f.lastPut = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	pk := in.Item["PK"].(*types.AttributeValueMemberS).Value
	now := numAttr(in.ExpressionAttributeValues, ":now")
	if item, ok := f.items[pk]; ok && numAttr(item, "resetTime") >= now {
		return nil, &types.ConditionalCheckFailedException{}
	}
	f.items[pk] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "test-table")
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "t")
	require.Error(t, err)
	_, err = New(newFakeDynamo(), " ")
	require.Error(t, err)
}

func TestIncrement_FixedWindow(t *testing.T) {
	db := newFakeDynamo()
	c := mustNewClient(t, db)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		ok, err := c.Increment(ctx, "contact_ip#1.2.3.4", 5, time.Hour, now)
		require.NoError(t, err)
		require.True(t, ok, "call %d", i)
	}
	ok, err := c.Increment(ctx, "contact_ip#1.2.3.4", 5, time.Hour, now.Add(time.Minute))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, int64(5), numAttr(db.items["RL#contact_ip#1.2.3.4"], "count"))

	ok, err = c.Increment(ctx, "contact_ip#1.2.3.4", 5, time.Hour, now.Add(time.Hour+time.Second))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), numAttr(db.items["RL#contact_ip#1.2.3.4"], "count"))
}

func TestIncrement_WritesTTL(t *testing.T) {
	db := newFakeDynamo()
	c := mustNewClient(t, db)
	now := time.Unix(1_700_000_000, 0)

	ok, err := c.Increment(context.Background(), "k", 3, time.Hour, now)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, db.lastPut)
	require.Equal(t, "test-table", *db.lastPut.TableName)
	require.Equal(t, now.Add(time.Hour).Add(ttlGrace).Unix(), numAttr(db.lastPut.Item, "ttl"))
	require.Equal(t, now.Add(time.Hour).UnixMilli(), numAttr(db.lastPut.Item, "resetTime"))
}

func TestIncrement_UpdateError(t *testing.T) {
	db := newFakeDynamo()
	db.updateErr = errors.New("boom")
	c := mustNewClient(t, db)
	_, err := c.Increment(context.Background(), "k", 3, time.Hour, time.Now())
	require.ErrorContains(t, err, "increment window")
	require.Zero(t, db.puts)
}

func TestIncrement_PutError(t *testing.T) {
	db := newFakeDynamo()
	db.putErr = errors.New("boom")
	c := mustNewClient(t, db)
	_, err := c.Increment(context.Background(), "k", 3, time.Hour, time.Now())
	require.ErrorContains(t, err, "start window")
}

func TestIncrement_FullWindowRetriesOnce(t *testing.T) {
	db := newFakeDynamo()
	c := mustNewClient(t, db)
	ctx := context.Background()
	now := time.Now()

	ok, _ := c.Increment(ctx, "k", 1, time.Hour, now)
	require.True(t, ok)
	db.updates, db.puts = 0, 0

	ok, err := c.Increment(ctx, "k", 1, time.Hour, now)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, maxAttempts, db.updates)
	require.Equal(t, maxAttempts, db.puts)
}

func TestIncrement_RejectsBadArguments(t *testing.T) {
	c := mustNewClient(t, newFakeDynamo())
	_, err := c.Increment(context.Background(), "k", 0, time.Hour, time.Now())
	require.Error(t, err)
}
