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
	pkPrefixRateLimit = "RL#"
	// ttlGrace keeps an expired window around briefly so clock skew between
	// instances cannot resurrect an old count.
	ttlGrace = time.Hour
	// maxAttempts bounds the increment/reset race with other instances.
	maxAttempts = 2
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Client stores fixed-window rate limit counters in a DynamoDB table keyed by PK.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// rateLimitPK returns the partition key for a limiter key.
func rateLimitPK(key string) string {
	return pkPrefixRateLimit + key
}

func epochMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// Increment applies one fixed-window step for key.
//
// It first tries to bump a live window that is still under limit. If that
// condition fails it tries to start a fresh window, which only succeeds when
// no window exists or the stored one has expired. When both fail the window
// is live and full, so the request is rejected.
func (c *Client) Increment(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error) {
	if limit <= 0 || window <= 0 {
		return false, errors.New("repository: Increment: limit and window must be positive")
	}
	pk := rateLimitPK(key)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		ok, err := c.incrementLive(ctx, pk, limit, now)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		started, err := c.startWindow(ctx, pk, window, now)
		if err != nil {
			return false, err
		}
		if started {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) incrementLive(ctx context.Context, pk string, limit int, now time.Time) (bool, error) {
	_, err := c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
		},
		UpdateExpression:    aws.String("SET #count = #count + :one"),
		ConditionExpression: aws.String("attribute_exists(PK) AND #reset >= :now AND #count < :limit"),
		ExpressionAttributeNames: map[string]string{
			"#count": "count",
			"#reset": "resetTime",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":now":   &types.AttributeValueMemberN{Value: epochMillis(now)},
			":limit": &types.AttributeValueMemberN{Value: strconv.Itoa(limit)},
		},
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("repository: increment window: %w", err)
	}
	return true, nil
}

func (c *Client) startWindow(ctx context.Context, pk string, window time.Duration, now time.Time) (bool, error) {
	reset := now.Add(window)
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                windowItem(pk, 1, reset),
		ConditionExpression: aws.String("attribute_not_exists(PK) OR #reset < :now"),
		ExpressionAttributeNames: map[string]string{
			"#reset": "resetTime",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: epochMillis(now)},
		},
	})
	if isConditionFailed(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("repository: start window: %w", err)
	}
	return true, nil
}

func windowItem(pk string, count int, reset time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: pk},
		"count":     &types.AttributeValueMemberN{Value: strconv.Itoa(count)},
		"resetTime": &types.AttributeValueMemberN{Value: epochMillis(reset)},
		"ttl":       &types.AttributeValueMemberN{Value: strconv.FormatInt(reset.Add(ttlGrace).Unix(), 10)},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
