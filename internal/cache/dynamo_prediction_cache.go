package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/moneytides/backend-go/internal/config"
	"github.com/moneytides/backend-go/internal/models"
	"github.com/moneytides/backend-go/internal/retry"
	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// DynamoPredictionCache handles caching tide predictions in DynamoDB
type DynamoPredictionCache struct {
	client    DynamoDBClient
	config    *config.CacheConfig
	tableName string
	clock     clock
}

func NewDynamoPredictionCache(client DynamoDBClient, cacheConfig *config.CacheConfig) *DynamoPredictionCache {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}
	table := cacheConfig.DynamoTableName
	if table == "" {
		table = "tide-predictions-cache"
	}
	return &DynamoPredictionCache{
		client:    client,
		config:    cacheConfig,
		tableName: table,
		clock:     systemClock{},
	}
}

// GetPredictions retrieves the cached prediction window starting on windowStart.
// A missing or expired record is a miss, not an error.
func (c *DynamoPredictionCache) GetPredictions(ctx context.Context, stationID string, windowStart time.Time) (*models.PredictionRecord, error) {
	dateStr := windowStart.Format(dateLayout)

	input := &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"stationId": &types.AttributeValueMemberS{Value: stationID},
			"date":      &types.AttributeValueMemberS{Value: dateStr},
		},
	}

	result, err := c.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("getting predictions from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var record models.PredictionRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling prediction record: %w", err)
	}

	if !c.isValid(record) {
		log.Debug().
			Str("station_id", stationID).
			Str("date", dateStr).
			Msg("Cache expired")
		return nil, nil
	}

	return &record, nil
}

// SavePredictions saves predictions to the cache
func (c *DynamoPredictionCache) SavePredictions(ctx context.Context, record models.PredictionRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid prediction record: %w", err)
	}

	item, err := attributevalue.MarshalMap(c.stamp(record))
	if err != nil {
		return fmt.Errorf("marshaling prediction record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	}

	if _, err := c.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("putting predictions in DynamoDB: %w", err)
	}

	log.Debug().
		Str("station_id", record.StationID).
		Str("date", record.Date).
		Int("predictions", len(record.Predictions)).
		Msg("Saved predictions to cache")

	return nil
}

// SavePredictionsBatch writes records in chunks of the configured batch size.
// Unprocessed items are resent with linear backoff.
func (c *DynamoPredictionCache) SavePredictionsBatch(ctx context.Context, records []models.PredictionRecord) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return fmt.Errorf("invalid prediction record: %w", err)
		}
	}

	batchSize := c.config.BatchSize
	if batchSize <= 0 {
		batchSize = 25
	}
	policy := retry.Policy{MaxAttempts: c.config.MaxBatchRetries, BaseDelay: 100 * time.Millisecond}

	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}

		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, record := range records[i:end] {
			item, err := attributevalue.MarshalMap(c.stamp(record))
			if err != nil {
				return fmt.Errorf("marshaling prediction record: %w", err)
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		pending := map[string][]types.WriteRequest{c.tableName: writeRequests}
		_, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (struct{}, error) {
			out, err := c.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return struct{}{}, err
			}
			if len(out.UnprocessedItems[c.tableName]) > 0 {
				pending = out.UnprocessedItems
				return struct{}{}, fmt.Errorf("%d unprocessed items", len(out.UnprocessedItems[c.tableName]))
			}
			return struct{}{}, nil
		})
		if err != nil {
			return fmt.Errorf("batch writing predictions: %w", err)
		}
	}

	return nil
}

func (c *DynamoPredictionCache) stamp(record models.PredictionRecord) models.PredictionRecord {
	now := c.clock.Now().Unix()
	record.LastUpdated = now
	record.TTL = now + int64(c.config.GetDynamoTTL().Seconds())
	return record
}

func (c *DynamoPredictionCache) isValid(record models.PredictionRecord) bool {
	return c.clock.Now().Unix() < record.TTL
}
