package db

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/sentimas/internal/models"
)

const maxBatchWriteSize = 25

type dynamoAPI interface {
	dynamodb.ScanAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

type DynamoStore struct {
	client  dynamoAPI
	table   string
	backoff time.Duration
}

func NewDynamoStore(client *dynamodb.Client, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table, backoff: 500 * time.Millisecond}
}

// RecordToDynamoDBItem encodes a record with the same attribute names the
// JSON API uses.
func RecordToDynamoDBItem(record models.AnalysisRecord) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] failed to marshal record %s: %w", record.ID, err)
	}
	return item, nil
}

func (s *DynamoStore) Save(ctx context.Context, original string, result models.ClassificationResult, source string) (models.AnalysisRecord, error) {
	record := NewRecord(original, result, source)
	item, err := RecordToDynamoDBItem(record)
	if err != nil {
		return models.AnalysisRecord{}, err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return models.AnalysisRecord{}, fmt.Errorf("[DynamoDB] Failed to put analysis: %w", err)
	}
	return record, nil
}

// SaveBatch writes records in chunks of 25, retrying unprocessed items with
// exponential backoff.
func (s *DynamoStore) SaveBatch(ctx context.Context, records []models.AnalysisRecord) error {
	for i := 0; i < len(records); i += maxBatchWriteSize {
		if err := ctx.Err(); err != nil {
			slog.Warn("[DynamoDB] context canceled")
			return err
		}

		end := min(i+maxBatchWriteSize, len(records))
		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, r := range records[i:end] {
			item, err := RecordToDynamoDBItem(r)
			if err != nil {
				return err
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.table: writeRequests},
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to batch write analyses: %w", err)
		}

		retryCount := 0
		backoff := s.backoff
		for len(out.UnprocessedItems) > 0 && retryCount < 3 {
			time.Sleep(backoff)
			backoff *= 2

			slog.Warn("[DynamoDB] Retrying unprocessed items...",
				slog.Int("attempt", retryCount+1),
				slog.Int("remaining", len(out.UnprocessedItems[s.table])))

			out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: out.UnprocessedItems,
			})
			if err != nil {
				return fmt.Errorf("[DynamoDB] Retry error: %w", err)
			}
			retryCount++
		}

		if remaining := len(out.UnprocessedItems[s.table]); remaining > 0 {
			return fmt.Errorf("[DynamoDB] %d items not written after retries", remaining)
		}
	}

	slog.Info("[DynamoDB] Successfully stored analyses", slog.Int("count", len(records)))
	return nil
}

func (s *DynamoStore) ListAll(ctx context.Context) ([]models.AnalysisRecord, error) {
	var records []models.AnalysisRecord
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})

	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan for analyses failed: %w", err)
		}
		var page []models.AnalysisRecord
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("[DynamoDB] Unable to unmarshal page: %w", err)
		}
		records = append(records, page...)
	}

	// Scan order is arbitrary.
	slices.SortStableFunc(records, func(a, b models.AnalysisRecord) int {
		if c := b.AnalyzedAt.Compare(a.AnalyzedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return records, nil
}

func (s *DynamoStore) Close() {}
