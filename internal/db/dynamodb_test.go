package db

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/sentimas/internal/models"
)

type fakeDynamo struct {
	items       []map[string]types.AttributeValue
	batchCalls  int
	unprocessed int // batch calls that bounce back their items
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{Items: f.items}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.items = append(f.items, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.batchCalls++
	if f.unprocessed > 0 {
		f.unprocessed--
		return &dynamodb.BatchWriteItemOutput{UnprocessedItems: in.RequestItems}, nil
	}
	for _, reqs := range in.RequestItems {
		for _, r := range reqs {
			f.items = append(f.items, r.PutRequest.Item)
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func TestRecordToDynamoDBItem(t *testing.T) {
	r := models.AnalysisRecord{
		ID:         "abc",
		Source:     models.SourceTikTok,
		Sentiment:  models.Positive,
		Confidence: 0.9,
		Scores:     models.ClassScores{POS: 0.9, NEU: 0.05, NEG: 0.05},
		AnalyzedAt: time.Now(),
	}
	item, err := RecordToDynamoDBItem(r)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "fuente", "texto_original", "sentimiento", "confianza", "scores_detallados", "fecha_analisis"} {
		if _, ok := item[key]; !ok {
			t.Errorf("missing attribute %q", key)
		}
	}
	scores, ok := item["scores_detallados"].(*types.AttributeValueMemberM)
	if !ok {
		t.Fatalf("scores_detallados is %T", item["scores_detallados"])
	}
	if _, ok := scores.Value["POS"]; !ok {
		t.Error("scores missing POS")
	}
}

func TestDynamoStoreSaveAndList(t *testing.T) {
	fake := &fakeDynamo{}
	store := &DynamoStore{client: fake, table: "analisis"}

	defer func(orig func() time.Time) { now = orig }(now)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, text := range []string{"primero", "segundo", "tercero"} {
		now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		if _, err := store.Save(context.Background(), text, models.ClassificationResult{Sentiment: models.Neutral}, models.SourceAPI); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].OriginalText != "tercero" || got[2].OriginalText != "primero" {
		t.Errorf("not most-recent first: %q, %q, %q", got[0].OriginalText, got[1].OriginalText, got[2].OriginalText)
	}
}

func TestDynamoStoreSaveBatch(t *testing.T) {
	records := make([]models.AnalysisRecord, 30)
	for i := range records {
		records[i] = NewRecord("texto", models.ClassificationResult{Sentiment: models.Positive}, models.SourceReddit)
	}

	t.Run("chunks and retries unprocessed items", func(t *testing.T) {
		fake := &fakeDynamo{unprocessed: 1}
		store := &DynamoStore{client: fake, table: "analisis", backoff: time.Millisecond}
		if err := store.SaveBatch(context.Background(), records); err != nil {
			t.Fatal(err)
		}
		if len(fake.items) != 30 {
			t.Errorf("stored %d items", len(fake.items))
		}
		if fake.batchCalls != 3 {
			t.Errorf("batch calls = %d, want 2 chunks plus one retry", fake.batchCalls)
		}
	})

	t.Run("gives up after retries", func(t *testing.T) {
		fake := &fakeDynamo{unprocessed: 10}
		store := &DynamoStore{client: fake, table: "analisis", backoff: time.Millisecond}
		if err := store.SaveBatch(context.Background(), records[:5]); err == nil {
			t.Error("expected error for items left unprocessed")
		}
	})
}
