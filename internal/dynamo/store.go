// Package dynamo implements the restaurant key-value store on a DynamoDB
// table keyed by BusinessID.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tbourn/go-dining-concierge/internal/domain"
)

const (
	keyAttr = "BusinessID"

	// maxBatch is the BatchWriteItem request limit.
	maxBatch = 25
)

// ErrUnprocessed is returned when DynamoDB keeps rejecting part of a batch.
var ErrUnprocessed = errors.New("dynamodb left items unprocessed")

// API is the subset of the DynamoDB client used by Store.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Store is a restaurant key-value store on DynamoDB.
type Store struct {
	Client API
	Table  string
	// Resubmits is how many times unprocessed batch items are sent again.
	Resubmits int
}

// NewStore returns a Store on table.
func NewStore(client API, table string) *Store {
	return &Store{Client: client, Table: table, Resubmits: 3}
}

// Get returns the record with the given business id or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*domain.RestaurantRecord, error) {
	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Table),
		Key:       map[string]types.AttributeValue{keyAttr: &types.AttributeValueMemberS{Value: id}},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrNotFound
	}
	var rec domain.RestaurantRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return &rec, nil
}

// Scan returns one page of the table. The cursor is the BusinessID of the
// last evaluated key; "" starts from the beginning and a returned "" means
// the scan is complete.
func (s *Store) Scan(ctx context.Context, cursor string, limit int) ([]domain.RestaurantRecord, string, error) {
	in := &dynamodb.ScanInput{TableName: aws.String(s.Table)}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}
	if cursor != "" {
		in.ExclusiveStartKey = map[string]types.AttributeValue{keyAttr: &types.AttributeValueMemberS{Value: cursor}}
	}
	out, err := s.Client.Scan(ctx, in)
	if err != nil {
		return nil, "", fmt.Errorf("dynamodb scan: %w", err)
	}
	recs := make([]domain.RestaurantRecord, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
		return nil, "", fmt.Errorf("decode scan page: %w", err)
	}
	next := ""
	if k, ok := out.LastEvaluatedKey[keyAttr].(*types.AttributeValueMemberS); ok {
		next = k.Value
	}
	return recs, next, nil
}

// BatchPut upserts records in chunks of 25. Items DynamoDB reports as
// unprocessed are resubmitted a bounded number of times.
func (s *Store) BatchPut(ctx context.Context, recs []domain.RestaurantRecord) error {
	now := time.Now().UTC()
	for start := 0; start < len(recs); start += maxBatch {
		end := min(start+maxBatch, len(recs))
		reqs := make([]types.WriteRequest, 0, end-start)
		for i := start; i < end; i++ {
			if recs[i].InsertedAt.IsZero() {
				recs[i].InsertedAt = now
			}
			item, err := attributevalue.MarshalMap(recs[i])
			if err != nil {
				return fmt.Errorf("encode %s: %w", recs[i].BusinessID, err)
			}
			reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}
		if err := s.write(ctx, reqs); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) write(ctx context.Context, reqs []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{s.Table: reqs}
	for attempt := 0; attempt <= s.Resubmits; attempt++ {
		out, err := s.Client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("dynamodb batch write: %w", err)
		}
		if len(out.UnprocessedItems[s.Table]) == 0 {
			return nil
		}
		pending = out.UnprocessedItems
	}
	return fmt.Errorf("%w: %d items", ErrUnprocessed, len(pending[s.Table]))
}

// Ping checks that the table exists.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.Table)})
	if err != nil {
		return fmt.Errorf("dynamodb describe %s: %w", s.Table, err)
	}
	return nil
}
