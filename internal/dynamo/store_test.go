package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tbourn/go-dining-concierge/internal/domain"
)

// fakeTable is an in-memory single-key table.
type fakeTable struct {
	items       map[string]map[string]types.AttributeValue
	batchCalls  int
	batchSizes  []int
	rejectFirst int // items reported unprocessed on the first batch call
	alwaysLeft  bool
	err         error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[string]map[string]types.AttributeValue{}}
}

func keyOf(m map[string]types.AttributeValue) string {
	return m[keyAttr].(*types.AttributeValueMemberS).Value
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeTable) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	start := ""
	if in.ExclusiveStartKey != nil {
		start = keyOf(in.ExclusiveStartKey)
	}
	limit := len(keys)
	if in.Limit != nil {
		limit = int(*in.Limit)
	}
	out := &dynamodb.ScanOutput{}
	for _, k := range keys {
		if start != "" && k <= start {
			continue
		}
		if len(out.Items) == limit {
			break
		}
		out.Items = append(out.Items, f.items[k])
	}
	if len(out.Items) == limit && len(out.Items) > 0 {
		last := keyOf(out.Items[len(out.Items)-1])
		if last != keys[len(keys)-1] {
			out.LastEvaluatedKey = map[string]types.AttributeValue{keyAttr: &types.AttributeValueMemberS{Value: last}}
		}
	}
	return out, nil
}

func (f *fakeTable) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batchCalls++
	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, reqs := range in.RequestItems {
		f.batchSizes = append(f.batchSizes, len(reqs))
		for i, r := range reqs {
			if f.alwaysLeft || (f.batchCalls == 1 && i < f.rejectFirst) {
				out.UnprocessedItems[table] = append(out.UnprocessedItems[table], r)
				continue
			}
			f.items[keyOf(r.PutRequest.Item)] = r.PutRequest.Item
		}
	}
	return out, nil
}

func (f *fakeTable) DescribeTable(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, f.err
}

func record(i int) domain.RestaurantRecord {
	return domain.RestaurantRecord{
		BusinessID:  fmt.Sprintf("biz-%03d", i),
		Name:        fmt.Sprintf("Place %d", i),
		Address:     "1 Main St, New York, NY 10001",
		Cuisine:     "italian",
		Coordinates: domain.Coordinates{Latitude: 40.75, Longitude: -73.99},
		ReviewCount: 120,
		Rating:      4.5,
		ZipCode:     "10001",
	}
}

func TestStore_BatchPutChunksAndGet(t *testing.T) {
	ctx := context.Background()
	ft := newFakeTable()
	s := NewStore(ft, "yelp-restaurants")

	var recs []domain.RestaurantRecord
	for i := 0; i < 60; i++ {
		recs = append(recs, record(i))
	}
	if err := s.BatchPut(ctx, recs); err != nil {
		t.Fatalf("BatchPut: %v", err)
	}
	if fmt.Sprint(ft.batchSizes) != "[25 25 10]" {
		t.Fatalf("batch sizes = %v; want [25 25 10]", ft.batchSizes)
	}

	got, err := s.Get(ctx, "biz-007")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Place 7" || got.Coordinates.Longitude != -73.99 || got.ReviewCount != 120 || got.InsertedAt.IsZero() {
		t.Fatalf("unexpected record %+v", got)
	}

	// stored attribute names
	item := ft.items["biz-007"]
	for _, attr := range []string{"BusinessID", "Name", "Address", "Cuisine", "Coordinates", "NumberOfReviews", "Rating", "ZipCode", "insertedAtTimestamp"} {
		if _, ok := item[attr]; !ok {
			t.Fatalf("attribute %s missing from item", attr)
		}
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore(newFakeTable(), "t")
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestStore_ScanPaginates(t *testing.T) {
	ctx := context.Background()
	ft := newFakeTable()
	s := NewStore(ft, "t")
	var recs []domain.RestaurantRecord
	for i := 0; i < 5; i++ {
		recs = append(recs, record(i))
	}
	if err := s.BatchPut(ctx, recs); err != nil {
		t.Fatalf("BatchPut: %v", err)
	}

	var ids []string
	cursor := ""
	for {
		page, next, err := s.Scan(ctx, cursor, 2)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		for _, r := range page {
			ids = append(ids, r.BusinessID)
		}
		if next == "" {
			break
		}
		cursor = next
	}
	if len(ids) != 5 || ids[4] != "biz-004" {
		t.Fatalf("scanned %v", ids)
	}
}

func TestStore_ResubmitsUnprocessed(t *testing.T) {
	ft := newFakeTable()
	ft.rejectFirst = 3
	s := NewStore(ft, "t")
	if err := s.BatchPut(context.Background(), []domain.RestaurantRecord{record(1), record(2), record(3), record(4)}); err != nil {
		t.Fatalf("BatchPut: %v", err)
	}
	if ft.batchCalls != 2 || len(ft.items) != 4 {
		t.Fatalf("calls=%d items=%d; want 2 calls, 4 items", ft.batchCalls, len(ft.items))
	}
}

func TestStore_GivesUpOnPersistentUnprocessed(t *testing.T) {
	ft := newFakeTable()
	ft.alwaysLeft = true
	s := NewStore(ft, "t")
	s.Resubmits = 2
	err := s.BatchPut(context.Background(), []domain.RestaurantRecord{record(1)})
	if !errors.Is(err, ErrUnprocessed) {
		t.Fatalf("err = %v; want ErrUnprocessed", err)
	}
	if ft.batchCalls != 3 {
		t.Fatalf("batch calls = %d; want 3", ft.batchCalls)
	}
}

func TestStore_ErrorsWrapped(t *testing.T) {
	boom := errors.New("boom")
	ft := newFakeTable()
	ft.err = boom
	s := NewStore(ft, "t")
	ctx := context.Background()
	if _, err := s.Get(ctx, "x"); !errors.Is(err, boom) {
		t.Fatalf("Get err = %v", err)
	}
	if _, _, err := s.Scan(ctx, "", 1); !errors.Is(err, boom) {
		t.Fatalf("Scan err = %v", err)
	}
	if err := s.BatchPut(ctx, []domain.RestaurantRecord{record(1)}); !errors.Is(err, boom) {
		t.Fatalf("BatchPut err = %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, boom) {
		t.Fatalf("Ping err = %v", err)
	}
}

func TestStore_KeepsInsertedAt(t *testing.T) {
	ft := newFakeTable()
	s := NewStore(ft, "t")
	r := record(1)
	r.InsertedAt = time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	if err := s.BatchPut(context.Background(), []domain.RestaurantRecord{r}); err != nil {
		t.Fatalf("BatchPut: %v", err)
	}
	got, _ := s.Get(context.Background(), r.BusinessID)
	if !got.InsertedAt.Equal(r.InsertedAt) {
		t.Fatalf("InsertedAt = %v", got.InsertedAt)
	}
}
