package services

import (
	"context"
	"errors"
	"sync"

	"github.com/tbourn/go-dining-concierge/internal/dialog"
	"github.com/tbourn/go-dining-concierge/internal/domain"
	"github.com/tbourn/go-dining-concierge/internal/notify"
	"github.com/tbourn/go-dining-concierge/internal/queue"
	"github.com/tbourn/go-dining-concierge/internal/search"
	"github.com/tbourn/go-dining-concierge/internal/yelp"
)

// ---------- fakes shared by the service tests ----------

type fakeIndex struct {
	hits     []domain.SearchIndexEntry
	err      error
	calls    int
	upserted []domain.SearchIndexEntry
	bulks    int
	created  bool
}

func (f *fakeIndex) Search(_ context.Context, cuisine string, size int) ([]domain.SearchIndexEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.SearchIndexEntry
	for _, h := range f.hits {
		if h.Cuisine == cuisine && len(out) < size {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeIndex) BulkUpsert(_ context.Context, es []domain.SearchIndexEntry) error {
	if f.err != nil {
		return f.err
	}
	f.bulks++
	f.upserted = append(f.upserted, es...)
	return nil
}

func (f *fakeIndex) EnsureIndex(context.Context) (bool, error) { return f.created, f.err }

func (f *fakeIndex) All(context.Context, int) ([]domain.SearchIndexEntry, error) { return f.hits, f.err }

var _ search.Index = (*fakeIndex)(nil)

type fakeStore struct {
	recs  map[string]domain.RestaurantRecord
	err   error
	gets  int
	order []string // scan order
	puts  [][]domain.RestaurantRecord
}

func (f *fakeStore) Get(_ context.Context, id string) (*domain.RestaurantRecord, error) {
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.recs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

// Scan pages over order using the last id as cursor.
func (f *fakeStore) Scan(_ context.Context, cursor string, limit int) ([]domain.RestaurantRecord, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	start := 0
	if cursor != "" {
		for i, id := range f.order {
			if id == cursor {
				start = i + 1
			}
		}
	}
	end := start + limit
	if end > len(f.order) {
		end = len(f.order)
	}
	var out []domain.RestaurantRecord
	for _, id := range f.order[start:end] {
		out = append(out, f.recs[id])
	}
	next := ""
	if end < len(f.order) {
		next = f.order[end-1]
	}
	return out, next, nil
}

func (f *fakeStore) BatchPut(_ context.Context, recs []domain.RestaurantRecord) error {
	if f.err != nil {
		return f.err
	}
	f.puts = append(f.puts, recs)
	return nil
}

type fakeQueue struct {
	mu        sync.Mutex
	msgs      []*queue.Message
	deleted   []string
	published [][]byte
	recvErr   error
	delErr    error
	pubErr    error
}

func (f *fakeQueue) Receive(context.Context) (*queue.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recvErr != nil {
		return nil, f.recvErr
	}
	if len(f.msgs) == 0 {
		return nil, nil
	}
	return f.msgs[0], nil
}

func (f *fakeQueue) Delete(_ context.Context, m *queue.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, m.ID)
	for i, q := range f.msgs {
		if q.ID == m.ID {
			f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeQueue) Publish(_ context.Context, body []byte) (string, error) {
	if f.pubErr != nil {
		return "", f.pubErr
	}
	f.published = append(f.published, body)
	return "msg-1", nil
}

type fakeNotifier struct {
	sent []notify.Recommendation
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, r notify.Recommendation) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, r)
	return nil
}

type fakeRecommend struct {
	details *domain.RestaurantDetails
	err     error
	calls   int
}

func (f *fakeRecommend) Recommend(context.Context, string) (*domain.RestaurantDetails, error) {
	f.calls++
	return f.details, f.err
}

type fakeDeduper struct {
	seen    map[string]bool
	marked  []string
	seenErr error
	markErr error
}

func (f *fakeDeduper) Seen(_ context.Context, id string) (bool, error) {
	return f.seen[id], f.seenErr
}

func (f *fakeDeduper) Mark(_ context.Context, id, _, _ string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, id)
	return nil
}

type fakeSource struct {
	pages map[string][][]yelp.Business // term -> pages by call index
	calls map[string][]int             // term -> offsets requested
	errAt map[string]int               // term -> offset returning an error
}

func (f *fakeSource) Search(_ context.Context, _, term string, _, offset int) ([]yelp.Business, error) {
	if f.calls == nil {
		f.calls = map[string][]int{}
	}
	f.calls[term] = append(f.calls[term], offset)
	if at, ok := f.errAt[term]; ok && at == offset {
		return nil, &yelp.APIError{Status: 500, Body: "boom"}
	}
	n := len(f.calls[term]) - 1
	if n < len(f.pages[term]) {
		return f.pages[term][n], nil
	}
	return nil, nil
}

type fakeEngine struct {
	msgs []dialog.Message
	err  error
	got  string
}

func (f *fakeEngine) Recognize(_ context.Context, _ string, text string) ([]dialog.Message, error) {
	f.got = text
	return f.msgs, f.err
}

var errBoom = errors.New("boom")
