package epub

import (
	"fmt"
	"sync"
	"time"

	"github.com/yuanying/novel2epub/internal/fetch"
)

// fakeFetcher serves canned responses keyed by URL and records every call.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]*fetch.Result
	errs      map[string]error
	calls     []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: make(map[string]*fetch.Result),
		errs:      make(map[string]error),
	}
}

func (f *fakeFetcher) Fetch(rawURL string) (*fetch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rawURL)
	if err, ok := f.errs[rawURL]; ok {
		return nil, err
	}
	if res, ok := f.responses[rawURL]; ok {
		return res, nil
	}
	return nil, fmt.Errorf("connection refused: %s", rawURL)
}

func newTestBook(f fetch.Client) *Book {
	return NewBook(BookOptions{
		Fetcher: f,
		Now: func() time.Time {
			return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		},
		NewID: func() string {
			return "urn:uuid:00000000-0000-0000-0000-000000000001"
		},
	})
}
