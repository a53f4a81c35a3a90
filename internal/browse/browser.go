// Package browse is a client-side catalogue browser. Filter changes are
// debounced, a generation counter drops responses that arrive after a newer
// filter was set, and pages accumulate until the result set is exhausted.
package browse

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain/product"
)

var (
	ErrNoMore = errors.New("no more products")
	ErrBusy   = errors.New("a page is already loading")
	ErrClosed = errors.New("browser closed")
)

const (
	DefaultDelay    = 300 * time.Millisecond
	DefaultPageSize = 12
)

type Fetcher interface {
	Fetch(ctx context.Context, f product.Filter, offset, limit int) (product.Page, error)
}

type Options struct {
	// Filter is the starting filter; nothing is fetched until Refresh or
	// SetFilter.
	Filter   product.Filter
	Delay    time.Duration
	PageSize int
	// Timeout bounds each fetch started by the debounce timer. Zero means none.
	Timeout  time.Duration
	OnChange func(Snapshot)
	OnError  func(error)
}

type Snapshot struct {
	Filter  product.Filter
	Items   []product.Product
	Total   int
	Loading bool
	HasMore bool
}

type Browser struct {
	fetcher Fetcher
	logger  *zap.Logger
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	filter product.Filter
	// shown is the filter that produced items. It lags filter while a first
	// page is pending or after one failed.
	shown       product.Filter
	items       []product.Product
	total       int
	gen         uint64
	loading     bool
	loadingMore bool
	timer       *time.Timer
	closed      bool
}

func New(fetcher Fetcher, logger *zap.Logger, opts Options) *Browser {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Browser{
		fetcher: fetcher,
		logger:  logger,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		filter:  opts.Filter,
		shown:   opts.Filter,
		items:   []product.Product{},
	}
}

// SetFilter replaces the filter and schedules a first-page fetch after the
// debounce delay. Calls within the delay collapse into one fetch.
func (b *Browser) SetFilter(f product.Filter) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.filter = f
	b.gen++
	gen := b.gen
	b.loading = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.opts.Delay, func() {
		ctx := b.ctx
		if b.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
			defer cancel()
		}
		_ = b.fetchFirst(ctx, gen)
	})
	b.mu.Unlock()

	b.notify()
}

// Refresh fetches the first page of the current filter right away,
// superseding any pending debounced fetch.
func (b *Browser) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.gen++
	gen := b.gen
	b.loading = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()

	b.notify()
	return b.fetchFirst(ctx, gen)
}

func (b *Browser) fetchFirst(ctx context.Context, gen uint64) error {
	b.mu.Lock()
	if gen != b.gen || b.closed {
		b.mu.Unlock()
		return nil
	}
	f := b.filter
	b.mu.Unlock()

	page, err := b.fetcher.Fetch(ctx, f, 0, b.opts.PageSize)

	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		b.logger.Debug("dropping stale page", zap.Uint64("generation", gen))
		return nil
	}
	b.loading = false
	if err == nil {
		b.shown = f
		b.items = append([]product.Product{}, page.Items...)
		b.total = page.Total
	}
	b.mu.Unlock()

	if err != nil {
		b.fail(err)
	}
	b.notify()
	return err
}

// LoadMore appends the next page of the results already shown. It returns
// ErrBusy while any page is loading and ErrNoMore once every matching product
// is loaded.
func (b *Browser) LoadMore(ctx context.Context) error {
	b.mu.Lock()
	switch {
	case b.closed:
		b.mu.Unlock()
		return ErrClosed
	case b.loading, b.loadingMore:
		b.mu.Unlock()
		return ErrBusy
	case len(b.items) >= b.total:
		b.mu.Unlock()
		return ErrNoMore
	}
	gen := b.gen
	f := b.shown
	offset := len(b.items)
	b.loadingMore = true
	b.mu.Unlock()

	page, err := b.fetcher.Fetch(ctx, f, offset, b.opts.PageSize)

	b.mu.Lock()
	b.loadingMore = false
	if gen != b.gen {
		b.mu.Unlock()
		return nil
	}
	if err == nil {
		b.items = append(b.items, page.Items...)
		b.total = page.Total
	}
	b.mu.Unlock()

	if err != nil {
		b.fail(err)
		return err
	}
	b.notify()
	return nil
}

func (b *Browser) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Filter:  b.filter,
		Items:   append([]product.Product{}, b.items...),
		Total:   b.total,
		Loading: b.loading,
		HasMore: len(b.items) < b.total,
	}
}

// Close stops the pending timer and cancels in-flight debounced fetches.
func (b *Browser) Close() {
	b.mu.Lock()
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()
	b.cancel()
}

func (b *Browser) notify() {
	if b.opts.OnChange != nil {
		b.opts.OnChange(b.Snapshot())
	}
}

func (b *Browser) fail(err error) {
	b.logger.Warn("product fetch failed", zap.Error(err))
	if b.opts.OnError != nil {
		b.opts.OnError(err)
	}
}
