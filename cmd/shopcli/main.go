// Command shopcli browses the storefront catalogue from a terminal. Typing
// edits the search box; the list refreshes once typing pauses.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront/internal/browse"
	"storefront/internal/config"
	"storefront/internal/domain/product"
)

var sorts = []product.Sort{product.SortNewest, product.SortPriceAsc, product.SortPriceDesc, product.SortNameAsc}

type changedMsg struct{}

type errMsg struct{ err error }

type model struct {
	browser  *browse.Browser
	filter   product.Filter
	sortIdx  int
	snap     browse.Snapshot
	status   string
	quitting bool
}

func (m model) Init() tea.Cmd {
	return m.refresh()
}

func (m model) refresh() tea.Cmd {
	b := m.browser
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.Refresh(ctx); err != nil {
			return errMsg{err}
		}
		return changedMsg{}
	}
}

func (m model) loadMore() tea.Cmd {
	b := m.browser
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.LoadMore(ctx); err != nil {
			return errMsg{err}
		}
		return changedMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.loadMore()
		case tea.KeyCtrlR:
			return m, m.refresh()
		case tea.KeyTab:
			m.sortIdx = (m.sortIdx + 1) % len(sorts)
			m.filter.Sort = sorts[m.sortIdx]
		case tea.KeyBackspace:
			r := []rune(m.filter.Search)
			if len(r) == 0 {
				return m, nil
			}
			m.filter.Search = string(r[:len(r)-1])
		case tea.KeySpace:
			m.filter.Search += " "
		case tea.KeyRunes:
			m.filter.Search += string(msg.Runes)
		default:
			return m, nil
		}
		m.status = ""
		m.browser.SetFilter(m.filter)
		m.snap = m.browser.Snapshot()
	case changedMsg:
		m.snap = m.browser.Snapshot()
	case errMsg:
		switch {
		case errors.Is(msg.err, browse.ErrNoMore):
			m.status = "no more products"
		case errors.Is(msg.err, browse.ErrBusy):
		default:
			m.status = "could not load products: " + msg.err.Error()
		}
		m.snap = m.browser.Snapshot()
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	b := &strings.Builder{}
	fmt.Fprintf(b, "Search: %s_\n", m.filter.Search)
	category := m.filter.Category
	if category == "" {
		category = "all"
	}
	fmt.Fprintf(b, "Category: %s   Sort: %s\n\n", category, sorts[m.sortIdx])

	for _, p := range m.snap.Items {
		stock := ""
		if !p.InStock {
			stock = "  (out of stock)"
		}
		fmt.Fprintf(b, "  %-40s %10s%s\n", p.Name, p.Price.StringFixed(2), stock)
	}
	if len(m.snap.Items) == 0 && !m.snap.Loading {
		fmt.Fprintln(b, "  no products match")
	}

	fmt.Fprintf(b, "\n%d of %d", len(m.snap.Items), m.snap.Total)
	if m.snap.Loading {
		fmt.Fprint(b, "  loading...")
	}
	if m.status != "" {
		fmt.Fprintf(b, "  %s", m.status)
	}
	fmt.Fprintln(b, "\n\ntype to search, tab: sort, enter: load more, ctrl+r: refresh, esc: quit")
	return b.String()
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	baseURL := flag.String("url", envOr("STOREFRONT_URL", "http://localhost:8080"), "storefront base URL")
	category := flag.String("category", "", "category slug to browse")
	flag.Parse()

	fetcher := browse.NewHTTPFetcher(*baseURL, &http.Client{Timeout: 10 * time.Second})
	filter := product.Filter{Category: *category, Sort: product.SortNewest}

	var p *tea.Program
	b := browse.New(fetcher, zap.NewNop(), browse.Options{
		Filter:  filter,
		Delay:   cfg.SearchDebounce,
		Timeout: cfg.RequestTimeout,
		// Browser callbacks can fire inside Update, which must not block on Send.
		OnChange: func(browse.Snapshot) { go p.Send(changedMsg{}) },
		OnError:  func(err error) { go p.Send(errMsg{err}) },
	})
	defer b.Close()

	p = tea.NewProgram(model{browser: b, filter: filter})
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
