package browse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/domain/product"
)

// HTTPFetcher reads pages from the storefront's public product listing.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (h *HTTPFetcher) Fetch(ctx context.Context, f product.Filter, offset, limit int) (product.Page, error) {
	q := f.Values()
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/api/products?"+q.Encode(), nil)
	if err != nil {
		return product.Page{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return product.Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return product.Page{}, fmt.Errorf("list products: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page product.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return product.Page{}, fmt.Errorf("decode products: %w", err)
	}
	return page, nil
}
