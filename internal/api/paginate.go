package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultPaginationTimeout bounds a full pagination walk when the caller's
// context has no deadline.
const DefaultPaginationTimeout = 10 * time.Minute

// ErrPageLimit is returned when a cursor walk exceeds the configured maximum
// number of pages.
var ErrPageLimit = errors.New("pagination page limit exceeded")

// pageExtractor decodes one page body into its items and next-page fragment.
type pageExtractor[T any] func(body []byte) (items []T, next string, err error)

// collectPages walks a cursor-paginated endpoint starting at path+query,
// appending each page's items in order until the cursor is absent.
func collectPages[T any](ctx context.Context, c *Client, endpoint, path string, query url.Values, extract pageExtractor[T]) ([]T, error) {
	// Apply default timeout if context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPaginationTimeout)
		defer cancel()
	}

	var all []T
	fragment := encodeQuery(query)

	for page := 0; ; page++ {
		if page >= c.maxPages {
			return nil, fmt.Errorf("%s: %w (%d pages)", endpoint, ErrPageLimit, c.maxPages)
		}

		body, err := c.doRequest(ctx, http.MethodGet, endpoint, path+fragment, nil)
		if err != nil {
			return nil, fmt.Errorf("%s page %d: %w", endpoint, page+1, err)
		}

		items, next, err := extract(body)
		if err != nil {
			return nil, fmt.Errorf("%s page %d: unmarshal response: %w", endpoint, page+1, err)
		}
		all = append(all, items...)

		if next == "" {
			return all, nil
		}
		fragment = normalizeCursor(next)
	}
}

// normalizeCursor reduces a next_page value to a "?query" fragment. The
// exchange returns a bare fragment, but a full URL is tolerated.
func normalizeCursor(next string) string {
	if i := strings.IndexByte(next, '?'); i >= 0 {
		return next[i:]
	}
	return "?" + next
}

func encodeQuery(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	return "?" + query.Encode()
}

// chunkIDs partitions ids into consecutive chunks of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// fetchChunked issues one request per chunk of ids, in list order, and
// concatenates the results in the same order.
func fetchChunked[T any](ctx context.Context, c *Client, ids []string, fetch func(ctx context.Context, chunk []string) ([]T, error)) ([]T, error) {
	var all []T
	for _, chunk := range chunkIDs(ids, c.chunkSize) {
		items, err := fetch(ctx, chunk)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}

// joinIDs renders a chunk as the comma-separated path segment.
func joinIDs(ids []string) string {
	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = url.PathEscape(id)
	}
	return strings.Join(escaped, ",")
}
