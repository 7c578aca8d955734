package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/tlind/drive-finder/pkg/common/jsoncompat"
	"github.com/tlind/drive-finder/pkg/types"
)

// detailWorkers bounds the fan-out when resolving many instructor ids at
// once, the booking-history view can ask for dozens in one go.
const detailWorkers = 4

// GetInstructor fetches one instructor detail record.
func (c *Client) GetInstructor(ctx context.Context, id string) (*types.Instructor, error) {
	requestUrl := c.BaseURL + "/instructors/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestUrl, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("instructor lookup failed: %w", err)
	}
	defer res.Body.Close()
	if !isSuccess(res.StatusCode) {
		return nil, &StatusError{Code: res.StatusCode, Path: "/instructors/" + id}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	instructor := types.Instructor{}
	if err := jsoncompat.Unmarshal(body, &instructor); err != nil {
		return nil, fmt.Errorf("malformed instructor response: %w", err)
	}
	if instructor.Id == "" {
		return nil, fmt.Errorf("instructor %s has no identity", id)
	}
	return &instructor, nil
}

// GetInstructors resolves a batch of ids with a bounded worker fan-out.
// Ids that fail to resolve are left out of the result, the first error is
// returned alongside whatever did resolve.
func (c *Client) GetInstructors(ctx context.Context, ids []string) (map[string]*types.Instructor, error) {
	result := make(map[string]*types.Instructor, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	work := make(chan string)
	workers := min(detailWorkers, len(ids))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range work {
				instructor, err := c.GetInstructor(ctx, id)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					result[id] = instructor
				}
				mu.Unlock()
			}
		}()
	}
	for _, id := range ids {
		work <- id
	}
	close(work)
	wg.Wait()

	return result, firstErr
}
