package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/tlind/drive-finder/pkg/common/jsoncompat"
	"github.com/tlind/drive-finder/pkg/types"
)

// Page is one fetched page of search results. RawCount keeps the element
// count before identity-less records were dropped so the has-more
// heuristic is not starved by a backend returning broken records.
type Page struct {
	Instructors []types.Instructor `json:"instructors"`
	RawCount    int                `json:"rawCount"`
	Limit       int                `json:"limit"`
}

// Full reports whether the page filled its limit, suggesting (not
// guaranteeing) that another page exists.
func (p *Page) Full() bool {
	return p.Limit > 0 && p.RawCount == p.Limit
}

// FetchPage runs one search page request. Transport failures, non-2xx
// statuses and malformed response bodies return an error; an unknown but
// well-formed response envelope resolves to an empty page instead.
func (c *Client) FetchPage(ctx context.Context, criteria *types.Criteria, page, limit int) (*Page, error) {
	query := criteria.Encode()
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	requestUrl := c.BaseURL + "/instructors?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestUrl, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()
	if !isSuccess(res.StatusCode) {
		return nil, &StatusError{Code: res.StatusCode, Path: "/instructors"}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}
	raw, err := extractRecords(body)
	if err != nil {
		return nil, err
	}

	result := &Page{
		Instructors: make([]types.Instructor, 0, len(raw)),
		RawCount:    len(raw),
		Limit:       limit,
	}
	for _, record := range raw {
		instructor := types.Instructor{}
		if err := jsoncompat.Unmarshal(record, &instructor); err != nil {
			continue
		}
		if instructor.Id == "" {
			// a record without identity cannot be rendered or keyed
			continue
		}
		result.Instructors = append(result.Instructors, instructor)
	}
	return result, nil
}

type searchEnvelope struct {
	Instructors []json.RawMessage `json:"instructors"`
	Data        []json.RawMessage `json:"data"`
}

// extractRecords resolves the three known response shapes in order: bare
// array, instructors envelope, data envelope. Anything else that is still
// valid JSON yields zero records rather than an error.
func extractRecords(body []byte) ([]json.RawMessage, error) {
	var bare []json.RawMessage
	if err := jsoncompat.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}

	var envelope searchEnvelope
	if err := jsoncompat.Unmarshal(body, &envelope); err != nil {
		if !json.Valid(body) {
			return nil, fmt.Errorf("malformed search response: %w", err)
		}
		// well-formed JSON in a shape we do not know, degrade to empty
		return nil, nil
	}
	if envelope.Instructors != nil {
		return envelope.Instructors, nil
	}
	if envelope.Data != nil {
		return envelope.Data, nil
	}
	return nil, nil
}
