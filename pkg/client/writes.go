package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/tlind/drive-finder/pkg/common/jsoncompat"
	"github.com/tlind/drive-finder/pkg/types"
)

type createdResponse struct {
	Id string `json:"id"`
}

func (c *Client) postJson(ctx context.Context, path string, payload any) (string, error) {
	body, err := jsoncompat.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	// the retry transport may replay the request, the backend de-dupes on this
	req.Header.Set("X-Request-Id", uuid.NewString())

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer res.Body.Close()
	if !isSuccess(res.StatusCode) {
		return "", &StatusError{Code: res.StatusCode, Path: path}
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	created := createdResponse{}
	if err := jsoncompat.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("malformed response from %s: %w", path, err)
	}
	return created.Id, nil
}

// CreateEnquiry validates and submits a student enquiry, returning the
// backend-assigned enquiry id.
func (c *Client) CreateEnquiry(ctx context.Context, enquiry *types.EnquiryRequest) (string, error) {
	if err := c.validate.Struct(enquiry); err != nil {
		return "", fmt.Errorf("invalid enquiry: %w", err)
	}
	return c.postJson(ctx, "/enquiries", enquiry)
}

// CreateBooking validates and submits a lesson booking.
func (c *Client) CreateBooking(ctx context.Context, booking *types.BookingRequest) (string, error) {
	if err := c.validate.Struct(booking); err != nil {
		return "", fmt.Errorf("invalid booking: %w", err)
	}
	return c.postJson(ctx, "/bookings", booking)
}

// UpdateProfile proxies an instructor dashboard profile mutation.
func (c *Client) UpdateProfile(ctx context.Context, instructorId string, update *types.ProfileUpdate) error {
	if err := c.validate.Struct(update); err != nil {
		return fmt.Errorf("invalid profile update: %w", err)
	}
	body, err := jsoncompat.Marshal(update)
	if err != nil {
		return err
	}
	path := "/instructors/" + instructorId
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("profile update failed: %w", err)
	}
	defer res.Body.Close()
	if !isSuccess(res.StatusCode) {
		return &StatusError{Code: res.StatusCode, Path: path}
	}
	return nil
}
