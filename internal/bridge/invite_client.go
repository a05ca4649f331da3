// Package bridge submits visit requests to the chaplaincy endpoint of a
// partner deployment over HTTP.
package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// InvitePayload is the visit request handed to the chaplaincy endpoint.
type InvitePayload struct {
	PGName             string `json:"pg_name"`
	LeaderName         string `json:"leader_name"`
	LeaderPhone        string `json:"leader_phone,omitempty"`
	Unit               string `json:"unit"`
	Date               string `json:"date"` // ISO 8601 with timezone
	RequestNotes       string `json:"request_notes,omitempty"`
	PreferredChaplain  string `json:"preferred_chaplain_id,omitempty"`
	Status             string `json:"status"`
}

type inviteResponse struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

// InviteClient posts visit requests to a remote chaplaincy service.
type InviteClient struct {
	httpClient *resty.Client
	unit       string
	logger     *zap.Logger
}

// NewInviteClient creates a client for the given base URL. The unit tag is
// stamped on every invite regardless of what the caller passes.
func NewInviteClient(baseURL, unit string, timeout time.Duration, logger *zap.Logger) *InviteClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &InviteClient{
		httpClient: client,
		unit:       unit,
		logger:     logger,
	}
}

// SendInvite submits a visit request. New requests always start pending.
func (c *InviteClient) SendInvite(ctx context.Context, payload InvitePayload) error {
	if payload.PGName == "" || payload.LeaderName == "" {
		return fmt.Errorf("invite requires pg_name and leader_name")
	}
	payload.Unit = c.unit
	payload.Status = "pending"

	c.logger.Info("Sending chaplaincy visit invite",
		zap.String("pg_name", payload.PGName),
		zap.String("leader_name", payload.LeaderName),
		zap.String("unit", payload.Unit),
	)

	var response inviteResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&response).
		SetError(&response).
		Post("/visit-requests")
	if err != nil {
		c.logger.Error("Invite request failed", zap.Error(err))
		return fmt.Errorf("failed to call chaplaincy endpoint: %w", err)
	}

	if resp.IsError() {
		c.logger.Error("Chaplaincy endpoint returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", response.Msg),
		)
		return fmt.Errorf("chaplaincy endpoint error: %s (status: %d)", response.Msg, resp.StatusCode())
	}

	return nil
}
