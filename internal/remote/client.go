package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/physician-calendar/internal/calendar"
)

type ClientConfig struct {
	BaseURL  string
	DoctorID string
	Token    string
	Timeout  time.Duration
}

// Client talks to the remote appointment store over its REST API.
type Client struct {
	http     *http.Client
	baseURL  string
	doctorID string
	token    string
	logger   zerolog.Logger
}

func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		doctorID: cfg.DoctorID,
		token:    cfg.Token,
		logger:   logger.With().Str("module", "remote").Logger(),
	}
}

// FetchScheduled returns every scheduled appointment of the configured doctor.
// Records the core cannot interpret are skipped.
func (c *Client) FetchScheduled(ctx context.Context) ([]calendar.Appointment, error) {
	endpoint := fmt.Sprintf("%s/doctors/%s/appointments?status=scheduled", c.baseURL, url.PathEscape(c.doctorID))

	var dtos []AppointmentDTO
	if err := c.do(ctx, "fetch scheduled", http.MethodGet, endpoint, nil, &dtos); err != nil {
		return nil, err
	}

	out := make([]calendar.Appointment, 0, len(dtos))
	for _, d := range dtos {
		a, err := d.toAppointment()
		if err != nil {
			c.logger.Warn().Err(err).Str("appointment_id", string(d.ID)).Msg("skipping appointment")
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// CreateSlot opens an unbooked slot starting at localDateTime, which must be
// in YYYY-MM-DDTHH:mm:ss form. Other forms are rejected before any request.
func (c *Client) CreateSlot(ctx context.Context, localDateTime string) error {
	if _, err := calendar.ParseSlotTimestamp(localDateTime); err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/doctors/%s/slots", c.baseURL, url.PathEscape(c.doctorID))
	return c.do(ctx, "create slot", http.MethodPost, endpoint, createSlotRequest{StartTime: localDateTime}, nil)
}

// MarkCompleted completes an appointment and returns the store's view of it.
func (c *Client) MarkCompleted(ctx context.Context, id string) (*calendar.Appointment, error) {
	endpoint := fmt.Sprintf("%s/appointments/%s/complete", c.baseURL, url.PathEscape(id))

	var dto AppointmentDTO
	if err := c.do(ctx, "mark completed", http.MethodPost, endpoint, nil, &dto); err != nil {
		return nil, err
	}
	a, err := dto.toAppointment()
	if err != nil {
		return nil, fmt.Errorf("mark completed: decode echo: %w", err)
	}
	return &a, nil
}

// Ping checks that the store answers at all.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.FetchScheduled(ctx)
	return err
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Msg("remote request failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("remote request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
