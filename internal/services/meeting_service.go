package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MeetingRoom is what the video API hands back for a scheduled room. Only
// the plain room URL is persisted; the host URL is surfaced once to the
// host.
type MeetingRoom struct {
	RoomURL     string
	HostRoomURL string
}

type MeetingClient interface {
	CreateRoom(ctx context.Context, start, end time.Time, roomPrefix string) (*MeetingRoom, error)
}

// WherebyMeetingClient creates rooms through the Whereby meetings API.
type WherebyMeetingClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewWherebyMeetingClient(baseURL, apiKey string) *WherebyMeetingClient {
	return &WherebyMeetingClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
}

func (c *WherebyMeetingClient) CreateRoom(
	ctx context.Context,
	start, end time.Time,
	roomPrefix string,
) (*MeetingRoom, error) {
	payload := map[string]any{
		"startDate":      start.UTC().Format(time.RFC3339),
		"endDate":        end.UTC().Format(time.RFC3339),
		"roomNamePrefix": roomPrefix,
		"fields":         []string{"hostRoomUrl"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal meeting payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/meetings",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("build meeting request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("create meeting: status %d: %s", resp.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var response struct {
		RoomURL     string `json:"roomUrl"`
		HostRoomURL string `json:"hostRoomUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode meeting response: %w", err)
	}
	if response.RoomURL == "" {
		return nil, fmt.Errorf("room url missing from response")
	}
	return &MeetingRoom{RoomURL: response.RoomURL, HostRoomURL: response.HostRoomURL}, nil
}
