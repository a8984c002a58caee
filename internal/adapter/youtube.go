package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"stream-scheduler/internal/domain"
	"stream-scheduler/internal/logger"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// YouTubeAdapter implements domain.BroadcastAPI against the YouTube Live
// Streaming API. All calls require an OAuth-authorized HTTP client; each
// method performs exactly one upstream request.
type YouTubeAdapter struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewYouTubeAdapter creates a new YouTube adapter. The client must already
// carry OAuth credentials (see the auth package); its timeout bounds every
// upstream call.
func NewYouTubeAdapter(httpClient *http.Client, log *logger.Logger) *YouTubeAdapter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &YouTubeAdapter{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
		logger:     log,
	}
}

// SetBaseURL overrides the API endpoint, used by tests
func (y *YouTubeAdapter) SetBaseURL(base string) {
	y.baseURL = base
}

// ListMyChannel fetches the authenticated account's own channel record
func (y *YouTubeAdapter) ListMyChannel(ctx context.Context) (*domain.Channel, error) {
	params := url.Values{}
	params.Add("part", "id,snippet")
	params.Add("mine", "true")

	var result struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title string `json:"title"`
			} `json:"snippet"`
		} `json:"items"`
	}

	if err := y.do(ctx, http.MethodGet, "/channels", params, nil, &result); err != nil {
		return nil, err
	}

	if len(result.Items) == 0 {
		return nil, domain.ErrNoChannel
	}

	return &domain.Channel{
		ID:    result.Items[0].ID,
		Title: result.Items[0].Snippet.Title,
	}, nil
}

// ListUpcomingBroadcasts lists broadcasts in "upcoming" status on the channel
func (y *YouTubeAdapter) ListUpcomingBroadcasts(ctx context.Context, channelID string, pageSize int) ([]*domain.ExistingBroadcast, error) {
	params := url.Values{}
	params.Add("part", "snippet,contentDetails")
	params.Add("broadcastStatus", "upcoming")
	params.Add("maxResults", strconv.Itoa(pageSize))
	params.Add("channelId", channelID)

	var result struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title              string `json:"title"`
				ScheduledStartTime string `json:"scheduledStartTime"`
			} `json:"snippet"`
			ContentDetails struct {
				BoundStreamID string `json:"boundStreamId"`
			} `json:"contentDetails"`
		} `json:"items"`
	}

	if err := y.do(ctx, http.MethodGet, "/liveBroadcasts", params, nil, &result); err != nil {
		y.logger.Error("failed to list upcoming broadcasts", map[string]interface{}{
			"channel_id": channelID,
			"error":      err.Error(),
		})
		return nil, err
	}

	broadcasts := make([]*domain.ExistingBroadcast, 0, len(result.Items))
	for _, item := range result.Items {
		b := &domain.ExistingBroadcast{
			ID:            item.ID,
			Title:         item.Snippet.Title,
			BoundStreamID: item.ContentDetails.BoundStreamID,
		}
		if item.Snippet.ScheduledStartTime != "" {
			if start, err := time.Parse(time.RFC3339, item.Snippet.ScheduledStartTime); err == nil {
				b.ScheduledStart = &start
			}
		}
		broadcasts = append(broadcasts, b)
	}

	return broadcasts, nil
}

// InsertBroadcast creates a new broadcast resource and returns its ID
func (y *YouTubeAdapter) InsertBroadcast(ctx context.Context, plan *domain.BroadcastPlan) (string, error) {
	params := url.Values{}
	params.Add("part", "snippet,contentDetails,status")

	body := map[string]interface{}{
		"snippet": map[string]interface{}{
			"title":              plan.Title,
			"description":        plan.Description,
			"scheduledStartTime": plan.ScheduledStart.Format(time.RFC3339),
		},
		"status": map[string]interface{}{
			"privacyStatus": plan.PrivacyStatus,
		},
		"contentDetails": map[string]interface{}{
			"monitorStream": map[string]interface{}{
				"enableMonitorStream": plan.Settings.EnableMonitorStream,
			},
			"enableAutoStart":         plan.Settings.EnableAutoStart,
			"enableAutoStop":          plan.Settings.EnableAutoStop,
			"enableDvr":               plan.Settings.EnableDVR,
			"recordFromStart":         plan.Settings.RecordFromStart,
			"startWithSlate":          plan.Settings.StartWithSlate,
			"enableClosedCaptions":    plan.Settings.EnableClosedCaptions,
			"enableContentEncryption": plan.Settings.EnableContentEncryption,
			"enableEmbed":             plan.Settings.EnableEmbed,
			"enableLowLatency":        plan.Settings.EnableLowLatency,
			"liveChatEnabled":         plan.Settings.LiveChatEnabled,
		},
	}

	var result struct {
		ID string `json:"id"`
	}

	if err := y.do(ctx, http.MethodPost, "/liveBroadcasts", params, body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("broadcast insert response missing id")
	}

	return result.ID, nil
}

// UpdateVideoMetadata updates the public metadata of a created broadcast
func (y *YouTubeAdapter) UpdateVideoMetadata(ctx context.Context, id, title, description, categoryID string) error {
	params := url.Values{}
	params.Add("part", "snippet")

	body := map[string]interface{}{
		"id": id,
		"snippet": map[string]interface{}{
			"title":       title,
			"description": description,
			"categoryId":  categoryID,
		},
	}

	return y.do(ctx, http.MethodPut, "/videos", params, body, nil)
}

// BindBroadcast binds a broadcast to a persistent ingestion stream
func (y *YouTubeAdapter) BindBroadcast(ctx context.Context, id, streamID string) (*domain.BindResult, error) {
	params := url.Values{}
	params.Add("id", id)
	params.Add("part", "id,contentDetails")
	params.Add("streamId", streamID)

	var result struct {
		ContentDetails struct {
			BoundStreamID string `json:"boundStreamId"`
		} `json:"contentDetails"`
	}

	if err := y.do(ctx, http.MethodPost, "/liveBroadcasts/bind", params, nil, &result); err != nil {
		return nil, err
	}

	return &domain.BindResult{BoundStreamID: result.ContentDetails.BoundStreamID}, nil
}

// DeleteBroadcast removes a broadcast resource
func (y *YouTubeAdapter) DeleteBroadcast(ctx context.Context, id string) error {
	params := url.Values{}
	params.Add("id", id)

	return y.do(ctx, http.MethodDelete, "/liveBroadcasts", params, nil, nil)
}

// do executes a single API call, decoding a JSON response into out when out
// is non-nil. Non-2xx responses become *domain.APIError with the upstream
// status code preserved.
func (y *YouTubeAdapter) do(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", y.baseURL, path, params.Encode())

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return y.apiError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// apiError extracts the message from a Google error envelope, falling back
// to the raw body
func (y *YouTubeAdapter) apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := string(raw)
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	y.logger.Warn("youtube api returned non-OK status", map[string]interface{}{
		"status_code": resp.StatusCode,
		"message":     message,
	})

	return &domain.APIError{StatusCode: resp.StatusCode, Message: message}
}
