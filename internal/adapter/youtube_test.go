package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stream-scheduler/internal/domain"
	"stream-scheduler/internal/logger"
)

func testAdapter(t *testing.T, handler http.HandlerFunc) *YouTubeAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	a := NewYouTubeAdapter(server.Client(), logger.Nop())
	a.SetBaseURL(server.URL)
	return a
}

func TestYouTubeAdapter_ListMyChannel(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("mine") != "true" {
			t.Errorf("expected mine=true, got %q", r.URL.Query().Get("mine"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": "UC-abc", "snippet": map[string]string{"title": "Test Channel"}},
			},
		})
	})

	channel, err := a.ListMyChannel(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if channel.ID != "UC-abc" || channel.Title != "Test Channel" {
		t.Errorf("unexpected channel: %+v", channel)
	}
}

func TestYouTubeAdapter_ListMyChannel_NoItems(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{}})
	})

	_, err := a.ListMyChannel(context.Background())
	if !errors.Is(err, domain.ErrNoChannel) {
		t.Fatalf("expected ErrNoChannel, got %v", err)
	}
}

func TestYouTubeAdapter_ListUpcomingBroadcasts(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("broadcastStatus") != "upcoming" {
			t.Errorf("expected broadcastStatus=upcoming, got %q", q.Get("broadcastStatus"))
		}
		if q.Get("maxResults") != "25" {
			t.Errorf("expected maxResults=25, got %q", q.Get("maxResults"))
		}
		if q.Get("channelId") != "UC-abc" {
			t.Errorf("expected channelId=UC-abc, got %q", q.Get("channelId"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{
					"id": "b1",
					"snippet": map[string]string{
						"title":              "1/14/24 English Sunday Worship",
						"scheduledStartTime": "2024-01-14T17:15:00Z",
					},
					"contentDetails": map[string]string{"boundStreamId": "S1"},
				},
				{
					"id":      "b2",
					"snippet": map[string]string{"title": "No start time"},
				},
			},
		})
	})

	broadcasts, err := a.ListUpcomingBroadcasts(context.Background(), "UC-abc", 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(broadcasts) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(broadcasts))
	}

	first := broadcasts[0]
	if first.ID != "b1" || first.BoundStreamID != "S1" {
		t.Errorf("unexpected broadcast: %+v", first)
	}
	wantStart := time.Date(2024, 1, 14, 17, 15, 0, 0, time.UTC)
	if first.ScheduledStart == nil || !first.ScheduledStart.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, first.ScheduledStart)
	}

	if broadcasts[1].ScheduledStart != nil {
		t.Errorf("expected nil start for a record without a scheduled time")
	}
}

func TestYouTubeAdapter_InsertBroadcast(t *testing.T) {
	var received map[string]interface{}
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/liveBroadcasts" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(map[string]string{"id": "new-broadcast"})
	})

	plan := &domain.BroadcastPlan{
		Title:          "1/14/24 English Sunday Worship",
		Description:    "Join us!",
		ScheduledStart: time.Date(2024, 1, 14, 9, 15, 0, 0, time.UTC),
		PrivacyStatus:  "public",
		Settings:       domain.DefaultContentSettings(),
	}

	id, err := a.InsertBroadcast(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "new-broadcast" {
		t.Errorf("expected new-broadcast, got %q", id)
	}

	snippet, _ := received["snippet"].(map[string]interface{})
	if snippet["title"] != plan.Title {
		t.Errorf("unexpected title in request body: %v", snippet["title"])
	}
	if snippet["scheduledStartTime"] != "2024-01-14T09:15:00Z" {
		t.Errorf("unexpected scheduledStartTime: %v", snippet["scheduledStartTime"])
	}
	status, _ := received["status"].(map[string]interface{})
	if status["privacyStatus"] != "public" {
		t.Errorf("unexpected privacyStatus: %v", status["privacyStatus"])
	}
	details, _ := received["contentDetails"].(map[string]interface{})
	if details["enableDvr"] != true || details["recordFromStart"] != true || details["enableEmbed"] != true {
		t.Errorf("unexpected contentDetails: %v", details)
	}
	if details["enableAutoStart"] != false || details["liveChatEnabled"] != false {
		t.Errorf("unexpected contentDetails: %v", details)
	}
	monitor, _ := details["monitorStream"].(map[string]interface{})
	if monitor["enableMonitorStream"] != false {
		t.Errorf("expected monitor stream disabled: %v", monitor)
	}
}

func TestYouTubeAdapter_InsertBroadcast_MissingID(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})

	_, err := a.InsertBroadcast(context.Background(), &domain.BroadcastPlan{})
	if err == nil {
		t.Fatal("expected error for a response without an id")
	}
}

func TestYouTubeAdapter_UpdateVideoMetadata(t *testing.T) {
	var received map[string]interface{}
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/videos" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	})

	err := a.UpdateVideoMetadata(context.Background(), "b1", "Title", "Description", "29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received["id"] != "b1" {
		t.Errorf("unexpected id: %v", received["id"])
	}
	snippet, _ := received["snippet"].(map[string]interface{})
	if snippet["categoryId"] != "29" {
		t.Errorf("unexpected categoryId: %v", snippet["categoryId"])
	}
}

func TestYouTubeAdapter_BindBroadcast(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/liveBroadcasts/bind" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("id") != "b1" || q.Get("streamId") != "S1" {
			t.Errorf("unexpected query: %v", q)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"contentDetails": map[string]string{"boundStreamId": "S1"},
		})
	})

	bind, err := a.BindBroadcast(context.Background(), "b1", "S1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bind.BoundStreamID != "S1" {
		t.Errorf("expected bound stream S1, got %q", bind.BoundStreamID)
	}
}

func TestYouTubeAdapter_BindBroadcast_Unconfirmed(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"contentDetails": map[string]string{}})
	})

	bind, err := a.BindBroadcast(context.Background(), "b1", "S1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The adapter reports what upstream said; the caller decides this is a failure
	if bind.BoundStreamID != "" {
		t.Errorf("expected empty bound stream, got %q", bind.BoundStreamID)
	}
}

func TestYouTubeAdapter_DeleteBroadcast(t *testing.T) {
	var gotMethod, gotID string
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotID = r.URL.Query().Get("id")
		w.WriteHeader(http.StatusNoContent)
	})

	if err := a.DeleteBroadcast(context.Background(), "b1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodDelete || gotID != "b1" {
		t.Errorf("unexpected request: %s id=%s", gotMethod, gotID)
	}
}

func TestYouTubeAdapter_ErrorEnvelope(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"message": "The request cannot be completed because you have exceeded your quota."},
		})
	})

	_, err := a.ListMyChannel(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *domain.APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "The request cannot be completed because you have exceeded your quota." {
		t.Errorf("unexpected message: %q", apiErr.Message)
	}
	if !apiErr.NeedsReauth() {
		t.Error("expected a 403 to suggest reauthorization")
	}
}

func TestYouTubeAdapter_ErrorWithoutEnvelope(t *testing.T) {
	a := testAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	})

	_, err := a.ListMyChannel(context.Background())

	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *domain.APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Message != "upstream exploded" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}
