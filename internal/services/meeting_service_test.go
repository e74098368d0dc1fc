package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateRoomSendsScheduleAndAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/meetings" {
			t.Errorf("Expected path /meetings, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer whereby_key" {
			t.Errorf("Expected bearer auth, got %q", r.Header.Get("Authorization"))
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode payload: %v", err)
		}
		if payload["startDate"] != "2026-09-08T09:00:00Z" {
			t.Errorf("Expected startDate 2026-09-08T09:00:00Z, got %v", payload["startDate"])
		}
		if payload["endDate"] != "2026-09-08T10:00:00Z" {
			t.Errorf("Expected endDate 2026-09-08T10:00:00Z, got %v", payload["endDate"])
		}
		if payload["roomNamePrefix"] != "peer-session" {
			t.Errorf("Expected roomNamePrefix peer-session, got %v", payload["roomNamePrefix"])
		}
		w.Write([]byte(`{"roomUrl": "https://example.whereby.com/room", "hostRoomUrl": "https://example.whereby.com/room?host"}`))
	}))
	defer server.Close()

	client := NewWherebyMeetingClient(server.URL, "whereby_key")
	room, err := client.CreateRoom(
		context.Background(),
		mustTime(t, "2026-09-08T09:00:00Z"),
		mustTime(t, "2026-09-08T10:00:00Z"),
		"peer-session",
	)
	if err != nil {
		t.Fatalf("Expected room, got error %v", err)
	}
	if room.RoomURL != "https://example.whereby.com/room" {
		t.Errorf("Unexpected room url %q", room.RoomURL)
	}
	if room.HostRoomURL != "https://example.whereby.com/room?host" {
		t.Errorf("Unexpected host room url %q", room.HostRoomURL)
	}
}

func TestCreateRoomRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewWherebyMeetingClient(server.URL, "bad_key")
	if _, err := client.CreateRoom(
		context.Background(),
		mustTime(t, "2026-09-08T09:00:00Z"),
		mustTime(t, "2026-09-08T10:00:00Z"),
		"peer-session",
	); err == nil {
		t.Fatal("Expected error for non-2xx response")
	}
}

func TestCreateRoomRejectsMissingRoomURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewWherebyMeetingClient(server.URL, "whereby_key")
	if _, err := client.CreateRoom(
		context.Background(),
		mustTime(t, "2026-09-08T09:00:00Z"),
		mustTime(t, "2026-09-08T10:00:00Z"),
		"peer-session",
	); err == nil {
		t.Fatal("Expected error when roomUrl is missing")
	}
}
