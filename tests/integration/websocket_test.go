//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"

	"notifier/internal/models"
)

// dialWS opens a WebSocket connection to the notification stream for userID
func dialWS(t *testing.T, ts *TestServer, userID string) *gws.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws/notifications?user_id=" + userID
	conn, resp, err := gws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

// readMessages reads one frame and splits batched newline-delimited payloads
func readMessages(t *testing.T, conn *gws.Conn) []map[string]json.RawMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var messages []map[string]json.RawMessage
	for _, part := range strings.Split(string(payload), "\n") {
		if part == "" {
			continue
		}
		var msg map[string]json.RawMessage
		if err := json.Unmarshal([]byte(part), &msg); err != nil {
			t.Fatalf("unmarshal %q: %v", part, err)
		}
		messages = append(messages, msg)
	}
	return messages
}

// TestWebSocket_RejectsMissingUserID verifies the handshake requires user_id
func TestWebSocket_RejectsMissingUserID(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Cleanup()

	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws/notifications"
	_, resp, err := gws.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("dial without user_id should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("handshake response = %v, want 400", resp)
	}
	if resp != nil {
		resp.Body.Close()
	}
}

// TestWebSocket_AlertDelivery posts a trigger batch and verifies the owner
// receives the alert over the socket while another user receives nothing
func TestWebSocket_AlertDelivery(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Cleanup()

	userID := insertUser(t, ts.DB, "trader@example.com", "Jane Trader")
	otherID := insertUser(t, ts.DB, "other@example.com", "Other")
	ruleID := insertAlertRule(t, ts.DB, userID, "AAPL", models.AlertTypePriceAbove,
		`{"threshold": 150}`, models.FrequencyOnce)

	owner := dialWS(t, ts, userID)
	defer owner.Close()
	other := dialWS(t, ts, otherID)
	defer other.Close()

	// Wait for both registrations to land in the hub
	deadline := time.Now().Add(2 * time.Second)
	for ts.Hub.ClientCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	body := fmt.Sprintf(`{
		"source": "evaluator",
		"events": [
			{"alert_id": %q, "symbol": "AAPL",
			 "quote": {"price": 155.3, "volume": 2500000, "change_pct": 3.42}}
		]
	}`, ruleID)

	resp := doRequest(t, http.MethodPost, ts.Server.URL+"/internal/v1/triggers", testServiceToken, body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("trigger status = %d, want %d", resp.StatusCode, http.StatusAccepted)
	}

	// The owner gets alert_notification and unread_count, possibly batched
	// across frames
	seen := map[string]bool{}
	for i := 0; i < 2 && !(seen["alert_notification"] && seen["unread_count"]); i++ {
		for _, msg := range readMessages(t, owner) {
			var msgType string
			if err := json.Unmarshal(msg["type"], &msgType); err != nil {
				t.Fatalf("unmarshal type: %v", err)
			}
			seen[msgType] = true

			if msgType == "alert_notification" {
				var notification models.InAppNotification
				if err := json.Unmarshal(msg["data"], &notification); err != nil {
					t.Fatalf("unmarshal data: %v", err)
				}
				if notification.UserID != userID {
					t.Errorf("notification user = %q, want %q", notification.UserID, userID)
				}
				if notification.Title != "AAPL Price Above" {
					t.Errorf("title = %q", notification.Title)
				}
			}
		}
	}
	if !seen["alert_notification"] || !seen["unread_count"] {
		t.Errorf("seen message types = %v, want alert_notification and unread_count", seen)
	}

	// The other user receives nothing
	other.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	if _, payload, err := other.ReadMessage(); err == nil {
		t.Errorf("other user received unexpected message: %s", payload)
	}
}

// TestWebSocket_UnreadCountOnMarkRead verifies that marking a feed entry
// read pushes a fresh unread_count to the owner's sockets
func TestWebSocket_UnreadCountOnMarkRead(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Cleanup()

	userID := insertUser(t, ts.DB, "trader@example.com", "Jane Trader")

	notification := &models.InAppNotification{
		UserID:  userID,
		Type:    models.NotificationTypeAlertTriggered,
		Title:   "AAPL Price Above",
		Message: "AAPL crossed above $150.00 (current: $155.30)",
	}
	if err := ts.NotificationRepo.Create(notification); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	conn := dialWS(t, ts, userID)
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for ts.Hub.ClientCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	resp := doRequest(t, http.MethodPost,
		ts.Server.URL+"/api/v1/notifications/"+notification.ID+"/read?user_id="+userID, "", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark read status = %d", resp.StatusCode)
	}

	messages := readMessages(t, conn)
	if len(messages) == 0 {
		t.Fatal("no websocket message received")
	}

	var msgType string
	if err := json.Unmarshal(messages[0]["type"], &msgType); err != nil {
		t.Fatalf("unmarshal type: %v", err)
	}
	if msgType != "unread_count" {
		t.Fatalf("type = %q, want unread_count", msgType)
	}

	var count int
	if err := json.Unmarshal(messages[0]["count"], &count); err != nil {
		t.Fatalf("unmarshal count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}
