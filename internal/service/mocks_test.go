package service

import (
	"context"
	"fmt"
	"time"

	"notifier/internal/models"
	"notifier/pkg/utils"
)

// testLogger возвращает логгер, молчащий ниже fatal
func testLogger() *utils.Logger {
	return utils.InitLogger(utils.LogConfig{Level: "fatal", Format: "json"})
}

// ============ Mock AlertStore ============

type MockAlertStore struct {
	rules []models.AlertRule

	claimResults map[string]bool // alertID -> claimed
	claimCalls   []string
	claimErr     error

	logs          []*models.AlertLog
	createLogErr  error
	nextLogID     int
	sentUpdates   map[string]bool // logID -> sent
	updateSentErr error

	emailCount    int
	emailCountErr error
	inAppCount    int
	inAppCountErr error

	fetchErr   error
	deletedCut time.Time
	deleteN    int64
	deleteErr  error
}

func NewMockAlertStore() *MockAlertStore {
	return &MockAlertStore{
		claimResults: make(map[string]bool),
		sentUpdates:  make(map[string]bool),
		nextLogID:    1,
	}
}

func (m *MockAlertStore) GetActiveAlertsForSymbols(symbols []string) ([]models.AlertRule, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}
	var out []models.AlertRule
	for _, r := range m.rules {
		if want[r.Symbol] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockAlertStore) ClaimTrigger(alertID, frequency string) (bool, error) {
	m.claimCalls = append(m.claimCalls, alertID)
	if m.claimErr != nil {
		return false, m.claimErr
	}
	return m.claimResults[alertID], nil
}

func (m *MockAlertStore) CreateAlertLog(alertLog *models.AlertLog) (string, error) {
	if m.createLogErr != nil {
		return "", m.createLogErr
	}
	alertLog.ID = fmt.Sprintf("log-%d", m.nextLogID)
	m.nextLogID++
	alertLog.TriggeredAt = time.Now()
	m.logs = append(m.logs, alertLog)
	return alertLog.ID, nil
}

func (m *MockAlertStore) UpdateNotificationSent(logID string, sent bool) error {
	if m.updateSentErr != nil {
		return m.updateSentErr
	}
	m.sentUpdates[logID] = sent
	return nil
}

func (m *MockAlertStore) GetTodayEmailCount(userID string) (int, error) {
	if m.emailCountErr != nil {
		return 0, m.emailCountErr
	}
	return m.emailCount, nil
}

func (m *MockAlertStore) GetTodayInAppCount(userID string) (int, error) {
	if m.inAppCountErr != nil {
		return 0, m.inAppCountErr
	}
	return m.inAppCount, nil
}

func (m *MockAlertStore) DeleteLogsOlderThan(cutoff time.Time) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	m.deletedCut = cutoff
	return m.deleteN, nil
}

// ============ Mock PreferenceStore ============

type MockPreferenceStore struct {
	prefs    *models.NotificationPreferences
	prefsErr error
	user     models.UserEmail
	userErr  error
}

func (m *MockPreferenceStore) GetNotificationPreferences(userID string) (*models.NotificationPreferences, error) {
	if m.prefsErr != nil {
		return nil, m.prefsErr
	}
	return m.prefs, nil
}

func (m *MockPreferenceStore) GetUserEmail(userID string) (models.UserEmail, error) {
	if m.userErr != nil {
		return models.UserEmail{}, m.userErr
	}
	return m.user, nil
}

// ============ Mock NotificationStore ============

type MockNotificationStore struct {
	created []*models.InAppNotification
	items   []models.InAppNotification

	createErr     error
	getErr        error
	unread        int
	unreadErr     error
	markReadErr   error
	markAllErr    error
	dismissErr    error
	markReadCalls [][2]string // {id, userID}
	dismissCalls  [][2]string
	markAllCalls  []string

	deleteN   int64
	deleteErr error
	trimN     int64
	trimKeep  int
	trimErr   error
}

func (m *MockNotificationStore) Create(n *models.InAppNotification) error {
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = "notif-1"
	n.CreatedAt = time.Now()
	m.created = append(m.created, n)
	return nil
}

func (m *MockNotificationStore) GetForUser(userID string, unreadOnly bool, limit int) ([]models.InAppNotification, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if limit > 0 && len(m.items) > limit {
		return m.items[:limit], nil
	}
	return m.items, nil
}

func (m *MockNotificationStore) UnreadCount(userID string) (int, error) {
	if m.unreadErr != nil {
		return 0, m.unreadErr
	}
	return m.unread, nil
}

func (m *MockNotificationStore) MarkRead(notificationID, userID string) error {
	if m.markReadErr != nil {
		return m.markReadErr
	}
	m.markReadCalls = append(m.markReadCalls, [2]string{notificationID, userID})
	return nil
}

func (m *MockNotificationStore) MarkAllRead(userID string) error {
	if m.markAllErr != nil {
		return m.markAllErr
	}
	m.markAllCalls = append(m.markAllCalls, userID)
	return nil
}

func (m *MockNotificationStore) Dismiss(notificationID, userID string) error {
	if m.dismissErr != nil {
		return m.dismissErr
	}
	m.dismissCalls = append(m.dismissCalls, [2]string{notificationID, userID})
	return nil
}

func (m *MockNotificationStore) DeleteOlderThan(cutoff time.Time) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return m.deleteN, nil
}

func (m *MockNotificationStore) TrimPerUser(keep int) (int64, error) {
	if m.trimErr != nil {
		return 0, m.trimErr
	}
	m.trimKeep = keep
	return m.trimN, nil
}

// ============ Mock FeedBroadcaster ============

type broadcastCall struct {
	userID string
	notif  *models.InAppNotification
}

type MockBroadcaster struct {
	notifications []broadcastCall
	unreadCounts  map[string][]int
}

func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{unreadCounts: make(map[string][]int)}
}

func (m *MockBroadcaster) BroadcastAlertNotification(userID string, n *models.InAppNotification) {
	m.notifications = append(m.notifications, broadcastCall{userID: userID, notif: n})
}

func (m *MockBroadcaster) BroadcastUnreadCount(userID string, count int) {
	m.unreadCounts[userID] = append(m.unreadCounts[userID], count)
}

// ============ Mock Channel ============

type MockChannel struct {
	name  string
	err   error
	calls []*models.AlertRule
}

func (m *MockChannel) Name() string { return m.name }

func (m *MockChannel) Send(ctx context.Context, alert *models.AlertRule, alertLog *models.AlertLog, quote *models.SymbolQuote) error {
	m.calls = append(m.calls, alert)
	return m.err
}

// ============ Mock DeliveryRouter ============

type MockRouter struct {
	err   error
	calls []*models.AlertLog
}

func (m *MockRouter) Deliver(ctx context.Context, alert *models.AlertRule, alertLog *models.AlertLog, quote *models.SymbolQuote) error {
	m.calls = append(m.calls, alertLog)
	return m.err
}
