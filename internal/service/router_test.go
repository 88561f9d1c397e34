package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/multierr"
)

func TestRouter_DeliversToEnabledChannels(t *testing.T) {
	email := &MockChannel{name: "email"}
	inApp := &MockChannel{name: "in_app"}
	router := NewRouter(email, inApp, testLogger())

	alert := testAlert() // оба канала включены
	if err := router.Deliver(context.Background(), alert, testLogEntry(), testQuote()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(email.calls) != 1 || len(inApp.calls) != 1 {
		t.Errorf("calls: email=%d in_app=%d, want 1/1", len(email.calls), len(inApp.calls))
	}
}

func TestRouter_RespectsChannelFlags(t *testing.T) {
	tests := []struct {
		name        string
		notifyEmail bool
		notifyInApp bool
		wantEmail   int
		wantInApp   int
	}{
		{"email only", true, false, 1, 0},
		{"in-app only", false, true, 0, 1},
		{"no channels enabled", false, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := &MockChannel{name: "email"}
			inApp := &MockChannel{name: "in_app"}
			router := NewRouter(email, inApp, testLogger())

			alert := testAlert()
			alert.NotifyEmail = tt.notifyEmail
			alert.NotifyInApp = tt.notifyInApp

			if err := router.Deliver(context.Background(), alert, testLogEntry(), testQuote()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(email.calls) != tt.wantEmail || len(inApp.calls) != tt.wantInApp {
				t.Errorf("calls: email=%d in_app=%d, want %d/%d",
					len(email.calls), len(inApp.calls), tt.wantEmail, tt.wantInApp)
			}
		})
	}
}

// Сбой одного канала не должен мешать другому
func TestRouter_NoShortCircuit(t *testing.T) {
	email := &MockChannel{name: "email", err: errors.New("smtp down")}
	inApp := &MockChannel{name: "in_app"}
	router := NewRouter(email, inApp, testLogger())

	err := router.Deliver(context.Background(), testAlert(), testLogEntry(), testQuote())
	if err == nil {
		t.Fatal("expected aggregate error")
	}
	if len(inApp.calls) != 1 {
		t.Error("in-app channel skipped after email failure")
	}
	if !strings.Contains(err.Error(), "email: smtp down") {
		t.Errorf("email error not prefixed: %v", err)
	}
}

func TestRouter_AggregatesChannelErrors(t *testing.T) {
	email := &MockChannel{name: "email", err: errors.New("smtp down")}
	inApp := &MockChannel{name: "in_app", err: errors.New("db down")}
	router := NewRouter(email, inApp, testLogger())

	err := router.Deliver(context.Background(), testAlert(), testLogEntry(), testQuote())
	if err == nil {
		t.Fatal("expected aggregate error")
	}

	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("expected 2 aggregated errors, got %d: %v", len(errs), err)
	}
	if !strings.HasPrefix(errs[0].Error(), "email: ") {
		t.Errorf("first error = %v", errs[0])
	}
	if !strings.HasPrefix(errs[1].Error(), "in_app: ") {
		t.Errorf("second error = %v", errs[1])
	}
}

func TestRouter_NilChannelIgnored(t *testing.T) {
	inApp := &MockChannel{name: "in_app"}
	router := NewRouter(nil, inApp, testLogger())

	if err := router.Deliver(context.Background(), testAlert(), testLogEntry(), testQuote()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inApp.calls) != 1 {
		t.Error("in-app channel not called")
	}
}
