package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/notice"
	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/storage"
)

// MockNotificationHistoryStore is a mock implementation of storage.NotificationHistoryStore.
type MockNotificationHistoryStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockNotificationHistoryStore) RecordEvent(ctx context.Context, t notice.Type, recognized notice.Set) (bool, error) {
	args := m.Called(ctx, t, recognized)
	return args.Bool(0), args.Error(1)
}

//nolint:revive
func (m *MockNotificationHistoryStore) LastReportDate(ctx context.Context, t notice.Type, recognized notice.Set) (time.Time, bool, error) {
	args := m.Called(ctx, t, recognized)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

//nolint:revive
func (m *MockNotificationHistoryStore) ListEvents(ctx context.Context, t notice.Type, limit int) ([]storage.NotificationEvent, error) {
	args := m.Called(ctx, t, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.NotificationEvent), args.Error(1)
}
