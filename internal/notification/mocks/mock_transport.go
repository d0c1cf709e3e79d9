package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/notification"
)

// MockDialer is a mock implementation of notification.Dialer.
type MockDialer struct {
	mock.Mock
}

//nolint:revive
func (m *MockDialer) Dial(ctx context.Context) (notification.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(notification.Session), args.Error(1)
}

// MockSession is a mock implementation of notification.Session.
type MockSession struct {
	mock.Mock
}

//nolint:revive
func (m *MockSession) StartTLS() error {
	return m.Called().Error(0)
}

//nolint:revive
func (m *MockSession) Auth(username, password string) error {
	return m.Called(username, password).Error(0)
}

//nolint:revive
func (m *MockSession) Send(from string, to []string, msg io.WriterTo) error {
	return m.Called(from, to, msg).Error(0)
}

//nolint:revive
func (m *MockSession) Close() error {
	return m.Called().Error(0)
}
