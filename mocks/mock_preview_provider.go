package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sentiscope/internal/domain"
	"sentiscope/internal/port"
)

// MockPreviewProvider is a mock implementation of port.PreviewProvider.
type MockPreviewProvider struct {
	mock.Mock
}

func (m *MockPreviewProvider) Acquire(ctx context.Context, file domain.FileCandidate) (*port.Preview, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.Preview), args.Error(1)
}

func (m *MockPreviewProvider) Release(ctx context.Context, preview *port.Preview) error {
	args := m.Called(ctx, preview)
	return args.Error(0)
}
