package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sentiscope/internal/domain"
	"sentiscope/internal/port"
)

// MockAnalysisService is a mock implementation of port.AnalysisService.
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) SubmitAnalysis(ctx context.Context, files []domain.FileCandidate, keyword string) port.AnalysisOutcome {
	args := m.Called(ctx, files, keyword)
	return args.Get(0).(port.AnalysisOutcome)
}

func (m *MockAnalysisService) CheckAvailability(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}
