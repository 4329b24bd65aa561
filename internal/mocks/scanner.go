package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/WinnyKing57/WinClean-sub000/internal/types"
)

// MockScanner implements scanner.Scanner for testing.
type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Profile() types.Profile {
	args := m.Called()
	return args.Get(0).(types.Profile)
}

func (m *MockScanner) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockScanner) Scan(ctx context.Context) ([]types.CleaningAction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.CleaningAction), args.Error(1)
}
