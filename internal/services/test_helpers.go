package services

import (
	"github.com/stretchr/testify/mock"
)

// MockDatasetReporter is a mock for the DatasetReporter interface
type MockDatasetReporter struct {
	mock.Mock
}

func (m *MockDatasetReporter) Ready() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDatasetReporter) Stats() DatasetStats {
	args := m.Called()
	return args.Get(0).(DatasetStats)
}

// MockClientCounter is a mock for the ClientCounter interface
type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	args := m.Called()
	return args.Int(0)
}
