package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ifc-service/internal/models"
)

type MockConversionTrigger struct {
	mock.Mock
}

func (m *MockConversionTrigger) Submit(ctx context.Context, req models.ConversionRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
