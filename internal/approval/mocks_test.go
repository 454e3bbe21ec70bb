package approval

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reply-scout/internal/models"
	"reply-scout/internal/social"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) PresentForApproval(ctx context.Context, candidate *models.PendingReply) (social.PresentResult, error) {
	args := m.Called(ctx, candidate)
	return args.Get(0).(social.PresentResult), args.Error(1)
}

func (m *mockNotifier) NotifyOutcome(ctx context.Context, outcome social.Outcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}

type mockPoster struct {
	mock.Mock
}

func (m *mockPoster) PostReply(ctx context.Context, candidate *models.PendingReply) (social.PostResult, error) {
	args := m.Called(ctx, candidate)
	return args.Get(0).(social.PostResult), args.Error(1)
}

type mockCrossPoster struct {
	mock.Mock
}

func (m *mockCrossPoster) CrossPost(ctx context.Context, candidate *models.PendingReply) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}
