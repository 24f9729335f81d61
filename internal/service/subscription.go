package service

import (
	"context"

	"chirper-api/internal/model"
	"chirper-api/internal/repository"
)

// SubscriptionService grants the verified badge. Payment handling lives
// outside this API; by the time this runs the purchase already succeeded.
type SubscriptionService struct {
	users repository.UserRepository
}

func NewSubscriptionService(users repository.UserRepository) *SubscriptionService {
	return &SubscriptionService{users: users}
}

// Subscribe marks the user verified. Verifying twice is a conflict so a
// double-submitted purchase is visible to the caller.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Verified {
		return nil, model.ErrAlreadyVerified
	}

	if err := s.users.SetVerified(ctx, userID); err != nil {
		return nil, err
	}

	user.Verified = true
	return user, nil
}
