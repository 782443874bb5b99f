package realtime

import (
	"context"
	"fmt"
	"time"

	"fleettrack/internal/domain"
	"fleettrack/internal/shared/jwt"
)

// validateTimeout bounds the registry lookups on the subscribe path so a
// slow backing store cannot wedge a connection's read loop.
const validateTimeout = 5 * time.Second

// Service holds the authorization rules for realtime subscriptions.
type Service struct {
	tokens   *jwt.Manager
	trips    domain.TripRepository
	channels domain.ChannelRepository
}

func NewService(tokens *jwt.Manager, trips domain.TripRepository, channels domain.ChannelRepository) *Service {
	return &Service{tokens: tokens, trips: trips, channels: channels}
}

func denied(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrSubscriptionDenied, reason)
}

// ValidateChannelSubscription only requires the public token to resolve to a
// channel; channel rooms are unauthenticated by design.
func (s *Service) ValidateChannelSubscription(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	if _, err := s.channels.GetByToken(ctx, token); err != nil {
		return denied("channel not found")
	}
	return nil
}

// ValidateTripSubscription requires an owner/dispatcher credential, company
// ownership of the trip, and a trip that is not terminal.
func (s *Service) ValidateTripSubscription(ctx context.Context, authToken string, tripID int64) error {
	claims, err := s.authorize(authToken)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	trip, err := s.trips.GetForCompany(ctx, tripID, claims.CompanyID)
	if err != nil {
		return denied("trip not found")
	}
	if trip.Status == domain.TripCompleted || trip.Status == domain.TripCancelled {
		return denied("trip is not active")
	}
	return nil
}

// ValidateCompanySubscription requires an owner/dispatcher credential for
// that same company.
func (s *Service) ValidateCompanySubscription(authToken string, companyID int64) error {
	claims, err := s.authorize(authToken)
	if err != nil {
		return err
	}
	if claims.CompanyID != companyID {
		return denied("access denied")
	}
	return nil
}

func (s *Service) authorize(authToken string) (*jwt.Claims, error) {
	if authToken == "" {
		return nil, denied("authorization required")
	}
	claims, err := s.tokens.Parse(authToken)
	if err != nil {
		return nil, denied("invalid token")
	}
	if claims.Role != jwt.RoleOwner && claims.Role != jwt.RoleDispatcher {
		return nil, denied("access denied")
	}
	return claims, nil
}
