// Package subscriptions captures newsletter subscribers.
package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/kittclouds/tenwords/internal/store"
)

// ErrInvalid is returned when the submitted form cannot be accepted.
var ErrInvalid = errors.New("subscriptions: invalid subscriber")

// Repository is the part of the store the service needs.
type Repository interface {
	AddSubscription(ctx context.Context, sub *store.Subscription) error
}

// Service validates and stores subscribers.
type Service struct {
	repo Repository
}

// NewService creates a subscription service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Subscribe validates name and email and stores the subscriber.
// Returns an error wrapping store.ErrDuplicate for a known email.
func (s *Service) Subscribe(ctx context.Context, name, email string) (*store.Subscription, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalid)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrInvalid)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: malformed email %q", ErrInvalid, email)
	}

	sub := &store.Subscription{Email: email, Name: name}
	if err := s.repo.AddSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save subscriber: %w", err)
	}
	return sub, nil
}
