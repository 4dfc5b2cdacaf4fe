package services

import (
	"context"
	"strings"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"
	"github.com/lawaid/soulsystem-backend/models"
	"github.com/lawaid/soulsystem-backend/repository"

	"go.uber.org/zap"
)

// IdentityService maps emails to usernames and accumulates SoulMarks.
type IdentityService interface {
	RegisterUsername(ctx context.Context, email, username, soulmark string) (*models.Identity, error)
	CheckUsername(ctx context.Context, username string) (bool, error)
	GetProfile(ctx context.Context, username string) (*models.IdentityProfile, error)
}

type identityServiceImpl struct {
	registry *repository.Registry
	notifier *Notifier
	newID    IDGenerator
	now      Clock
	logger   *zap.Logger
}

func NewIdentityService(registry *repository.Registry, notifier *Notifier, newID IDGenerator, now Clock, logger *zap.Logger) IdentityService {
	if newID == nil {
		newID = NewUUID
	}
	if now == nil {
		now = SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &identityServiceImpl{
		registry: registry,
		notifier: notifier,
		newID:    newID,
		now:      now,
		logger:   logger,
	}
}

// RegisterUsername creates the identity for email, or adds soulmark to the
// existing one, then stamps username on every Payment Record paid with that
// email. An existing identity keeps its own username. The uniqueness check and the insert run in the same
// registry cycle.
func (s *identityServiceImpl) RegisterUsername(ctx context.Context, email, username, soulmark string) (*models.Identity, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	soulmark = strings.TrimSpace(soulmark)
	if email == "" || username == "" || soulmark == "" {
		return nil, apperrors.ErrMissingField
	}

	var identity models.Identity
	created := false
	err := s.registry.Update(ctx, func(doc *models.Registry) error {
		for i := range doc.Identities {
			other := &doc.Identities[i]
			if other.HasSoulMark(soulmark) && !strings.EqualFold(other.Email, email) {
				return apperrors.ErrSoulMarkClaimed
			}
		}

		current := doc.FindIdentityByEmail(email)
		created = current == nil
		if current != nil {
			if !current.HasSoulMark(soulmark) {
				current.SoulMarks = append(current.SoulMarks, soulmark)
			}
		} else {
			if doc.FindIdentityByUsername(username) != nil {
				return apperrors.ErrUsernameTaken
			}
			doc.Identities = append(doc.Identities, models.Identity{
				ID:        s.newID(),
				Username:  username,
				Email:     email,
				SoulMarks: []string{soulmark},
				CreatedAt: s.now().UTC(),
			})
			current = &doc.Identities[len(doc.Identities)-1]
		}

		for i := range doc.Donations {
			d := &doc.Donations[i]
			if strings.EqualFold(d.Email, email) {
				name := username
				d.UsernameResolved = true
				d.Username = &name
			}
		}

		identity = *current
		identity.SoulMarks = append([]string(nil), current.SoulMarks...)
		return nil
	})
	if err != nil {
		if !apperrors.IsKind(err, apperrors.KindConflict) {
			s.logger.Error("Failed to register username", zap.String("username", username), zap.Error(err))
		}
		return nil, err
	}

	if created {
		s.logger.Info("Identity registered", zap.String("identity_id", identity.ID), zap.String("username", identity.Username))
		s.notifier.Notify(ctx, models.RegistryEvent{
			Type:     models.EventIdentityRegistered,
			Email:    identity.Email,
			Username: identity.Username,
		})
	} else {
		s.logger.Info("SoulMark linked to existing identity",
			zap.String("identity_id", identity.ID),
			zap.Int("soulmarks", len(identity.SoulMarks)),
		)
	}
	return &identity, nil
}

// CheckUsername reports whether no identity holds username, ignoring case.
// A blank username is never available.
func (s *identityServiceImpl) CheckUsername(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, nil
	}

	available := false
	err := s.registry.View(ctx, func(doc *models.Registry) error {
		available = doc.FindIdentityByUsername(username) == nil
		return nil
	})
	if err != nil {
		return false, err
	}
	return available, nil
}

// GetProfile returns the public view of the identity holding username.
func (s *identityServiceImpl) GetProfile(ctx context.Context, username string) (*models.IdentityProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.ErrMissingField
	}

	var profile models.IdentityProfile
	err := s.registry.View(ctx, func(doc *models.Registry) error {
		found := doc.FindIdentityByUsername(username)
		if found == nil {
			return apperrors.ErrUserNotFound
		}
		profile = models.IdentityProfile{
			Username:      found.Username,
			SoulMarkCount: len(found.SoulMarks),
			CreatedAt:     found.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
