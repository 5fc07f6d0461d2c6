// Package membership orchestrates community creation and joining: input
// validation, returning-user reconciliation, and the increment-once member
// count rule. It owns the user's community_code field; the submission
// service never writes it.
package membership

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/melodykit/melodyshare/internal/app/system/htmlsanitize"
	"github.com/melodykit/melodyshare/internal/app/system/inputval"
	"github.com/melodykit/melodyshare/internal/app/system/normalize"
	"github.com/melodykit/melodyshare/internal/domain/apperr"
	"github.com/melodykit/melodyshare/internal/domain/models"
)

// UserStore is the slice of the identity store this service needs.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (models.User, error)
	Save(ctx context.Context, u models.User) (models.User, error)
}

// CommunityStore is the slice of the community registry this service needs.
type CommunityStore interface {
	Create(ctx context.Context, name string) (models.Community, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Community, error)
	GetByCode(ctx context.Context, code string) (models.Community, error)
	IncrementMembers(ctx context.Context, id primitive.ObjectID) error
}

type Service struct {
	users       UserStore
	communities CommunityStore
	log         *zap.Logger
}

func New(users UserStore, communities CommunityStore, logger *zap.Logger) *Service {
	return &Service{users: users, communities: communities, log: logger}
}

// Result is what both onboarding paths hand back: the reconciled user, the
// community they now belong to, and whether this join grew the member count.
type Result struct {
	User      models.User
	Community models.Community
	NewMember bool
}

// validUsername sanitizes and validates a submitted username, returning the
// cleaned value.
func validUsername(raw string) (string, error) {
	username := normalize.Username(htmlsanitize.PlainText(raw))
	if len(username) < inputval.MinUsernameLength {
		return "", apperr.Validation("username", "must be at least 3 characters")
	}
	if !inputval.IsValidUsername(username) {
		return "", apperr.Validation("username", "may only contain letters, numbers, and underscores")
	}
	return username, nil
}

// CreateCommunity validates inputs, creates the community (the creator is
// member one), and reconciles the creating user onto it. All validation
// happens before any write.
func (s *Service) CreateCommunity(ctx context.Context, name, username string, guest bool) (Result, error) {
	username, err := validUsername(username)
	if err != nil {
		return Result{}, err
	}
	name = normalize.CommunityName(htmlsanitize.PlainText(name))
	if !inputval.IsValidCommunityName(name) {
		return Result{}, apperr.Validation("name", "must be at least 3 characters")
	}

	community, err := s.communities.Create(ctx, name)
	if err != nil {
		return Result{}, err
	}

	user, err := s.users.Save(ctx, models.User{
		Username:      username,
		CommunityCode: community.Code,
		IsGuest:       guest,
	})
	if err != nil {
		return Result{}, err
	}

	s.log.Info("community created",
		zap.String("name", community.Name),
		zap.String("code", community.Code),
		zap.String("username", user.Username))

	return Result{User: user, Community: community, NewMember: true}, nil
}

// JoinCommunity resolves the target by join code or by community id, then
// reconciles the user onto it. A returning user keeps their identity (same
// id, same cooldown history); only their community assignment moves. The
// member count grows only when the user was not already in this community,
// so a repeated join is idempotent.
func (s *Service) JoinCommunity(ctx context.Context, codeOrID, username string, guest bool) (Result, error) {
	username, err := validUsername(username)
	if err != nil {
		return Result{}, err
	}
	codeOrID = strings.TrimSpace(codeOrID)
	if codeOrID == "" {
		return Result{}, apperr.Validation("code", "a join code is required")
	}

	community, err := s.resolve(ctx, codeOrID)
	if err != nil {
		return Result{}, err
	}

	// A store fault here must abort the join: treating it as "new user"
	// could double-count the member.
	prevCode := ""
	existing, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		prevCode = existing.CommunityCode
	case apperr.IsNotFound(err):
	default:
		return Result{}, err
	}

	newMember := !strings.EqualFold(prevCode, community.Code)

	user, err := s.users.Save(ctx, models.User{
		Username:      username,
		CommunityCode: community.Code,
		IsGuest:       guest,
	})
	if err != nil {
		return Result{}, err
	}

	if newMember {
		if err := s.communities.IncrementMembers(ctx, community.ID); err != nil {
			return Result{}, err
		}
		community.Members++
	}

	s.log.Info("user joined community",
		zap.String("code", community.Code),
		zap.String("username", user.Username),
		zap.Bool("new_member", newMember))

	return Result{User: user, Community: community, NewMember: newMember}, nil
}

// resolve accepts either a join code (case-insensitive) or a community id
// in hex, the form share links carry.
func (s *Service) resolve(ctx context.Context, codeOrID string) (models.Community, error) {
	if id, err := primitive.ObjectIDFromHex(codeOrID); err == nil {
		return s.communities.GetByID(ctx, id)
	}
	return s.communities.GetByCode(ctx, normalize.Code(codeOrID))
}
