package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"allowance/internal/core"
	"allowance/internal/records"
)

const (
	maxProfileName     = 50
	maxAvatarRunes     = 8
	DefaultAvatarEmoji = "🙂"
)

var (
	ErrProfileNameTooLong = fmt.Errorf("%w: name too long (max %d characters)", core.ErrInvalidRecord, maxProfileName)
	ErrInvalidAvatar      = fmt.Errorf("%w: avatar must be a single emoji", core.ErrInvalidRecord)
)

type ProfileInput struct {
	Name        string `json:"name"`
	AvatarEmoji string `json:"avatar_emoji"`
}

type ProfileService struct {
	store records.ProfileStore
}

func NewProfileService(store records.ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

// Get returns the stored profile, or a default one when none was saved.
func (s *ProfileService) Get(ctx context.Context, sess Session) (core.Profile, error) {
	p, err := s.store.GetProfile(ctx, sess.OwnerID)
	if errors.Is(err, core.ErrNotFound) {
		return core.Profile{OwnerID: sess.OwnerID, AvatarEmoji: DefaultAvatarEmoji}, nil
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, sess Session, in ProfileInput) (core.Profile, error) {
	p := core.Profile{
		OwnerID:     sess.OwnerID,
		Name:        strings.TrimSpace(in.Name),
		AvatarEmoji: strings.TrimSpace(in.AvatarEmoji),
	}
	if utf8.RuneCountInString(p.Name) > maxProfileName {
		return core.Profile{}, ErrProfileNameTooLong
	}
	if p.AvatarEmoji == "" {
		p.AvatarEmoji = DefaultAvatarEmoji
	}
	if utf8.RuneCountInString(p.AvatarEmoji) > maxAvatarRunes {
		return core.Profile{}, ErrInvalidAvatar
	}
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return core.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}
