package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
)

type MuteInput struct {
	EntityType string `validate:"required,oneof=listing"`
	EntityID   string `validate:"required"`
}

func (s *Usecase) Mute(ctx context.Context, in MuteInput) error {
	ctx, span := s.startSpan(ctx, "Mute")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	m := entity.EntityMute{UserID: clm.UserID, EntityType: in.EntityType, EntityID: in.EntityID}
	if err := s.repoDB.MuteEntity(ctx, m); err != nil {
		slog.ErrorContext(ctx, "failed to repo mute entity", "user_id", clm.UserID, "entity_type", in.EntityType, "entity_id", in.EntityID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) Unmute(ctx context.Context, in MuteInput) error {
	ctx, span := s.startSpan(ctx, "Unmute")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	m := entity.EntityMute{UserID: clm.UserID, EntityType: in.EntityType, EntityID: in.EntityID}
	removed, err := s.repoDB.UnmuteEntity(ctx, m)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo unmute entity", "user_id", clm.UserID, "entity_type", in.EntityType, "entity_id", in.EntityID, "error", err)
		return goerror.NewServer(err)
	}
	if !removed {
		return goerror.NewBusiness("entity is not muted", goerror.CodeNotFound)
	}

	return nil
}

type UnsubscribeInput struct {
	UserID    string `validate:"required,numeric"`
	Type      string `validate:"required,enum_name"`
	Signature string `validate:"required,hexadecimal"`
}

// Unsubscribe turns off email for one type from a signed link. It needs no session.
func (s *Usecase) Unsubscribe(ctx context.Context, in UnsubscribeInput) error {
	ctx, span := s.startSpan(ctx, "Unsubscribe")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	userID, err := strconv.ParseInt(in.UserID, 10, 64)
	if err != nil || userID <= 0 {
		return goerror.NewBusiness("invalid unsubscribe link", goerror.CodeInvalidFormat)
	}

	t := entity.NotificationType(in.Type)
	if !s.links.Valid(userID, t, in.Signature) {
		slog.WarnContext(ctx, "unsubscribe link signature mismatch", "user_id", userID, "notification_type", t)
		return goerror.NewBusiness("invalid unsubscribe link", goerror.CodeForbidden)
	}

	category, err := s.templates.Category(t)
	if err != nil {
		return goerror.NewBusiness("notification type is not supported", goerror.CodeInvalidFormat)
	}

	inApp := defaultChannel(category).InApp()
	pref, err := s.repoDB.GetPreference(ctx, userID, t)
	switch {
	case err == nil:
		inApp = pref.InAppEnabled
	case !errors.Is(err, goerror.ErrNotFound):
		slog.ErrorContext(ctx, "failed to repo get notification preference", "user_id", userID, "notification_type", t, "error", err)
		return goerror.NewServer(err)
	}

	err = s.repoDB.UpsertPreferences(ctx, []entity.Preference{{UserID: userID, Type: t, InAppEnabled: inApp, EmailEnabled: false}})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert notification preferences", "user_id", userID, "notification_type", t, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "email unsubscribed by link", "user_id", userID, "notification_type", t)

	return nil
}
