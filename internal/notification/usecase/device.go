package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
)

type RegisterDeviceInput struct {
	Token    string `validate:"required,max=512"`
	Platform string `validate:"required,oneof=ios android web"`
}

func (s *Usecase) RegisterDevice(ctx context.Context, in RegisterDeviceInput) error {
	ctx, span := s.startSpan(ctx, "RegisterDevice")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	err = s.repoDB.RegisterUserDevice(ctx, entity.Device{UserID: clm.UserID, Token: in.Token, Platform: in.Platform})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo register user device", "user_id", clm.UserID, "platform", in.Platform, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

type RemoveDeviceInput struct {
	Token string `validate:"required,max=512"`
}

func (s *Usecase) RemoveDevice(ctx context.Context, in RemoveDeviceInput) error {
	ctx, span := s.startSpan(ctx, "RemoveDevice")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.repoDB.RemoveUserDevice(ctx, clm.UserID, in.Token); err != nil {
		slog.ErrorContext(ctx, "failed to repo remove user device", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
