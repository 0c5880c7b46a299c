package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
)

// SettingItem is one row of the effective preference table, stored or defaulted.
type SettingItem struct {
	Type         entity.NotificationType
	Category     entity.Category
	InAppEnabled bool
	EmailEnabled bool
	IsDefault    bool
}

// ListSettings returns one item per notification type, filling gaps with the
// category defaults.
func (s *Usecase) ListSettings(ctx context.Context) (_ []SettingItem, err error) {
	ctx, span := s.startSpan(ctx, "ListSettings")
	defer func() { s.endSpan(span, err) }()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	prefs, err := s.repoDB.ListPreferences(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list notification preferences", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	user, err := s.repoDB.GetUserProfile(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user profile", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	staff := s.rbac.AtLeast(user.Role, entity.RoleModerator)

	stored := make(map[entity.NotificationType]entity.Preference, len(prefs))
	for _, p := range prefs {
		stored[p.Type] = p
	}

	items := make([]SettingItem, 0, len(entity.NotificationTypes()))
	for _, t := range entity.NotificationTypes() {
		category, err := s.templates.Category(t)
		if err != nil {
			continue
		}

		if p, ok := stored[t]; ok {
			items = append(items, SettingItem{Type: t, Category: category, InAppEnabled: p.InAppEnabled, EmailEnabled: p.EmailEnabled})
			continue
		}

		def := defaultChannel(category)
		if category == entity.CategorySystem && !staff {
			def = entity.DeliveryChannelUnknown
		}
		items = append(items, SettingItem{Type: t, Category: category, InAppEnabled: def.InApp(), EmailEnabled: def.Email(), IsDefault: true})
	}

	return items, nil
}

type UpdateSettingsInput struct {
	Settings []UpdateSettingInput `validate:"required,min=1,dive"`
}

type UpdateSettingInput struct {
	Type         string `validate:"required,enum_name"`
	InAppEnabled bool
	EmailEnabled bool
}

func (s *Usecase) UpdateSettings(ctx context.Context, in UpdateSettingsInput) error {
	ctx, span := s.startSpan(ctx, "UpdateSettings")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	prefs := make([]entity.Preference, 0, len(in.Settings))
	for _, setting := range in.Settings {
		t := entity.NotificationType(setting.Type)
		if _, err := s.templates.Category(t); err != nil {
			return goerror.NewBusiness("notification type is not supported: "+setting.Type, goerror.CodeInvalidFormat)
		}

		prefs = append(prefs, entity.Preference{
			UserID:       clm.UserID,
			Type:         t,
			InAppEnabled: setting.InAppEnabled,
			EmailEnabled: setting.EmailEnabled,
		})
	}

	if err := s.repoDB.UpsertPreferences(ctx, prefs); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert notification preferences", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
