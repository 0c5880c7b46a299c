package usecase

import (
	"context"
	"errors"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/goerror"
)

const entityListing = "listing"

// shouldSend returns the channel to deliver on, or DeliveryChannelUnknown when
// the recipient does not want this notification.
func (s *Usecase) shouldSend(ctx context.Context, evt entity.DomainEvent, userID int64, t entity.NotificationType, c entity.Category) (entity.DeliveryChannel, error) {
	ch, err := s.channelFor(ctx, userID, t, c)
	if err != nil || ch == entity.DeliveryChannelUnknown {
		return entity.DeliveryChannelUnknown, err
	}

	if listingID := listingIDOf(evt); listingID != "" {
		muted, err := s.repoDB.IsEntityMuted(ctx, userID, entityListing, listingID)
		if err != nil {
			return entity.DeliveryChannelUnknown, err
		}
		if muted {
			return entity.DeliveryChannelUnknown, nil
		}
	}

	return ch, nil
}

// channelFor applies the stored preference, or the category default when no row exists.
// SYSTEM notifications default to off for anyone below moderator.
func (s *Usecase) channelFor(ctx context.Context, userID int64, t entity.NotificationType, c entity.Category) (entity.DeliveryChannel, error) {
	pref, err := s.repoDB.GetPreference(ctx, userID, t)
	if err == nil {
		return pref.Channel(), nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		return entity.DeliveryChannelUnknown, err
	}

	if c == entity.CategorySystem {
		user, err := s.repoDB.GetUserProfile(ctx, userID)
		if err != nil {
			return entity.DeliveryChannelUnknown, err
		}
		if !s.rbac.AtLeast(user.Role, entity.RoleModerator) {
			return entity.DeliveryChannelUnknown, nil
		}
	}

	return defaultChannel(c), nil
}
