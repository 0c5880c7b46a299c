package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/notification/template"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
)

// buildContext joins the event against user and catalogue data. Lookups that fail
// leave their fields empty; templates fall back to generic wording.
func (s *Usecase) buildContext(ctx context.Context, evt entity.DomainEvent, userID int64) template.Context {
	p := evt.Payload
	c := template.Context{
		EntityType:  evt.EntityType,
		EntityID:    evt.EntityID,
		ListingID:   listingIDOf(evt),
		CommentID:   p.GetString(entity.PayloadCommentID),
		CommentText: p.GetString(entity.PayloadCommentText),
		GameID:      p.GetString(entity.PayloadGameID),
		EmulatorID:  p.GetString(entity.PayloadEmulatorID),
		OldRole:     p.GetString(entity.PayloadOldRole),
		NewRole:     p.GetString(entity.PayloadNewRole),
		Reason:      p.GetString(entity.PayloadReason),
		Status:      p.GetString(entity.PayloadStatus),
		Title:       p.GetString(entity.PayloadTitle),
		Message:     p.GetString(entity.PayloadMessage),
		Version:     p.GetString(entity.PayloadVersion),
		VoteValue:   p.GetInt(entity.PayloadVoteValue),
		Extra: valueobject.JSONMap{
			"event_type":  evt.EventType.String(),
			"entity_type": evt.EntityType,
			"entity_id":   evt.EntityID,
		},
	}

	if c.GameID == "" && evt.EntityType == "game" {
		c.GameID = evt.EntityID
	}
	if c.EmulatorID == "" && evt.EntityType == "emulator" {
		c.EmulatorID = evt.EntityID
	}

	if user, err := s.repoDB.GetUserProfile(ctx, userID); err == nil {
		c.RecipientName = user.Name
	} else {
		s.enrichPartial(ctx, "recipient", userID, err)
	}

	if evt.HasTrigger() {
		if actor, err := s.repoDB.GetUserProfile(ctx, evt.TriggeredBy); err == nil {
			c.ActorName = actor.Name
			c.Extra.Set("actor_id", evt.TriggeredBy)
		} else {
			s.enrichPartial(ctx, "actor", evt.TriggeredBy, err)
		}
	}

	if c.ListingID != "" {
		if listing, err := s.repoDB.GetListingDetail(ctx, c.ListingID); err == nil {
			c.GameTitle = listing.GameTitle
			c.DeviceName = listing.DeviceName
			c.EmulatorName = listing.EmulatorName
			c.SocName = listing.SocName
		} else {
			s.enrichPartial(ctx, "listing", c.ListingID, err)
		}
	}

	if c.GameTitle == "" && c.GameID != "" {
		if title, err := s.repoDB.GetGameTitle(ctx, c.GameID); err == nil {
			c.GameTitle = title
		} else {
			s.enrichPartial(ctx, "game", c.GameID, err)
		}
	}

	if c.EmulatorName == "" && c.EmulatorID != "" {
		if name, err := s.repoDB.GetEmulatorName(ctx, c.EmulatorID); err == nil {
			c.EmulatorName = name
		} else {
			s.enrichPartial(ctx, "emulator", c.EmulatorID, err)
		}
	}

	return c
}

func (s *Usecase) enrichPartial(ctx context.Context, what string, id any, err error) {
	slog.WarnContext(ctx, "notification enrichment incomplete", "lookup", what, "id", id, "error", err)
}
