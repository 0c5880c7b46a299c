package template

import (
	"fmt"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
)

func registerDefaults(e *Engine) {
	// engagement
	e.Register(entity.TypeListingComment, entity.CategoryEngagement, func(c Context) Rendered {
		msg := fmt.Sprintf("%s commented on %s", or(c.ActorName, "Someone"), listingLabel(c))
		if c.CommentText != "" {
			msg += ": \"" + truncate(c.CommentText, 120) + "\""
		}
		return Rendered{
			Title:     "New comment on your listing",
			Message:   msg,
			ActionURL: commentURL(c),
			Metadata:  valueobject.JSONMap{"listing_id": c.ListingID, "comment_id": c.CommentID},
		}
	})

	e.Register(entity.TypeCommentReply, entity.CategoryEngagement, func(c Context) Rendered {
		msg := fmt.Sprintf("%s replied to your comment", or(c.ActorName, "Someone"))
		if c.GameTitle != "" {
			msg += " on " + listingLabel(c)
		}
		if c.CommentText != "" {
			msg += ": \"" + truncate(c.CommentText, 120) + "\""
		}
		return Rendered{
			Title:     "New reply to your comment",
			Message:   msg,
			ActionURL: commentURL(c),
			Metadata:  valueobject.JSONMap{"listing_id": c.ListingID, "comment_id": c.CommentID},
		}
	})

	e.Register(entity.TypeUserMention, entity.CategoryEngagement, func(c Context) Rendered {
		return Rendered{
			Title:     "You were mentioned",
			Message:   fmt.Sprintf("%s mentioned you in a comment", or(c.ActorName, "Someone")),
			ActionURL: commentURL(c),
			Metadata:  valueobject.JSONMap{"listing_id": c.ListingID, "comment_id": c.CommentID},
		}
	})

	e.Register(entity.TypeListingVote, entity.CategoryEngagement, func(c Context) Rendered {
		verb := "voted on"
		switch {
		case c.VoteValue > 0:
			verb = "upvoted"
		case c.VoteValue < 0:
			verb = "downvoted"
		}
		return Rendered{
			Title:     "Your listing received a vote",
			Message:   fmt.Sprintf("%s %s %s", or(c.ActorName, "Someone"), verb, listingLabel(c)),
			ActionURL: listingURL(c.ListingID),
			Metadata:  valueobject.JSONMap{"listing_id": c.ListingID, "vote_value": c.VoteValue},
		}
	})

	// content
	e.Register(entity.TypeNewDeviceListing, entity.CategoryContent, func(c Context) Rendered {
		target := or(c.DeviceName, or(c.SocName, "a device you follow"))
		msg := fmt.Sprintf("A new compatibility report was posted for %s", target)
		if c.GameTitle != "" {
			msg = fmt.Sprintf("%s was reported on %s", c.GameTitle, target)
		}
		if c.EmulatorName != "" {
			msg += " using " + c.EmulatorName
		}
		return Rendered{
			Title:     "New listing for your device",
			Message:   msg,
			ActionURL: listingURL(c.ListingID),
			Metadata:  valueobject.JSONMap{"listing_id": c.ListingID, "device": c.DeviceName, "soc": c.SocName},
		}
	})

	e.Register(entity.TypeGameAdded, entity.CategoryContent, func(c Context) Rendered {
		url := ""
		if c.GameID != "" {
			url = "/games/" + c.GameID
		}
		return Rendered{
			Title:     "New game added",
			Message:   fmt.Sprintf("%s has been added to the catalogue", or(c.GameTitle, "A new game")),
			ActionURL: url,
			Metadata:  valueobject.JSONMap{"game_id": c.GameID},
		}
	})

	e.Register(entity.TypeEmulatorUpdated, entity.CategoryContent, func(c Context) Rendered {
		msg := fmt.Sprintf("%s has been updated", or(c.EmulatorName, "An emulator you follow"))
		if c.Version != "" {
			msg += " to " + c.Version
		}
		url := ""
		if c.EmulatorID != "" {
			url = "/emulators/" + c.EmulatorID
		}
		return Rendered{
			Title:     "Emulator updated",
			Message:   msg,
			ActionURL: url,
			Metadata:  valueobject.JSONMap{"emulator_id": c.EmulatorID, "version": c.Version},
		}
	})

	e.Register(entity.TypeWeeklyDigest, entity.CategoryContent, func(c Context) Rendered {
		msg := "Here is what happened on EmuReady this week"
		if c.UnreadCount > 0 {
			msg = fmt.Sprintf("You have %d unread notifications this week", c.UnreadCount)
		}
		return Rendered{
			Title:     "Your weekly digest",
			Message:   msg,
			ActionURL: "/notifications",
			Metadata:  valueobject.JSONMap{"unread_count": c.UnreadCount},
		}
	})

	// system
	e.Register(entity.TypeMaintenanceNotice, entity.CategorySystem, func(c Context) Rendered {
		return Rendered{
			Title:    or(c.Title, "Scheduled maintenance"),
			Message:  or(c.Message, "EmuReady will be briefly unavailable during scheduled maintenance"),
			Metadata: valueobject.JSONMap{},
		}
	})

	e.Register(entity.TypeFeatureAnnouncement, entity.CategorySystem, func(c Context) Rendered {
		return Rendered{
			Title:    or(c.Title, "New feature available"),
			Message:  or(c.Message, "We shipped something new, take a look"),
			Metadata: valueobject.JSONMap{},
		}
	})

	e.Register(entity.TypePolicyUpdate, entity.CategorySystem, func(c Context) Rendered {
		return Rendered{
			Title:     or(c.Title, "Policy update"),
			Message:   or(c.Message, "Our community guidelines have been updated"),
			ActionURL: "/guidelines",
			Metadata:  valueobject.JSONMap{},
		}
	})

	// moderation
	e.Register(entity.TypeListingApproved, entity.CategoryModeration, func(c Context) Rendered {
		return Rendered{
			Title:     "Listing approved",
			Message:   fmt.Sprintf("Your listing for %s has been approved", listingSubject(c)),
			ActionURL: listingURL(c.ListingID),
			Metadata:  valueobject.JSONMap{"listing_id": c.ListingID, "approved_by": c.ActorName},
		}
	})

	e.Register(entity.TypeListingRejected, entity.CategoryModeration, func(c Context) Rendered {
		msg := fmt.Sprintf("Your listing for %s was rejected", listingSubject(c))
		if c.Reason != "" {
			msg += ": " + c.Reason
		}
		return Rendered{
			Title:     "Listing rejected",
			Message:   msg,
			ActionURL: listingURL(c.ListingID),
			Metadata:  valueobject.JSONMap{"listing_id": c.ListingID, "reason": c.Reason},
		}
	})

	e.Register(entity.TypeRoleChanged, entity.CategoryModeration, func(c Context) Rendered {
		msg := "Your account role has changed"
		switch {
		case c.OldRole != "" && c.NewRole != "":
			msg = fmt.Sprintf("Your role changed from %s to %s", c.OldRole, c.NewRole)
		case c.NewRole != "":
			msg = fmt.Sprintf("Your role is now %s", c.NewRole)
		}
		return Rendered{
			Title:     "Role updated",
			Message:   msg,
			ActionURL: "/profile",
			Metadata:  valueobject.JSONMap{"old_role": c.OldRole, "new_role": c.NewRole},
		}
	})

	e.Register(entity.TypeAccountWarning, entity.CategoryModeration, func(c Context) Rendered {
		return Rendered{
			Title:     "Account warning",
			Message:   or(c.Reason, "A moderator issued a warning on your account"),
			ActionURL: "/profile",
			Metadata:  valueobject.JSONMap{"reason": c.Reason},
		}
	})

	e.Register(entity.TypeUserUnbanned, entity.CategoryModeration, func(c Context) Rendered {
		return Rendered{
			Title:     "Account restored",
			Message:   "Your account restrictions have been lifted",
			ActionURL: "/profile",
			Metadata:  valueobject.JSONMap{},
		}
	})

	e.Register(entity.TypeContentFlagged, entity.CategoryModeration, func(c Context) Rendered {
		msg := fmt.Sprintf("%s flagged a %s for review", or(c.ActorName, "A user"), or(c.EntityType, "post"))
		if c.Reason != "" {
			msg += ": " + c.Reason
		}
		return Rendered{
			Title:     "Content flagged",
			Message:   msg,
			ActionURL: "/admin/reports",
			Metadata:  valueobject.JSONMap{"entity_type": c.EntityType, "entity_id": c.EntityID},
		}
	})

	e.Register(entity.TypeReportCreated, entity.CategoryModeration, func(c Context) Rendered {
		url := "/admin/reports"
		if c.EntityID != "" {
			url += "/" + c.EntityID
		}
		return Rendered{
			Title:     "New report",
			Message:   fmt.Sprintf("%s submitted a report", or(c.ActorName, "A user")),
			ActionURL: url,
			Metadata:  valueobject.JSONMap{"report_id": c.EntityID, "reason": c.Reason},
		}
	})

	e.Register(entity.TypeReportStatusChanged, entity.CategoryModeration, func(c Context) Rendered {
		msg := "The status of your report has changed"
		if c.Status != "" {
			msg = "Your report is now " + c.Status
		}
		return Rendered{
			Title:    "Report updated",
			Message:  msg,
			Metadata: valueobject.JSONMap{"report_id": c.EntityID, "status": c.Status},
		}
	})
}

func listingSubject(c Context) string {
	if c.GameTitle == "" {
		return "your game"
	}
	return listingLabel(c)
}

func commentURL(c Context) string {
	url := listingURL(c.ListingID)
	if url != "" && c.CommentID != "" {
		url += "#comment-" + c.CommentID
	}
	return url
}
