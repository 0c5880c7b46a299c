package entity

import (
	"github.com/shandysiswandi/emunotify/internal/pkg/valueobject"
)

type EventType string

const (
	EventListingCreated      EventType = "listing.created"
	EventListingApproved     EventType = "listing.approved"
	EventListingRejected     EventType = "listing.rejected"
	EventListingCommented    EventType = "listing.commented"
	EventListingVoted        EventType = "listing.voted"
	EventCommentReplied      EventType = "comment.replied"
	EventUserMentioned       EventType = "user.mentioned"
	EventGameAdded           EventType = "game.added"
	EventEmulatorUpdated     EventType = "emulator.updated"
	EventUserRoleChanged     EventType = "user.role_changed"
	EventUserWarned          EventType = "user.warned"
	EventUserUnbanned        EventType = "user.unbanned"
	EventContentFlagged      EventType = "content.flagged"
	EventReportCreated       EventType = "report.created"
	EventReportStatusChanged EventType = "report.status_changed"
	EventSystemMaintenance   EventType = "system.maintenance"
	EventSystemFeature       EventType = "system.feature"
	EventSystemPolicy        EventType = "system.policy"
)

func (e EventType) String() string {
	return string(e)
}

// Payload keys understood by recipient resolution and enrichment.
const (
	PayloadListingID        = "listing_id"
	PayloadCommentID        = "comment_id"
	PayloadParentCommentID  = "parent_comment_id"
	PayloadAuthorID         = "author_id"
	PayloadMentionedUserIDs = "mentioned_user_ids"
	PayloadReporterID       = "reporter_id"
	PayloadGameID           = "game_id"
	PayloadDeviceID         = "device_id"
	PayloadSocID            = "soc_id"
	PayloadEmulatorID       = "emulator_id"
	PayloadOldRole          = "old_role"
	PayloadNewRole          = "new_role"
	PayloadReason           = "reason"
	PayloadVoteValue        = "vote_value"
	PayloadCommentText      = "comment_text"
	PayloadStatus           = "status"
	PayloadTitle            = "title"
	PayloadMessage          = "message"
	PayloadVersion          = "version"
)

// DomainEvent is built by callers, consumed synchronously by the bus and never persisted.
type DomainEvent struct {
	EventType   EventType `validate:"required,event_type"`
	EntityType  string    `validate:"required"`
	EntityID    string    `validate:"required"`
	TriggeredBy int64
	Payload     valueobject.JSONMap
}

// HasTrigger reports whether the event names the acting user.
func (e DomainEvent) HasTrigger() bool {
	return e.TriggeredBy > 0
}
