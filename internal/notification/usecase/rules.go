package usecase

import (
	"time"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
)

type recipientRule int

const (
	recipientsModerators recipientRule = iota
	recipientsListingAuthor
	recipientsParentCommentAuthor
	recipientsMentioned
	recipientsDeviceMatch
	recipientsTypeEnabled
	recipientsEntityUser
	recipientsReporter
)

type eventRule struct {
	notificationType entity.NotificationType
	recipients       recipientRule
	keepActor        bool
}

var eventRules = map[entity.EventType]eventRule{
	entity.EventListingCommented:    {notificationType: entity.TypeListingComment, recipients: recipientsListingAuthor},
	entity.EventCommentReplied:      {notificationType: entity.TypeCommentReply, recipients: recipientsParentCommentAuthor},
	entity.EventUserMentioned:       {notificationType: entity.TypeUserMention, recipients: recipientsMentioned},
	entity.EventListingVoted:        {notificationType: entity.TypeListingVote, recipients: recipientsListingAuthor},
	entity.EventListingCreated:      {notificationType: entity.TypeNewDeviceListing, recipients: recipientsDeviceMatch},
	entity.EventGameAdded:           {notificationType: entity.TypeGameAdded, recipients: recipientsTypeEnabled},
	entity.EventEmulatorUpdated:     {notificationType: entity.TypeEmulatorUpdated, recipients: recipientsTypeEnabled},
	entity.EventSystemMaintenance:   {notificationType: entity.TypeMaintenanceNotice, recipients: recipientsModerators, keepActor: true},
	entity.EventSystemFeature:       {notificationType: entity.TypeFeatureAnnouncement, recipients: recipientsModerators, keepActor: true},
	entity.EventSystemPolicy:        {notificationType: entity.TypePolicyUpdate, recipients: recipientsModerators, keepActor: true},
	entity.EventListingApproved:     {notificationType: entity.TypeListingApproved, recipients: recipientsListingAuthor, keepActor: true},
	entity.EventListingRejected:     {notificationType: entity.TypeListingRejected, recipients: recipientsListingAuthor, keepActor: true},
	entity.EventUserRoleChanged:     {notificationType: entity.TypeRoleChanged, recipients: recipientsEntityUser, keepActor: true},
	entity.EventUserWarned:          {notificationType: entity.TypeAccountWarning, recipients: recipientsEntityUser, keepActor: true},
	entity.EventUserUnbanned:        {notificationType: entity.TypeUserUnbanned, recipients: recipientsEntityUser, keepActor: true},
	entity.EventContentFlagged:      {notificationType: entity.TypeContentFlagged, recipients: recipientsModerators},
	entity.EventReportCreated:       {notificationType: entity.TypeReportCreated, recipients: recipientsModerators},
	entity.EventReportStatusChanged: {notificationType: entity.TypeReportStatusChanged, recipients: recipientsReporter},
}

const defaultDedupWindow = 30 * time.Minute

var dedupWindows = map[entity.NotificationType]time.Duration{
	entity.TypeListingComment:      5 * time.Minute,
	entity.TypeCommentReply:        5 * time.Minute,
	entity.TypeUserMention:         5 * time.Minute,
	entity.TypeListingVote:         15 * time.Minute,
	entity.TypeListingApproved:     time.Hour,
	entity.TypeListingRejected:     time.Hour,
	entity.TypeRoleChanged:         time.Hour,
	entity.TypeWeeklyDigest:        24 * time.Hour,
	entity.TypeMaintenanceNotice:   24 * time.Hour,
	entity.TypeFeatureAnnouncement: 24 * time.Hour,
	entity.TypePolicyUpdate:        24 * time.Hour,
}

func dedupWindow(t entity.NotificationType) time.Duration {
	if w, ok := dedupWindows[t]; ok {
		return w
	}
	return defaultDedupWindow
}

// defaultChannel applies when the user has no preference row for the type.
func defaultChannel(c entity.Category) entity.DeliveryChannel {
	if c == entity.CategoryModeration {
		return entity.DeliveryChannelBoth
	}
	return entity.DeliveryChannelInApp
}
