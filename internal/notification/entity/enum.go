package entity

import (
	"strings"
)

// DeliveryChannel selects the transports a notification is delivered over.
type DeliveryChannel int16

const (
	DeliveryChannelUnknown DeliveryChannel = 0
	DeliveryChannelInApp   DeliveryChannel = 1
	DeliveryChannelEmail   DeliveryChannel = 2
	DeliveryChannelBoth    DeliveryChannel = 3
)

func DeliveryChannelFromString(raw string) DeliveryChannel {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "IN_APP":
		return DeliveryChannelInApp
	case "EMAIL":
		return DeliveryChannelEmail
	case "BOTH":
		return DeliveryChannelBoth
	default:
		return DeliveryChannelUnknown
	}
}

// DeliveryChannelFromFlags maps preference flags to a channel, Unknown when both are off.
func DeliveryChannelFromFlags(inApp, email bool) DeliveryChannel {
	switch {
	case inApp && email:
		return DeliveryChannelBoth
	case inApp:
		return DeliveryChannelInApp
	case email:
		return DeliveryChannelEmail
	default:
		return DeliveryChannelUnknown
	}
}

func (c DeliveryChannel) String() string {
	switch c {
	case DeliveryChannelInApp:
		return "IN_APP"
	case DeliveryChannelEmail:
		return "EMAIL"
	case DeliveryChannelBoth:
		return "BOTH"
	default:
		return "UNKNOWN"
	}
}

func (c DeliveryChannel) InApp() bool {
	return c == DeliveryChannelInApp || c == DeliveryChannelBoth
}

func (c DeliveryChannel) Email() bool {
	return c == DeliveryChannelEmail || c == DeliveryChannelBoth
}

// DeliveryStatus moves PENDING to SENT or FAILED once per delivery attempt.
type DeliveryStatus int16

const (
	DeliveryStatusUnknown DeliveryStatus = 0
	DeliveryStatusPending DeliveryStatus = 1
	DeliveryStatusSent    DeliveryStatus = 2
	DeliveryStatusFailed  DeliveryStatus = 3
)

func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryStatusPending:
		return "PENDING"
	case DeliveryStatusSent:
		return "SENT"
	case DeliveryStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

type Category string

const (
	CategoryEngagement Category = "ENGAGEMENT"
	CategoryContent    Category = "CONTENT"
	CategorySystem     Category = "SYSTEM"
	CategoryModeration Category = "MODERATION"
)

func (c Category) String() string {
	return string(c)
}

type NotificationType string

const (
	TypeListingComment      NotificationType = "LISTING_COMMENT"
	TypeCommentReply        NotificationType = "COMMENT_REPLY"
	TypeUserMention         NotificationType = "USER_MENTION"
	TypeListingVote         NotificationType = "LISTING_VOTE"
	TypeNewDeviceListing    NotificationType = "NEW_DEVICE_LISTING"
	TypeGameAdded           NotificationType = "GAME_ADDED"
	TypeEmulatorUpdated     NotificationType = "EMULATOR_UPDATED"
	TypeWeeklyDigest        NotificationType = "WEEKLY_DIGEST"
	TypeMaintenanceNotice   NotificationType = "MAINTENANCE_NOTICE"
	TypeFeatureAnnouncement NotificationType = "FEATURE_ANNOUNCEMENT"
	TypePolicyUpdate        NotificationType = "POLICY_UPDATE"
	TypeListingApproved     NotificationType = "LISTING_APPROVED"
	TypeListingRejected     NotificationType = "LISTING_REJECTED"
	TypeRoleChanged         NotificationType = "ROLE_CHANGED"
	TypeAccountWarning      NotificationType = "ACCOUNT_WARNING"
	TypeUserUnbanned        NotificationType = "USER_UNBANNED"
	TypeContentFlagged      NotificationType = "CONTENT_FLAGGED"
	TypeReportCreated       NotificationType = "REPORT_CREATED"
	TypeReportStatusChanged NotificationType = "REPORT_STATUS_CHANGED"
)

func (t NotificationType) String() string {
	return string(t)
}

// NotificationTypes lists every known type.
func NotificationTypes() []NotificationType {
	return []NotificationType{
		TypeListingComment,
		TypeCommentReply,
		TypeUserMention,
		TypeListingVote,
		TypeNewDeviceListing,
		TypeGameAdded,
		TypeEmulatorUpdated,
		TypeWeeklyDigest,
		TypeMaintenanceNotice,
		TypeFeatureAnnouncement,
		TypePolicyUpdate,
		TypeListingApproved,
		TypeListingRejected,
		TypeRoleChanged,
		TypeAccountWarning,
		TypeUserUnbanned,
		TypeContentFlagged,
		TypeReportCreated,
		TypeReportStatusChanged,
	}
}

// Role values as stored on the user row, lowest privilege first.
const (
	RoleUser       = "USER"
	RoleAuthor     = "AUTHOR"
	RoleDeveloper  = "DEVELOPER"
	RoleModerator  = "MODERATOR"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// Roles lists all roles from lowest to highest privilege.
func Roles() []string {
	return []string{RoleUser, RoleAuthor, RoleDeveloper, RoleModerator, RoleAdmin, RoleSuperAdmin}
}
