package inbound

import (
	"github.com/shandysiswandi/emunotify/internal/notification/usecase"
	"github.com/shandysiswandi/emunotify/internal/pkg/router"
)

// ListInbox returns user notifications.
// @Summary List inbox
// @Description Returns inbox notifications for the authenticated user, newest first.
// @Tags Inbox
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by status (all|read|unread)"
// @Param limit query int false "Pagination limit"
// @Param offset query int false "Pagination offset"
// @Success 200 {object} router.successResponse{data=NotificationsResponse} "Notification list"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox [get]
func (h *HTTPEndpoint) ListInbox(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}
	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, err
	}

	items, err := h.uc.ListInbox(r.Context(), usecase.ListInboxInput{
		Status: r.GetQuery("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, newNotificationResponse(item))
	}

	return NotificationsResponse{Notifications: resp}, nil
}

// UnreadCount returns the number of unread notifications.
// @Summary Unread count
// @Tags Inbox
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=UnreadCountResponse} "Unread count"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox/unread-count [get]
func (h *HTTPEndpoint) UnreadCount(r *router.Request) (any, error) {
	count, err := h.uc.UnreadCount(r.Context())
	if err != nil {
		return nil, err
	}

	return UnreadCountResponse{Count: count}, nil
}

// MarkInboxRead marks a notification as read.
// @Summary Mark inbox read
// @Description Marks an inbox notification as read.
// @Tags Inbox
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid notification id"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Notification not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox/{id}/read [patch]
func (h *HTTPEndpoint) MarkInboxRead(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.MarkInboxRead(r.Context(), usecase.MarkInboxReadInput{ID: id})
}

// MarkAllInboxRead marks all notifications as read.
// @Summary Mark all inbox read
// @Tags Inbox
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox/read-all [put]
func (h *HTTPEndpoint) MarkAllInboxRead(r *router.Request) (any, error) {
	return nil, h.uc.MarkAllInboxRead(r.Context())
}

// DeleteInbox removes a notification.
// @Summary Delete inbox
// @Tags Inbox
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid notification id"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Notification not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox/{id} [delete]
func (h *HTTPEndpoint) DeleteInbox(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.DeleteInbox(r.Context(), usecase.DeleteInboxInput{ID: id})
}

// ListSettings returns user notification settings.
// @Summary List notification settings
// @Description Returns one entry per notification type; types without a stored preference show their defaults.
// @Tags Notification
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=NotificationSettingsResponse} "Settings list"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/settings [get]
func (h *HTTPEndpoint) ListSettings(r *router.Request) (any, error) {
	items, err := h.uc.ListSettings(r.Context())
	if err != nil {
		return nil, err
	}

	resp := make([]NotificationSettingResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, NotificationSettingResponse{
			Type:         item.Type.String(),
			Category:     item.Category.String(),
			InAppEnabled: item.InAppEnabled,
			EmailEnabled: item.EmailEnabled,
			IsDefault:    item.IsDefault,
		})
	}

	return NotificationSettingsResponse{Settings: resp}, nil
}

// UpdateSettings updates user notification settings.
// @Summary Update notification settings
// @Tags Notification
// @Security BearerAuth
// @Accept json
// @Param request body NotificationSettingsUpdateRequest true "Settings payload"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/settings [put]
func (h *HTTPEndpoint) UpdateSettings(r *router.Request) (any, error) {
	var req NotificationSettingsUpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	inputs := make([]usecase.UpdateSettingInput, 0, len(req.Settings))
	for _, setting := range req.Settings {
		inputs = append(inputs, usecase.UpdateSettingInput{
			Type:         setting.Type,
			InAppEnabled: setting.InAppEnabled,
			EmailEnabled: setting.EmailEnabled,
		})
	}

	return nil, h.uc.UpdateSettings(r.Context(), usecase.UpdateSettingsInput{Settings: inputs})
}

// Mute stops notifications about one entity.
// @Summary Mute entity
// @Tags Notification
// @Security BearerAuth
// @Accept json
// @Param request body MuteRequest true "Entity to mute"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/mutes [post]
func (h *HTTPEndpoint) Mute(r *router.Request) (any, error) {
	var req MuteRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Mute(r.Context(), usecase.MuteInput{EntityType: req.EntityType, EntityID: req.EntityID})
}

// Unmute resumes notifications about one entity.
// @Summary Unmute entity
// @Tags Notification
// @Security BearerAuth
// @Accept json
// @Param request body MuteRequest true "Entity to unmute"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Entity is not muted"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/mutes [delete]
func (h *HTTPEndpoint) Unmute(r *router.Request) (any, error) {
	var req MuteRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Unmute(r.Context(), usecase.MuteInput{EntityType: req.EntityType, EntityID: req.EntityID})
}

// Unsubscribe turns off email for one notification type from a signed link.
// Mail clients honoring List-Unsubscribe-Post call the same URL with POST.
// @Summary One-click email unsubscribe
// @Tags Notification
// @Produce json
// @Param u query string true "User ID"
// @Param t query string true "Notification type"
// @Param sig query string true "Link signature"
// @Success 200 {object} router.successResponse{data=UnsubscribeResponse} "Unsubscribed"
// @Failure 400 {object} router.errorResponse "Invalid link"
// @Failure 403 {object} router.errorResponse "Signature mismatch"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/unsubscribe [get]
// @Router /api/v1/notification/unsubscribe [post]
func (h *HTTPEndpoint) Unsubscribe(r *router.Request) (any, error) {
	in := usecase.UnsubscribeInput{
		UserID:    r.GetQuery("u"),
		Type:      r.GetQuery("t"),
		Signature: r.GetQuery("sig"),
	}
	if err := h.uc.Unsubscribe(r.Context(), in); err != nil {
		return nil, err
	}

	return UnsubscribeResponse{Type: in.Type, EmailEnabled: false}, nil
}

// ScheduleDigest opts the caller into next week's digest.
// @Summary Schedule weekly digest
// @Tags Notification
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=DigestResponse} "Digest scheduled"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 409 {object} router.errorResponse "Digest disabled in settings"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/digest [post]
func (h *HTTPEndpoint) ScheduleDigest(r *router.Request) (any, error) {
	out, err := h.uc.ScheduleMyWeeklyDigest(r.Context())
	if err != nil {
		return nil, err
	}

	return DigestResponse{ScheduledFor: out.ScheduledFor}, nil
}

// DeviceRegister registers a device for push notifications.
// @Summary Register device
// @Description Registers a device token for the authenticated user.
// @Tags Notification
// @Security BearerAuth
// @Accept json
// @Param request body RegisterDeviceRequest true "Device registration payload"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/device [post]
func (h *HTTPEndpoint) DeviceRegister(r *router.Request) (any, error) {
	var req RegisterDeviceRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.RegisterDevice(r.Context(), usecase.RegisterDeviceInput{
		Token:    req.DeviceToken,
		Platform: req.Platform,
	})
}

// DeviceRemove removes a device from push notifications.
// @Summary Remove device
// @Tags Notification
// @Security BearerAuth
// @Accept json
// @Param request body RemoveDeviceRequest true "Device removal payload"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/device [delete]
func (h *HTTPEndpoint) DeviceRemove(r *router.Request) (any, error) {
	var req RemoveDeviceRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.RemoveDevice(r.Context(), usecase.RemoveDeviceInput{Token: req.DeviceToken})
}
