package inbound

import (
	"strconv"

	"github.com/shandysiswandi/emunotify/internal/notification/usecase"
	"github.com/shandysiswandi/emunotify/internal/pkg/router"
)

// AdminSend delivers one notification immediately.
// @Summary Send notification
// @Tags Notification Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body AdminSendRequest true "Notification payload"
// @Success 200 {object} router.successResponse{data=NotificationResponse} "Created notification"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 409 {object} router.errorResponse "Recipient disabled this type"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Rate limit exceeded"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/admin/send [post]
func (h *HTTPEndpoint) AdminSend(r *router.Request) (any, error) {
	var req AdminSendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	record, err := h.uc.AdminSend(r.Context(), usecase.AdminSendInput{
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		ActionURL: req.ActionURL,
		Channel:   req.Channel,
		Metadata:  req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return newNotificationResponse(*record), nil
}

// AdminBroadcast notifies every active user.
// @Summary Broadcast notification
// @Tags Notification Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body AdminBroadcastRequest true "Broadcast payload"
// @Success 200 {object} router.successResponse{data=usecase.BroadcastSummary} "Delivery summary"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/admin/broadcast [post]
func (h *HTTPEndpoint) AdminBroadcast(r *router.Request) (any, error) {
	var req AdminBroadcastRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return h.uc.AdminBroadcast(r.Context(), usecase.AdminBroadcastInput{
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		ActionURL: req.ActionURL,
		Channel:   req.Channel,
	})
}

// AdminEmit publishes a domain event onto the event bus.
// @Summary Emit domain event
// @Tags Notification Admin
// @Security BearerAuth
// @Accept json
// @Param request body AdminEmitRequest true "Domain event"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/notification/admin/events [post]
func (h *HTTPEndpoint) AdminEmit(r *router.Request) (any, error) {
	var req AdminEmitRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.AdminEmit(r.Context(), usecase.AdminEmitInput{
		EventType:  req.EventType,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Payload:    req.Payload,
	})
}

// RateLimitStatus returns the live rate-limit counters of a user.
// @Summary Rate limit status
// @Tags Notification Admin
// @Security BearerAuth
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} router.successResponse{data=RateLimitStatusResponse} "Counters"
// @Failure 400 {object} router.errorResponse "Invalid user id"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Router /api/v1/notification/admin/rate-limits/{user_id} [get]
func (h *HTTPEndpoint) RateLimitStatus(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("user_id")
	if err != nil {
		return nil, err
	}

	entries, err := h.uc.RateLimitStatus(r.Context(), userID)
	if err != nil {
		return nil, err
	}

	return RateLimitStatusResponse{UserID: strconv.FormatInt(userID, 10), Entries: entries}, nil
}

// ResetRateLimits clears the rate-limit counters of a user.
// @Summary Reset rate limits
// @Tags Notification Admin
// @Security BearerAuth
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} router.successResponse{data=RateLimitResetResponse} "Cleared counters"
// @Failure 400 {object} router.errorResponse "Invalid user id"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Router /api/v1/notification/admin/rate-limits/{user_id} [delete]
func (h *HTTPEndpoint) ResetRateLimits(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("user_id")
	if err != nil {
		return nil, err
	}

	n, err := h.uc.ResetRateLimits(r.Context(), userID)
	if err != nil {
		return nil, err
	}

	return RateLimitResetResponse{Cleared: n}, nil
}

// ListRateLimitRules returns the active rules.
// @Summary List rate limit rules
// @Tags Notification Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=RateLimitRulesResponse} "Rules"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Router /api/v1/notification/admin/rate-limit-rules [get]
func (h *HTTPEndpoint) ListRateLimitRules(r *router.Request) (any, error) {
	rules, err := h.uc.ListRateLimitRules(r.Context())
	if err != nil {
		return nil, err
	}

	resp := make([]RateLimitRuleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, RateLimitRuleResponse{
			Scope:         rule.Scope,
			MaxRequests:   rule.MaxRequests,
			WindowSeconds: int64(rule.Window.Seconds()),
			UserSpecific:  rule.UserSpecific,
		})
	}

	return RateLimitRulesResponse{Rules: resp}, nil
}

// PutRateLimitRule installs or replaces a rule.
// @Summary Put rate limit rule
// @Tags Notification Admin
// @Security BearerAuth
// @Accept json
// @Param request body RateLimitRuleRequest true "Rule"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/notification/admin/rate-limit-rules [put]
func (h *HTTPEndpoint) PutRateLimitRule(r *router.Request) (any, error) {
	var req RateLimitRuleRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.PutRateLimitRule(r.Context(), usecase.PutRateLimitRuleInput{
		Scope:         req.Scope,
		MaxRequests:   req.MaxRequests,
		WindowSeconds: req.WindowSeconds,
		UserSpecific:  req.UserSpecific,
	})
}

// DeleteRateLimitRule removes a rule and its counters.
// @Summary Delete rate limit rule
// @Tags Notification Admin
// @Security BearerAuth
// @Param scope path string true "Rule scope"
// @Success 204 "No Content"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 404 {object} router.errorResponse "Rule not found"
// @Router /api/v1/notification/admin/rate-limit-rules/{scope} [delete]
func (h *HTTPEndpoint) DeleteRateLimitRule(r *router.Request) (any, error) {
	return nil, h.uc.DeleteRateLimitRule(r.Context(), r.GetParam("scope"))
}

// SchedulerStatus reports the batch queue.
// @Summary Scheduler status
// @Tags Notification Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=scheduler.Status} "Queue status"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Router /api/v1/notification/admin/scheduler [get]
func (h *HTTPEndpoint) SchedulerStatus(r *router.Request) (any, error) {
	return h.uc.SchedulerStatus(r.Context())
}

// RealtimeStatus reports live push connections.
// @Summary Realtime status
// @Tags Notification Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=usecase.RealtimeStatus} "Connections"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Router /api/v1/notification/admin/realtime [get]
func (h *HTTPEndpoint) RealtimeStatus(r *router.Request) (any, error) {
	return h.uc.RealtimeStatus(r.Context())
}

// Analytics returns delivery stats for the configured window.
// @Summary Delivery analytics
// @Tags Notification Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=entity.NotificationStats} "Stats"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/admin/analytics [get]
func (h *HTTPEndpoint) Analytics(r *router.Request) (any, error) {
	return h.uc.Analytics(r.Context())
}
