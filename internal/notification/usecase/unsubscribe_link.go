package usecase

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
)

const unsubscribePath = "/api/v1/notification/unsubscribe"

type signer interface {
	Sign(payload string) string
	Verify(payload, sig string) bool
}

// UnsubscribeLinks signs one-click email unsubscribe links with an HMAC over the
// user id and notification type.
type UnsubscribeLinks struct {
	baseURL string
	sign    signer
}

func NewUnsubscribeLinks(baseURL string, s signer) *UnsubscribeLinks {
	return &UnsubscribeLinks{baseURL: strings.TrimRight(baseURL, "/"), sign: s}
}

func (l *UnsubscribeLinks) UnsubscribeURL(userID int64, t entity.NotificationType) string {
	q := url.Values{}
	q.Set("u", strconv.FormatInt(userID, 10))
	q.Set("t", t.String())
	q.Set("sig", l.sign.Sign(payload(userID, t)))

	return l.baseURL + unsubscribePath + "?" + q.Encode()
}

func (l *UnsubscribeLinks) Valid(userID int64, t entity.NotificationType, sig string) bool {
	if sig == "" {
		return false
	}

	return l.sign.Verify(payload(userID, t), sig)
}

func payload(userID int64, t entity.NotificationType) string {
	return "unsubscribe:" + strconv.FormatInt(userID, 10) + ":" + t.String()
}
