package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	EventType string `validate:"required,event_type"`
	Type      string `json:"notification_type" validate:"omitempty,enum_name"`
	Limit     int    `json:"limit,omitempty" validate:"omitempty,gte=1,lte=100"`
	Secret    string `json:"-" validate:"omitempty,max=3"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(sample{EventType: "listing.approved", Type: "LISTING_APPROVED"}))
	assert.NoError(t, v.Validate(sample{EventType: "report.status_changed"}))

	err = v.Validate(sample{EventType: "ListingApproved", Type: "listing", Limit: 500})
	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "event_type must be a dotted lowercase event name", verr.Values()["event_type"])
	assert.Equal(t, "notification_type must be an uppercase identifier", verr.Values()["notification_type"])
	assert.Contains(t, verr.Values(), "limit")
	assert.Len(t, verr.Values(), 3)
}

func TestV10ValidationError_Error(t *testing.T) {
	assert.Equal(t, "validation error", V10ValidationError{}.Error())
	assert.Equal(t, `{"a":"b"}`, V10ValidationError{"a": "b"}.Error())
}
