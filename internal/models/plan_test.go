package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationForPlanType(t *testing.T) {
	tests := []struct {
		planType string
		want     int
	}{
		{"weekly", 7},
		{"monthly", 30},
		{"yearly", 365},
		{"Weekly", 7},
		{"  MONTHLY  ", 30},
		{"weekly special", 7},
		{"super yearly deal", 365},
		{"trial", 30},
		{"", 30},
	}

	for _, tt := range tests {
		t.Run(tt.planType, func(t *testing.T) {
			assert.Equal(t, tt.want, DurationForPlanType(tt.planType))
		})
	}
}

func TestSubscriptionExpired(t *testing.T) {
	now := time.Now()

	active := Subscription{ExpiryDate: now.Add(time.Hour)}
	assert.False(t, active.Expired(now))

	expired := Subscription{ExpiryDate: now.Add(-time.Hour)}
	assert.True(t, expired.Expired(now))

	// Expiry is exclusive: a subscription is expired at the boundary.
	boundary := Subscription{ExpiryDate: now}
	assert.True(t, boundary.Expired(now))
}

func TestHasActiveSubscription(t *testing.T) {
	now := time.Now()

	user := User{ActiveSubscriptions: []Subscription{
		{ExpiryDate: now.Add(-time.Hour)},
		{ExpiryDate: now.Add(time.Hour)},
	}}
	assert.True(t, user.HasActiveSubscription(now))

	lapsed := User{ActiveSubscriptions: []Subscription{
		{ExpiryDate: now.Add(-time.Hour)},
	}}
	assert.False(t, lapsed.HasActiveSubscription(now))

	fresh := User{}
	assert.False(t, fresh.HasActiveSubscription(now))
}
