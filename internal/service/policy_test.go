package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/classreg-api/internal/models"
)

func TestPolicyClassifyCancel(t *testing.T) {
	policy := testPolicy()
	start := time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		cancelledAt time.Time
		want        models.CancelReason
	}{
		{"well before threshold", start.Add(-24 * time.Hour), models.CancelReasonLateCancel},
		{"exactly at threshold", start.Add(-4 * time.Hour), models.CancelReasonLateCancel},
		{"one second inside threshold", start.Add(-4*time.Hour + time.Second), models.CancelReasonShortNotice},
		{"minutes before start", start.Add(-10 * time.Minute), models.CancelReasonShortNotice},
		{"after start", start.Add(time.Hour), models.CancelReasonShortNotice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.ClassifyCancel(start, tt.cancelledAt))
		})
	}
}

func TestPolicyDurationFor(t *testing.T) {
	policy := testPolicy()

	assert.Equal(t, 14*24*time.Hour, policy.DurationFor(models.CancelReasonLateCancel))
	assert.Equal(t, 21*24*time.Hour, policy.DurationFor(models.CancelReasonShortNotice))
	assert.Equal(t, 28*24*time.Hour, policy.DurationFor(models.CancelReasonNoShow))
	assert.Equal(t, time.Duration(0), policy.DurationFor(models.CancelReasonNone))
}
