package service

import (
	"time"

	"github.com/noah-isme/classreg-api/internal/models"
	"github.com/noah-isme/classreg-api/pkg/config"
)

// PenaltyPolicy maps violations to suspension durations using the configured
// rule parameters.
type PenaltyPolicy struct {
	rules config.RulesConfig
}

// NewPenaltyPolicy constructs the policy from validated rule config.
func NewPenaltyPolicy(rules config.RulesConfig) *PenaltyPolicy {
	return &PenaltyPolicy{rules: rules}
}

// ClassifyCancel derives the cancellation kind from the actual lead time,
// computed as class start minus cancellation instant. The comparison is
// half-open: lead >= threshold takes the lighter penalty, strictly less takes
// the heavier one.
//
// TODO(product): confirm whether a cancellation after class start should stay
// SHORT_NOTICE_CANCEL or become NO_SHOW; current behaviour keeps it a cancel.
func (p *PenaltyPolicy) ClassifyCancel(classStartAt, cancelledAt time.Time) models.CancelReason {
	lead := classStartAt.Sub(cancelledAt)
	if lead >= p.rules.NoticeThreshold {
		return models.CancelReasonLateCancel
	}
	return models.CancelReasonShortNotice
}

// DurationFor returns the suspension span for a violation kind. Zero means no
// suspension is imposed for that kind.
func (p *PenaltyPolicy) DurationFor(reason models.CancelReason) time.Duration {
	switch reason {
	case models.CancelReasonLateCancel:
		return p.rules.LateCancelSuspension
	case models.CancelReasonShortNotice:
		return p.rules.ShortNoticeSuspension
	case models.CancelReasonNoShow:
		return p.rules.NoShowSuspension
	}
	return 0
}
