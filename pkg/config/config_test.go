package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesConfigValidate(t *testing.T) {
	valid := RulesConfig{
		NoticeThreshold:       4 * time.Hour,
		LateCancelSuspension:  336 * time.Hour,
		ShortNoticeSuspension: 504 * time.Hour,
		NoShowSuspension:      672 * time.Hour,
		LockTimeout:           3 * time.Second,
	}
	require.NoError(t, valid.Validate())

	// Zero durations disable the penalty and are allowed.
	disabled := valid
	disabled.LateCancelSuspension = 0
	require.NoError(t, disabled.Validate())

	negative := valid
	negative.NoShowSuspension = -time.Hour
	require.Error(t, negative.Validate())

	badThreshold := valid
	badThreshold.NoticeThreshold = -time.Minute
	require.Error(t, badThreshold.Validate())

	noLockTimeout := valid
	noLockTimeout.LockTimeout = 0
	require.Error(t, noLockTimeout.Validate())
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 4*time.Hour, parseDuration("4h", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("junk", time.Minute))
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , b ,"))
}
