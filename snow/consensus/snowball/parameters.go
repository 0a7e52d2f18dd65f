// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snowball

import (
	"errors"
	"fmt"
	"time"
)

// MinPercentConnectedBuffer is the safety buffer added to the ratio of the
// quorum size to the sample size when reporting the minimum percentage of
// stake that should be connected for the node to be considered healthy.
const MinPercentConnectedBuffer = .2

// DefaultParameters is the default consensus parameterization. It is safe
// for production networks of at least 21 nodes.
var (
	DefaultParameters = Parameters{
		K:                     20,
		Alpha:                 15,
		BetaVirtuous:          15,
		BetaRogue:             20,
		ConcurrentRepolls:     4,
		OptimalProcessing:     10,
		MaxOutstandingItems:   256,
		MaxItemProcessingTime: 30 * time.Second,
	}

	ErrParametersInvalid = errors.New("parameters invalid")
)

// Parameters required for snowball consensus
type Parameters struct {
	// K is the number of nodes to query per poll
	K int `json:"k" yaml:"k"`

	// Alpha is the number of identical responses required per poll for the
	// poll to be considered successful
	Alpha int `json:"alpha" yaml:"alpha"`

	// BetaVirtuous is the number of consecutive successful polls required to
	// finalize a choice that has never observed a conflict
	BetaVirtuous int `json:"betaVirtuous" yaml:"betaVirtuous"`

	// BetaRogue is the number of consecutive successful polls required to
	// finalize a choice that has observed a conflict
	BetaRogue int `json:"betaRogue" yaml:"betaRogue"`

	// ConcurrentRepolls is the number of outstanding polls the engine should
	// target while there are processing items. This is advisory to the
	// polling layer, the consensus instance never issues queries itself.
	ConcurrentRepolls int `json:"concurrentRepolls" yaml:"concurrentRepolls"`

	// OptimalProcessing is the optimal number of processing items to target
	OptimalProcessing int `json:"optimalProcessing" yaml:"optimalProcessing"`

	// MaxOutstandingItems is the maximum number of items that should be
	// processing at once
	MaxOutstandingItems int `json:"maxOutstandingItems" yaml:"maxOutstandingItems"`

	// MaxItemProcessingTime is the maximum amount of time an item should
	// spend processing before the node reports unhealthy
	MaxItemProcessingTime time.Duration `json:"maxItemProcessingTime" yaml:"maxItemProcessingTime"`
}

// Verify returns nil if the parameters describe a valid initialization.
//
// An initialization is valid if the quorum size is a strict majority of the
// sample size and the finalization thresholds are achievable.
func (p Parameters) Verify() error {
	switch {
	case p.Alpha <= p.K/2:
		return fmt.Errorf("%w: k = %d, alpha = %d: fails the condition that: k/2 < alpha",
			ErrParametersInvalid, p.K, p.Alpha)
	case p.K < p.Alpha:
		return fmt.Errorf("%w: k = %d, alpha = %d: fails the condition that: alpha <= k",
			ErrParametersInvalid, p.K, p.Alpha)
	case p.BetaVirtuous <= 0:
		return fmt.Errorf("%w: betaVirtuous = %d: fails the condition that: 0 < betaVirtuous",
			ErrParametersInvalid, p.BetaVirtuous)
	case p.BetaRogue < p.BetaVirtuous:
		return fmt.Errorf("%w: betaVirtuous = %d, betaRogue = %d: fails the condition that: betaVirtuous <= betaRogue",
			ErrParametersInvalid, p.BetaVirtuous, p.BetaRogue)
	case p.ConcurrentRepolls <= 0:
		return fmt.Errorf("%w: concurrentRepolls = %d: fails the condition that: 0 < concurrentRepolls",
			ErrParametersInvalid, p.ConcurrentRepolls)
	case p.ConcurrentRepolls > p.BetaRogue:
		return fmt.Errorf("%w: concurrentRepolls = %d, betaRogue = %d: fails the condition that: concurrentRepolls <= betaRogue",
			ErrParametersInvalid, p.ConcurrentRepolls, p.BetaRogue)
	case p.OptimalProcessing <= 0:
		return fmt.Errorf("%w: optimalProcessing = %d: fails the condition that: 0 < optimalProcessing",
			ErrParametersInvalid, p.OptimalProcessing)
	case p.MaxOutstandingItems <= 0:
		return fmt.Errorf("%w: maxOutstandingItems = %d: fails the condition that: 0 < maxOutstandingItems",
			ErrParametersInvalid, p.MaxOutstandingItems)
	case p.MaxItemProcessingTime <= 0:
		return fmt.Errorf("%w: maxItemProcessingTime = %d: fails the condition that: 0 < maxItemProcessingTime",
			ErrParametersInvalid, p.MaxItemProcessingTime)
	default:
		return nil
	}
}

// MinPercentConnectedHealthy returns the minimum percentage of stake that
// this node must be connected to in order to be considered healthy.
func (p Parameters) MinPercentConnectedHealthy() float64 {
	alphaRatio := float64(p.Alpha) / float64(p.K)
	return alphaRatio*(1-MinPercentConnectedBuffer) + MinPercentConnectedBuffer
}
