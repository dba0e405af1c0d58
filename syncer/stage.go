// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 Lumen Project Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package syncer

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/lumen-rollup/lumend/fault"
)

// a state type for one stage
type stageState int

// state of a stage process
const (
	// nothing to do until the next cycle
	stageIdle stageState = iota

	// requesting data from the aggregator
	stageFetching stageState = iota

	// checking a fetched record before storing it
	stageValidating stageState = iota

	// inside the store write transaction
	stageCommitting stageState = iota

	// waiting out a transient failure
	stageBackoff stageState = iota

	// a non-recoverable fault, the stage will not run again
	stageHalted stageState = iota
)

func (state stageState) String() string {
	switch state {
	case stageIdle:
		return "Idle"
	case stageFetching:
		return "Fetching"
	case stageValidating:
		return "Validating"
	case stageCommitting:
		return "Committing"
	case stageBackoff:
		return "Backoff"
	case stageHalted:
		return "Halted"
	default:
		return "*Unknown*"
	}
}

const (
	// polling cadence when fully caught up
	cycleInterval = 2 * time.Second

	// transient failure back off, doubling per attempt
	backoffInitial = 1 * time.Second
	backoffMaximum = 60 * time.Second
)

// delay before retrying after consecutive transient failures
func backoffDelay(attempt int) time.Duration {
	delay := backoffInitial
	for i := 1; i < attempt && delay < backoffMaximum; i += 1 {
		delay *= 2
	}
	if delay > backoffMaximum {
		delay = backoffMaximum
	}
	return delay
}

// common stage bookkeeping embedded in each concrete stage
type stageData struct {
	log     *logger.L
	state   stageState
	attempt int
}

func (s *stageData) initialise(name string) {
	s.log = logger.New("syncer-" + name)
	s.state = stageIdle
}

// run one stage until shutdown
//
// step performs one unit of work and reports whether more is
// immediately available; transient errors back off, a marker
// mismatch means another writer bypassed the pipeline and the
// stage halts rather than guess
func (s *stageData) run(shutdown <-chan struct{}, step func() (bool, error)) {
	log := s.log

	log.Info("starting…")

	timer := time.After(cycleInterval)

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case <-timer:
			timer = time.After(s.cycle(step))
		}
	}

	log.Info("stopped")
}

// run steps until the work runs out or an error pauses the stage
//
// returns the delay before the next cycle
func (s *stageData) cycle(step func() (bool, error)) time.Duration {

	if stageHalted == s.state {
		return backoffMaximum
	}

	for {
		more, err := step()
		if nil == err {
			s.attempt = 0
			if !more {
				s.state = stageIdle
				return cycleInterval
			}
			continue
		}

		if fault.MarkerMismatch == err || fault.GenesisMismatch == err {
			s.log.Criticalf("halted: %s", err)
			s.state = stageHalted
			return backoffMaximum
		}

		s.attempt += 1
		s.state = stageBackoff
		delay := backoffDelay(s.attempt)

		if fault.IsErrTemporary(err) {
			// caught up with the aggregator, not a failure
			s.attempt = 0
			delay = cycleInterval
			s.log.Debugf("pausing: %s", err)
		} else {
			s.log.Warnf("attempt: %d  pausing %s after: %s", s.attempt, delay, err)
		}
		return delay
	}
}
