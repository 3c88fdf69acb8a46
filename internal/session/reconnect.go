package session

import (
	"fmt"
	"time"
)

// retryDelay grows linearly with the attempt number and is capped.
func (c Config) retryDelay(attempt int) time.Duration {
	d := c.ReconnectDelay * time.Duration(attempt)
	if d > c.ReconnectMaxDelay {
		d = c.ReconnectMaxDelay
	}
	return d
}

func (s *Session) scheduleRetryLocked(creds Credentials) {
	if s.attempts >= s.cfg.MaxReconnectAttempts {
		s.err = fmt.Errorf("%w: %w", ErrReconnectExhausted, s.err)
		s.log.Warn().
			Str("channel", creds.Channel).
			Int("attempts", s.attempts).
			Msg("giving up on reconnect")
		return
	}

	s.attempts++
	delay := s.cfg.retryDelay(s.attempts)
	gen := s.gen
	s.log.Info().
		Str("channel", creds.Channel).
		Str("nick", creds.Nick).
		Int("attempt", s.attempts).
		Dur("delay", delay).
		Msg("reconnect scheduled")

	s.cancelRetryLocked()
	s.retry = s.clk.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		if s.status != StatusDisconnected && s.status != StatusFailed {
			return
		}
		s.startLocked(creds, true)
	})
}

func (s *Session) cancelRetryLocked() {
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
}
