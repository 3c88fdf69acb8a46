package session

import "github.com/vovakirdan/hackchat-client/internal/proto"

// startKeepaliveLocked runs a ping ticker bound to gen. The goroutine exits
// when stopKeepaliveLocked closes its channel.
func (s *Session) startKeepaliveLocked(gen uint64) {
	s.stopKeepaliveLocked()
	stop := make(chan struct{})
	s.keepStop = stop
	ticker := s.clk.Ticker(s.cfg.PingInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.ping(gen)
			}
		}
	}()
}

func (s *Session) stopKeepaliveLocked() {
	if s.keepStop != nil {
		close(s.keepStop)
		s.keepStop = nil
	}
}

func (s *Session) ping(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if s.status != StatusAwaitingJoinAck && s.status != StatusJoined {
		return
	}
	if err := s.tr.Send(proto.MustEncode(proto.Ping{})); err != nil {
		s.log.Debug().Err(err).Uint64("generation", gen).Msg("ping not sent")
	}
}
