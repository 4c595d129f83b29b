package session

import "github.com/babyccino/pipeline-orchestrator/internal/models"

const subscriberBuffer = 16

// Subscribe registers a watcher for this session's event stream. The channel
// is buffered; slow watchers drop events rather than stall the pipeline.
func (s *Session) Subscribe() chan models.SessionEvent {
	ch := make(chan models.SessionEvent, subscriberBuffer)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes a watcher and closes its channel.
func (s *Session) Unsubscribe(ch chan models.SessionEvent) {
	s.subMu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.subMu.Unlock()
}

// Publish fans an event out to all watchers without blocking.
func (s *Session) Publish(ev models.SessionEvent) {
	s.publishLocked(ev)
}

func (s *Session) publishLocked(ev models.SessionEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
