package audio

import (
	"slices"
	"sync"

	"volume-bridge/internal/domain"
)

// receiverSet is the registration table shared by every BroadcastSource in
// this package. Receivers are called outside the lock so a receiver may
// register or unregister from its callback.
type receiverSet struct {
	mu        sync.Mutex
	receivers []domain.Receiver
}

func (s *receiverSet) Register(r domain.Receiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.receivers, r) {
		s.receivers = append(s.receivers, r)
	}
	return nil
}

func (s *receiverSet) Unregister(r domain.Receiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receivers = slices.DeleteFunc(s.receivers, func(cur domain.Receiver) bool {
		return cur == r
	})
	return nil
}

// Len returns the number of registered receivers.
func (s *receiverSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.receivers)
}

func (s *receiverSet) broadcast() {
	s.mu.Lock()
	receivers := slices.Clone(s.receivers)
	s.mu.Unlock()

	for _, r := range receivers {
		r.OnVolumeChanged()
	}
}
