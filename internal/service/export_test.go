package service

import "time"

// SetNow pins the clock of the AUM service for tests.
func (s *AUMService) SetNow(now func() time.Time) { s.now = now }
