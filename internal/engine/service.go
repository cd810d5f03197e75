package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Service runs the refresh-and-analyze cycle on a fixed interval.
type Service struct {
	analyzer *Analyzer
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewService(analyzer *Analyzer, interval time.Duration) *Service {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Service{
		analyzer: analyzer,
		interval: interval,
	}
}

// Start launches the periodic cycle. The first cycle runs immediately.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn().Msg("engine service already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	log.Info().Dur("interval", s.interval).Msg("engine service started")

	go s.loop(ctx)
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.doneCh)

	s.RunCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("engine service context cancelled")
			return
		case <-s.stopCh:
			log.Info().Msg("engine service stopped")
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle performs one full refresh-and-analyze pass.
func (s *Service) RunCycle(ctx context.Context) *Analysis {
	start := time.Now()
	succeeded, total := s.analyzer.RefreshQuotes(ctx)

	var analysis *Analysis
	if succeeded > 0 {
		analysis = s.analyzer.Analyze()
	}

	log.Info().
		Int("quotes", succeeded).
		Int("instruments", total).
		Dur("took", time.Since(start)).
		Msg("cycle completed")
	return analysis
}

// Stop halts the periodic cycle and waits for the loop to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
}

func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
