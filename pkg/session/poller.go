package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Start enables background polling. The loop runs while a wallet is loaded
// and restarts when a new one is created or imported.
func (s *Session) Start(ctx context.Context) {
	s.pollMu.Lock()
	s.baseCtx = ctx
	s.running = true
	s.pollMu.Unlock()

	if s.HasWallet() {
		s.startPoller()
	}
}

// Stop disables background polling. Calls already in flight complete.
func (s *Session) Stop() {
	s.pollMu.Lock()
	s.running = false
	s.pollMu.Unlock()
	s.stopPoller()
}

func (s *Session) startPoller() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	if !s.running || s.cancelPoll != nil {
		return
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancelPoll = cancel
	go s.pollingLoop(ctx)
}

func (s *Session) stopPoller() {
	s.pollMu.Lock()
	cancel := s.cancelPoll
	s.cancelPoll = nil
	s.pollMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Session) pollingLoop(ctx context.Context) {
	s.pollOnce(ctx, true)

	balanceTicker := time.NewTicker(s.opts.PollInterval)
	defer balanceTicker.Stop()
	receiptTicker := time.NewTicker(s.opts.ReceiptInterval)
	defer receiptTicker.Stop()

	for {
		select {
		case <-balanceTicker.C:
			s.pollOnce(ctx, false)
		case <-receiptTicker.C:
			if err := s.Reconcile(ctx); err != nil {
				log.Debug().Err(err).Msg("Reconcile poll failed")
			}
		case <-ctx.Done():
			return
		}
	}
}

// pollOnce refreshes the balance and fee data. Errors are logged and
// swallowed; only user-initiated refreshes surface them.
func (s *Session) pollOnce(ctx context.Context, reconcile bool) {
	if err := s.refreshBalance(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("Balance poll failed")
	}
	if err := s.RefreshFees(ctx); err != nil && ctx.Err() == nil {
		log.Debug().Err(err).Msg("Fee poll failed")
	}
	if reconcile {
		if err := s.Reconcile(ctx); err != nil && ctx.Err() == nil {
			log.Debug().Err(err).Msg("Reconcile poll failed")
		}
	}
}
