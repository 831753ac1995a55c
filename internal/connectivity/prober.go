package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type ProberConfig struct {
	URL      string
	Interval time.Duration
	Timeout  time.Duration
}

// Prober considers the store reachable when a HEAD request to URL gets any
// HTTP response.
type Prober struct {
	cfg    ProberConfig
	client *http.Client
	log    *slog.Logger

	mu     sync.Mutex
	online bool
	known  bool
	subs   listeners
}

func NewProber(cfg ProberConfig, client *http.Client, logger *slog.Logger) *Prober {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}

	if client == nil {
		client = &http.Client{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Prober{
		cfg:    cfg,
		client: client,
		log:    logger.With("component", "connectivity"),
	}
}

func (p *Prober) IsOnline(ctx context.Context) bool {
	return p.check(ctx)
}

func (p *Prober) Subscribe(fn func(bool)) func() {
	return p.subs.add(fn)
}

// Run probes on every interval until ctx is cancelled.
func (p *Prober) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.check(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.check(ctx)
		}
	}
}

// check probes once and notifies subscribers when the state flips. The
// first probe only records the state.
func (p *Prober) check(ctx context.Context) bool {
	online := p.probe(ctx)

	p.mu.Lock()
	changed := p.known && p.online != online
	p.online = online
	p.known = true
	p.mu.Unlock()

	if changed {
		p.log.Info("connectivity changed", "online", online)
		p.subs.notify(online)
	}

	return online
}

func (p *Prober) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.cfg.URL, nil)
	if err != nil {
		p.log.Error("invalid probe request", "url", p.cfg.URL, "error", err)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug("probe failed", "url", p.cfg.URL, "error", err)
		return false
	}

	resp.Body.Close()

	return true
}
