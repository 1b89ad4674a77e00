// Package connectivity tracks whether the device can reach the gateway. The
// state is advisory: it feeds the offline banner and never blocks submission.
package connectivity

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmdatafocus/dispatch_forms/config"
	"github.com/sirupsen/logrus"
)

// Prober reports current reachability.
type Prober interface {
	Probe(ctx context.Context) bool
}

type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) Probe(ctx context.Context) bool { return f(ctx) }

// Transition is emitted when the state flips.
type Transition struct {
	Online bool
	At     time.Time
}

type Monitor struct {
	mu     sync.RWMutex
	online bool
	subs   []chan Transition
	prober Prober
	logger *logrus.Logger
}

// NewMonitor seeds the state from one probe.
func NewMonitor(ctx context.Context, prober Prober) *Monitor {
	return &Monitor{
		online: prober.Probe(ctx),
		prober: prober,
		logger: config.GetLogger(),
	}
}

func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Subscribe returns a channel that receives every transition. Slow readers
// miss transitions rather than block the monitor.
func (m *Monitor) Subscribe() <-chan Transition {
	ch := make(chan Transition, 8)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Set applies a transition event. Setting the current state is a no-op.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	t := Transition{Online: online, At: time.Now()}
	for _, ch := range m.subs {
		select {
		case ch <- t:
		default:
		}
	}
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{"online": online}).Info("connectivity changed")
}

// Run probes every interval until ctx is done, then closes subscriber channels.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer m.closeSubs()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Set(m.prober.Probe(ctx))
		}
	}
}

func (m *Monitor) closeSubs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		close(ch)
	}
	m.subs = nil
}

// HTTPProber treats any response from the gateway health endpoint as online.
type HTTPProber struct {
	url  string
	http *http.Client
}

func NewHTTPProber(gatewayURL string) *HTTPProber {
	return &HTTPProber{
		url:  strings.TrimRight(gatewayURL, "/") + "/healthz",
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
