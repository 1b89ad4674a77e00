// dispatch-form is the terminal client for recording dispatches. It keeps
// every draft on the device and submits through the gateway.
//
// Example:
//
//	GATEWAY_URL=http://localhost:8080 go run ./cmd/dispatch-form -kinds=oil,doc
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mmdatafocus/dispatch_forms/config"
	"github.com/mmdatafocus/dispatch_forms/connectivity"
	"github.com/mmdatafocus/dispatch_forms/ledger"
	"github.com/mmdatafocus/dispatch_forms/localcache"
	"github.com/mmdatafocus/dispatch_forms/models"
	"github.com/mmdatafocus/dispatch_forms/session"
)

func main() {
	kindsFlag := flag.String("kinds", "oil,soap,doc", "Comma-separated form tabs to open")
	identifier := flag.String("lookup", "", "Identifying value (vehicle or invoice no) to look up for the first tab when no draft is cached")
	autoAck := flag.Bool("auto-ack", false, "Return to editing right after a submission outcome")
	flag.Parse()

	var kinds []models.FormKind
	for _, k := range config.SplitAndTrim(*kindsFlag) {
		kind, err := models.ParseFormKind(k)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		kinds = append(kinds, kind)
	}
	if len(kinds) == 0 {
		fmt.Fprintln(os.Stderr, "--kinds needs at least one form kind")
		os.Exit(1)
	}

	cfg, err := config.LoadClientConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, closeCache, err := localcache.Open(ctx, cfg.DraftStore)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open draft store: %v\n", err)
		os.Exit(1)
	}
	defer closeCache()

	identifiers := map[models.FormKind]string{}
	if v := strings.TrimSpace(*identifier); v != "" {
		identifiers[kinds[0]] = v
	}

	sess, err := session.Open(ctx, session.Options{
		Kinds:           kinds,
		Cache:           cache,
		Ledger:          ledger.NewClient(cfg.GatewayURL),
		Prober:          connectivity.NewHTTPProber(cfg.GatewayURL),
		ProbeInterval:   cfg.ProbeInterval,
		Identifiers:     identifiers,
		RemotePrefetch:  cfg.RemotePrefetch,
		AutoAcknowledge: *autoAck,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open session: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	if err := newConsole(sess, os.Stdin, os.Stdout).Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
