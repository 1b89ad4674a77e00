package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/dispatch_forms/ledger"
	"github.com/mmdatafocus/dispatch_forms/localcache"
	"github.com/mmdatafocus/dispatch_forms/models"
	"github.com/mmdatafocus/dispatch_forms/session"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }

func TestConsole_SubmitFlow(t *testing.T) {
	var mu sync.Mutex
	var posted map[string]string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			b, _ := io.ReadAll(r.Body)
			mu.Lock()
			_ = json.Unmarshal(b, &posted)
			mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":200,"message":"Saved row 14"}`))
	}))
	defer gw.Close()

	ctx := context.Background()
	cache := localcache.NewMemory()
	sess, err := session.Open(ctx, session.Options{
		Kinds:  []models.FormKind{models.FormKindDoc},
		Cache:  cache,
		Ledger: ledger.NewClient(gw.URL),
		Clock:  fixedNow,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	script := strings.Join([]string{
		"preview",
		"set vehicleNo TN 01 AB 22",
		"set partyName Sri Mills",
		"set soyaDocMT 1.25",
		"set sunflowerDocMT 2",
		"set totalMT 9",
		"preview",
		"confirm",
		"submit",
		"ack",
		"quit",
	}, "\n")
	var out bytes.Buffer
	if err := newConsole(sess, strings.NewReader(script), &out).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Vehicle No is required",
		"total 3.25 MT",
		"derived total cannot be set directly",
		"about to send:",
		"Succeeded: Saved row 14",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if posted["vehicleNo"] != "TN 01 AB 22" || posted["partyName"] != "Sri Mills" || posted["totalMT"] != "3.25" || posted["type"] != "doc_dispatch" {
		t.Fatalf("unexpected posted payload %v", posted)
	}
	if _, ok := cache.Raw(models.FormKindDoc); ok {
		t.Fatalf("draft should be cleared after success")
	}
	if sess.Active().Record().Fields["vehicleNo"] != "" {
		t.Fatalf("draft should be reset after success")
	}
}

func TestConsole_FailureKeepsDraft(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":409,"message":"Invoice INV-3 already recorded"}`))
	}))
	defer gw.Close()

	ctx := context.Background()
	sess, err := session.Open(ctx, session.Options{
		Kinds:  []models.FormKind{models.FormKindSoap},
		Cache:  localcache.NewMemory(),
		Ledger: ledger.NewClient(gw.URL),
		Clock:  fixedNow,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	script := "set invoiceNo INV-3\nset vehicleNo KA01\nset bar100g 5\npreview\nconfirm\nsubmit\nstatus\nquit\n"
	var out bytes.Buffer
	if err := newConsole(sess, strings.NewReader(script), &out).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "Failed: Invoice INV-3 already recorded") {
		t.Fatalf("ledger message not relayed:\n%s", out.String())
	}
	rec := sess.Active().Record()
	if rec.Fields["invoiceNo"] != "INV-3" || rec.Quantities["bar100g"] != "5" {
		t.Fatalf("draft lost after failure: %+v", rec)
	}
}
