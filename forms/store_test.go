package forms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/dispatch_forms/localcache"
	"github.com/mmdatafocus/dispatch_forms/models"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC) }

func newTestStore(t *testing.T, kind models.FormKind) (*Store, *localcache.Memory) {
	t.Helper()
	cache := localcache.NewMemory()
	s, err := NewStore(kind, cache, WithClock(fixedNow))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, cache
}

func TestStore_SetFieldRecomputesAndPersists(t *testing.T) {
	ctx := context.Background()
	s, cache := newTestStore(t, models.FormKindOil)

	if err := s.SetField(ctx, "20L", "10"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if err := s.SetField(ctx, "10L", "5"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if got := s.Record().Total; got != "0.23" {
		t.Fatalf("expected total 0.23, got %s", got)
	}

	cached, ok := cache.Load(ctx, models.FormKindOil)
	if !ok {
		t.Fatalf("expected cache entry after mutation")
	}
	if !cached.Equal(s.Record()) {
		t.Fatalf("cache does not mirror the store:\n%+v\n%+v", cached, s.Record())
	}
}

func TestStore_SetFieldHeaderDoesNotTouchTotal(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, models.FormKindDoc)
	_ = s.SetField(ctx, "soyaDocMT", "12.5")
	_ = s.SetField(ctx, "sunflowerDocMT", "3.25")
	if err := s.SetField(ctx, "vehicleNo", "GJ05"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	rec := s.Record()
	if rec.Total != "15.75" {
		t.Fatalf("expected 15.75, got %s", rec.Total)
	}
	if rec.Fields["vehicleNo"] != "GJ05" {
		t.Fatalf("vehicleNo not set")
	}
}

func TestStore_SetFieldRejectsUndeclared(t *testing.T) {
	ctx := context.Background()
	s, cache := newTestStore(t, models.FormKindSoap)

	if err := s.SetField(ctx, "20L", "4"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := s.SetField(ctx, "destinationCategory", "Local"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField for another kind's header, got %v", err)
	}
	if err := s.SetField(ctx, models.TotalField, "9.99"); !errors.Is(err, ErrTotalField) {
		t.Fatalf("expected ErrTotalField, got %v", err)
	}
	if _, ok := cache.Raw(models.FormKindSoap); ok {
		t.Fatalf("rejected mutations must not write the cache")
	}
}

func TestStore_SetFieldClearsOnlyThatError(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, models.FormKindSoap)
	s.SetErrors(s.Validate())
	if len(s.Errors()) != 2 {
		t.Fatalf("expected invoiceNo and vehicleNo errors, got %v", s.Errors())
	}

	_ = s.SetField(ctx, "invoiceNo", "INV-9")
	errs := s.Errors()
	if _, ok := errs["invoiceNo"]; ok {
		t.Fatalf("invoiceNo error should be cleared")
	}
	if _, ok := errs["vehicleNo"]; !ok {
		t.Fatalf("vehicleNo error should remain")
	}
}

func TestStore_ResetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, cache := newTestStore(t, models.FormKindOil)
	_ = s.SetField(ctx, "vehicleNo", "KA01")
	_ = s.SetField(ctx, "5L", "3")

	s.Reset(ctx)
	first := s.Record()
	if _, ok := cache.Raw(models.FormKindOil); ok {
		t.Fatalf("cache entry should be gone after reset")
	}

	s.Reset(ctx)
	second := s.Record()
	if _, ok := cache.Raw(models.FormKindOil); ok {
		t.Fatalf("cache entry should still be gone after second reset")
	}
	if !first.Equal(second) {
		t.Fatalf("reset is not idempotent:\n%+v\n%+v", first, second)
	}
	if !first.Equal(models.NewDraftRecord(models.FormKindOil, fixedNow())) {
		t.Fatalf("reset did not restore the default record: %+v", first)
	}
}

func TestStore_HydrateRecomputesTotal(t *testing.T) {
	s, cache := newTestStore(t, models.FormKindOil)
	rec := models.NewDraftRecord(models.FormKindOil, fixedNow())
	rec.Quantities["20L"] = "100"
	rec.Total = "999.99"

	if err := s.Hydrate(rec); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if got := s.Record().Total; got != "1.82" {
		t.Fatalf("expected recomputed total 1.82, got %s", got)
	}
	if _, ok := cache.Raw(models.FormKindOil); ok {
		t.Fatalf("hydrate must not write the cache")
	}
	if err := s.Hydrate(models.NewDraftRecord(models.FormKindDoc, fixedNow())); err == nil {
		t.Fatalf("expected error hydrating with another kind")
	}
}

func TestStore_RecordIsACopy(t *testing.T) {
	s, _ := newTestStore(t, models.FormKindOil)
	rec := s.Record()
	rec.Fields["vehicleNo"] = "tampered"
	if s.Record().Fields["vehicleNo"] != "" {
		t.Fatalf("Record leaked internal state")
	}
}

func TestNewStore_UnknownKind(t *testing.T) {
	if _, err := NewStore(models.FormKind("diesel"), nil); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
