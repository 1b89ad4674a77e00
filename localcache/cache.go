// Package localcache persists the current draft of each dispatch form so it
// survives restarts. Each form kind owns exactly one slot; writes overwrite,
// and entries live until deleted.
package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmdatafocus/dispatch_forms/config"
	"github.com/mmdatafocus/dispatch_forms/models"
	"github.com/mmdatafocus/dispatch_forms/utils"
)

// Cache is a single-slot-per-kind draft store.
type Cache interface {
	// Load returns the stored draft for kind. Missing, unreadable or
	// malformed entries are reported as absent.
	Load(ctx context.Context, kind models.FormKind) (models.DraftRecord, bool)
	// Save overwrites the slot for kind.
	Save(ctx context.Context, kind models.FormKind, rec models.DraftRecord) error
	// Delete clears the slot for kind. Missing entries are ignored.
	Delete(ctx context.Context, kind models.FormKind) error
}

// SubmitLocker is implemented by backends that can be shared between
// processes and so need a lock around a submission of one kind.
type SubmitLocker interface {
	ObtainSubmitLock(ctx context.Context, kind models.FormKind) (release func(context.Context) error, err error)
}

var (
	ErrSaveFailed = errors.New("draft save failed")
	ErrLocked     = errors.New("draft is locked by another submission")
)

// Key is the stable storage key for kind inside namespace.
func Key(namespace string, kind models.FormKind) string {
	if namespace == "" {
		return "dispatch:draft:" + string(kind)
	}
	return namespace + ":dispatch:draft:" + string(kind)
}

func encodeRecord(kind models.FormKind, rec models.DraftRecord) ([]byte, error) {
	if rec.Kind != kind {
		return nil, fmt.Errorf("%w: record kind %q stored under %q", ErrSaveFailed, rec.Kind, kind)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return data, nil
}

func decodeRecord(kind models.FormKind, data []byte) (models.DraftRecord, bool) {
	var rec models.DraftRecord
	if err := utils.UnmarshalFromJSON(data, &rec); err != nil {
		config.LogError(config.GetLogger(), "localcache", "decodeRecord", "Unmarshal draft", string(kind), err)
		return models.DraftRecord{}, false
	}
	if rec.Kind != kind {
		config.LogError(config.GetLogger(), "localcache", "decodeRecord", "kind mismatch", string(kind),
			fmt.Errorf("stored draft has kind %q", rec.Kind))
		return models.DraftRecord{}, false
	}
	return rec.Normalize(), true
}
