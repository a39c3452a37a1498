package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
)

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	PendingOrderKey(sessionID string) string
}

// Store holds at most one staged checkout per client session. It is backed
// by redis so the staged order survives a full navigation away to an
// external payment page and back.
type Store interface {
	Stage(ctx context.Context, po *PendingOrder) error
	Peek(ctx context.Context, sessionID string) (*PendingOrder, error)
	Clear(ctx context.Context, sessionID string) error
}

type store struct {
	kv  kvStore
	ttl time.Duration
}

// NewStore builds the pending order store with the configured staging TTL.
func NewStore(kv kvStore, ttl time.Duration) (Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("pending ttl must be positive")
	}
	return &store{kv: kv, ttl: ttl}, nil
}

// Stage replaces any existing staged checkout for the session. Last write
// wins; there is no queue of attempts.
func (s *store) Stage(ctx context.Context, po *PendingOrder) error {
	if po == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "pending order required")
	}
	if po.SessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if po.OrderNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order number required before staging")
	}
	if len(po.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "pending order contains no lines")
	}

	payload, err := json.Marshal(po)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode pending order")
	}
	if err := s.kv.Set(ctx, s.kv.PendingOrderKey(po.SessionID), string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stage pending order")
	}
	return nil
}

// Peek returns the staged checkout for the session, or nil when none exists.
// A missing entry is recoverable (the caller routes back to the cart), so it
// is not an error.
func (s *store) Peek(ctx context.Context, sessionID string) (*PendingOrder, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	raw, err := s.kv.Get(ctx, s.kv.PendingOrderKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending order")
	}
	if raw == "" {
		return nil, nil
	}

	var po PendingOrder
	if err := json.Unmarshal([]byte(raw), &po); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode pending order")
	}
	return &po, nil
}

func (s *store) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if err := s.kv.Del(ctx, s.kv.PendingOrderKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear pending order")
	}
	return nil
}
