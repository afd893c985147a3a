package cart

import (
	"context"
	"sync"
)

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice codes.
const (
	CodeStockInsufficient = "stock_insufficient"
	CodeAddFailed         = "add_failed"
	CodeUpdateFailed      = "update_failed"
	CodeRemoveFailed      = "remove_failed"
	CodeClearFailed       = "clear_failed"
	CodeSyncFailed        = "sync_failed"
	CodeGiftFailed        = "gift_failed"
)

// Notice is a user-facing message raised while handling a cart operation.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NoticeRecorder collects notices for one request.
type NoticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *NoticeRecorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns the collected notices, never nil.
func (r *NoticeRecorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

type notifierKey struct{}

// WithNotifier routes the notices of operations called with ctx to n.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, notifierKey{}, n)
}

func (m *Manager) notify(ctx context.Context, level NoticeLevel, code, message string) {
	n := Notice{Level: level, Code: code, Message: message}
	if scoped, ok := ctx.Value(notifierKey{}).(Notifier); ok && scoped != nil {
		scoped.Notify(ctx, n)
		return
	}
	if m.deps.Notifier != nil {
		m.deps.Notifier.Notify(ctx, n)
	}
}
