package activation

import "context"

// KeyRepository stores activation keys.
//
// MarkUsedIfUnused flips a key to consumed with a single conditional update
// and reports whether this caller won. Two accounts racing on the same key
// cannot both consume it.
type KeyRepository interface {
	Create(ctx context.Context, k *Key) error
	GetByCode(ctx context.Context, code string) (*Key, error)
	MarkUsedIfUnused(ctx context.Context, code string, userID uint) (bool, error)
}
