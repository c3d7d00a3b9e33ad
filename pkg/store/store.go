// auditcfg/pkg/store/store.go

package store

import (
	"context"

	"github.com/redis/go-redis/v9"

	"rgehrsitz/auditcfg/pkg/config"
)

// Store distributes published snapshots to other hosts.
type Store interface {
	PublishSnapshot(ctx context.Context, key, channel string, snap *config.Snapshot) error
	FetchSnapshot(ctx context.Context, key string) (*config.Snapshot, error)
	ScanSnapshots(ctx context.Context, pattern string) ([]string, error)
	Subscribe(ctx context.Context, channels ...string) (*redis.PubSub, error)
	Close() error
}
