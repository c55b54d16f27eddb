package store

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/umkmpro/umkm_backend/config"
	"github.com/umkmpro/umkm_backend/models"
	"github.com/umkmpro/umkm_backend/utils"
)

var moduleName = "store"

// snapshotCacheTTL bounds how long a cached snapshot may outlive its
// writer. The cache is written through on every successful save, so the
// TTL only matters after a crash between save and cache update.
const snapshotCacheTTL = time.Hour

// Repository persists whole snapshots. The store always writes the full
// state: the snapshot is small enough that replace-all keeps persistence
// trivially consistent with the in-memory ledger.
type Repository interface {
	LoadAll(ctx context.Context) (*models.LedgerSnapshot, error)
	SaveAll(ctx context.Context, snapshot *models.LedgerSnapshot) error
}

// SyncPublisher notifies other devices that a fresh snapshot was saved.
type SyncPublisher interface {
	PublishSaved(ctx context.Context, businessId string, savedAt int64) error
}

// Store is the single writer over the ledger. Apply clones the current
// snapshot, runs the operation on the clone and swaps the pointer only on
// success, so a failed operation can never leave a half-applied state
// behind and readers always see a consistent snapshot.
type Store struct {
	mu         sync.Mutex
	businessId string
	current    *models.LedgerSnapshot
	repo       Repository
	publisher  SyncPublisher
	logger     *logrus.Logger
}

func NewStore(businessId string, repo Repository, publisher SyncPublisher) *Store {
	return &Store{
		businessId: businessId,
		current:    models.NewLedgerSnapshot(),
		repo:       repo,
		publisher:  publisher,
		logger:     config.GetLogger(),
	}
}

// Load replaces the in-memory snapshot with the persisted one. The Redis
// cache is tried first: it is written through on every save, so a hit is
// at least as fresh as the repository.
func (st *Store) Load(ctx context.Context) error {
	var cached models.LedgerSnapshot
	if ok, err := config.GetRedisObject(st.cacheKey(), &cached); err != nil {
		config.LogError(st.logger, moduleName, "Load", "Error reading snapshot cache", st.businessId, err)
	} else if ok {
		st.mu.Lock()
		st.current = &cached
		st.mu.Unlock()
		return nil
	}

	snapshot, err := st.repo.LoadAll(ctx)
	if err != nil {
		config.LogError(st.logger, moduleName, "Load", "Error loading snapshot", st.businessId, err)
		return err
	}
	st.mu.Lock()
	st.current = snapshot
	st.mu.Unlock()

	if err := config.SetRedisObject(st.cacheKey(), snapshot, snapshotCacheTTL); err != nil {
		config.LogError(st.logger, moduleName, "Load", "Error priming snapshot cache", st.businessId, err)
	}
	return nil
}

func (st *Store) cacheKey() string {
	return "ledger:" + st.businessId
}

// Snapshot returns a deep copy for readers. Callers may mutate the copy
// freely.
func (st *Store) Snapshot() *models.LedgerSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current.Clone()
}

// Apply runs one operation against a clone of the current snapshot and
// commits the clone on success. Persistence runs after the swap; a save
// failure is logged and retried on the next commit (the snapshot is always
// written whole).
func (st *Store) Apply(ctx context.Context, operation string, op func(s *models.LedgerSnapshot) error) error {
	release, err := utils.BusinessLock(ctx, st.businessId, "ledger", moduleName, operation)
	if err != nil {
		return err
	}
	defer release()

	st.mu.Lock()
	defer st.mu.Unlock()

	next := st.current.Clone()
	if err := op(next); err != nil {
		return err
	}
	st.current = next
	st.persist(next.Clone())
	return nil
}

// persist writes the committed snapshot in the background and publishes a
// sync event when a publisher is configured. The caller holds the store
// mutex; the write works on its own clone. The cache is invalidated before
// the save and rewritten after it, so a failed save never leaves a cache
// entry ahead of the repository.
func (st *Store) persist(snapshot *models.LedgerSnapshot) {
	savedAt := time.Now().UnixMilli()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := config.RemoveRedisKey(st.cacheKey()); err != nil {
			config.LogError(st.logger, moduleName, "persist", "Error invalidating snapshot cache", st.businessId, err)
		}
		if err := st.repo.SaveAll(ctx, snapshot); err != nil {
			config.LogError(st.logger, moduleName, "persist", "Error saving snapshot", st.businessId, err)
			return
		}
		if err := config.SetRedisObject(st.cacheKey(), snapshot, snapshotCacheTTL); err != nil {
			config.LogError(st.logger, moduleName, "persist", "Error updating snapshot cache", st.businessId, err)
		}
		if st.publisher == nil {
			return
		}
		if err := st.publisher.PublishSaved(ctx, st.businessId, savedAt); err != nil {
			config.LogError(st.logger, moduleName, "persist", "Error publishing sync event", st.businessId, err)
		}
	}()
}

// BusinessID returns the id this store serves.
func (st *Store) BusinessID() string {
	return st.businessId
}

// DefaultBusinessID reads BUSINESS_ID, defaulting to a single-tenant id.
func DefaultBusinessID() string {
	if v := os.Getenv("BUSINESS_ID"); v != "" {
		return v
	}
	return "default"
}
