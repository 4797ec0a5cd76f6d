package lottery

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/ristretto/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/elimdraw/internal/fileutil"
)

const (
	stateKey    = "state:registry"
	prizePrefix = "prize:"

	defaultCacheTTL = 5 * time.Minute
)

// PrizeRecord is the append-only audit entry written when a game completes
// with survivors.
type PrizeRecord struct {
	GameID           string    `json:"gameId"`
	PrizeAmount      int64     `json:"prizeAmount"`
	TotalSurvivors   int       `json:"totalSurvivors"`
	PrizePerSurvivor int64     `json:"prizePerSurvivor"`
	Winners          []string  `json:"winners"`
	VRFProof         string    `json:"vrfProof"`
	Timestamp        time.Time `json:"timestamp"`
}

// StoreOptions configures the persistence tiers.
type StoreOptions struct {
	DataDir   string        // badger database directory
	StatePath string        // atomic JSON state file
	CacheTTL  time.Duration // fast-tier entry lifetime
}

// Store persists registry snapshots across two tiers. The fast tier is an
// in-process TTL cache written synchronously; the durable tier (badger plus
// an atomically-replaced JSON file) is fed by a single writer goroutine
// with latest-wins coalescing, so a burst of round completions costs one
// durable write, not one per round.
type Store struct {
	logger *log.Logger
	opts   StoreOptions
	db     *badger.DB
	cache  *ristretto.Cache[string, []byte]

	mu      sync.Mutex
	cond    *sync.Cond
	pending []byte // latest snapshot awaiting a durable write
	writing bool
	closed  bool
}

// NewStore opens both tiers. The cache is best-effort: if it cannot be
// built the store degrades to durable-only.
func NewStore(logger *log.Logger, opts StoreOptions) (*Store, error) {
	if opts.CacheTTL == 0 {
		opts.CacheTTL = defaultCacheTTL
	}

	db, err := badger.Open(badger.DefaultOptions(opts.DataDir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", opts.DataDir, err)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e4,
		MaxCost:     32 << 20,
		BufferItems: 64,
	})
	if err != nil {
		logger.Warn("fast tier unavailable, durable-only persistence", "error", err)
		cache = nil
	}

	s := &Store{
		logger: logger.WithPrefix("store"),
		opts:   opts,
		db:     db,
		cache:  cache,
	}
	s.cond = sync.NewCond(&s.mu)
	go s.writeLoop()
	return s, nil
}

// Save persists a snapshot. The fast tier is updated before returning;
// the durable tiers are written asynchronously, coalescing with any write
// already queued. Persistence failures degrade silently to the next tier
// and never surface into gameplay.
func (s *Store) Save(snap *RegistrySnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error("snapshot marshal failed", "error", err)
		return
	}

	if s.cache != nil {
		s.cache.SetWithTTL(stateKey, data, int64(len(data)), s.opts.CacheTTL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = data
	s.cond.Broadcast()
}

func (s *Store) writeLoop() {
	for {
		s.mu.Lock()
		for s.pending == nil && !s.closed {
			s.cond.Wait()
		}
		if s.pending == nil && s.closed {
			s.mu.Unlock()
			return
		}
		data := s.pending
		s.pending = nil
		s.writing = true
		s.mu.Unlock()

		s.writeDurable(data)

		s.mu.Lock()
		s.writing = false
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

func (s *Store) writeDurable(data []byte) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(stateKey), data)
	})
	if err != nil {
		s.logger.Error("durable write failed", "tier", "badger", "error", err)
	}
	if s.opts.StatePath != "" {
		if err := fileutil.WriteAtomic(s.opts.StatePath, data); err != nil {
			s.logger.Error("durable write failed", "tier", "file", "error", err)
		}
	}
}

// Flush blocks until every queued snapshot has reached the durable tiers.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.pending != nil || s.writing {
		s.cond.Wait()
	}
}

// Load reads the registry back, trying tiers from fastest to slowest:
// cache, badger, state file. A missing registry is an empty one, not an
// error; a version mismatch is an error at every tier.
func (s *Store) Load() (*RegistrySnapshot, error) {
	if s.cache != nil {
		if data, ok := s.cache.Get(stateKey); ok {
			if snap, err := decodeSnapshot(data); err == nil {
				return snap, nil
			}
			s.logger.Warn("fast tier held an undecodable snapshot, falling through")
		}
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(stateKey))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case err == nil:
		return decodeSnapshot(data)
	case errors.Is(err, badger.ErrKeyNotFound):
	default:
		s.logger.Warn("badger read failed, trying state file", "error", err)
	}

	if s.opts.StatePath != "" {
		data, err := os.ReadFile(s.opts.StatePath)
		switch {
		case err == nil:
			return decodeSnapshot(data)
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read state file %s: %w", s.opts.StatePath, err)
		}
	}

	return &RegistrySnapshot{Version: SnapshotVersion}, nil
}

func decodeSnapshot(data []byte) (*RegistrySnapshot, error) {
	var snap RegistrySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snap.Version, SnapshotVersion)
	}
	return &snap, nil
}

// AppendPrizeRecord writes a prize audit entry. Keys are ordered by
// timestamp so listing returns records chronologically.
func (s *Store) AppendPrizeRecord(rec PrizeRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal prize record: %w", err)
	}
	key := fmt.Sprintf("%s%020d:%s", prizePrefix, rec.Timestamp.UnixNano(), rec.GameID)
	if s.cache != nil {
		s.cache.SetWithTTL(key, data, int64(len(data)), s.opts.CacheTTL)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// PrizeRecords returns every prize audit entry in chronological order.
func (s *Store) PrizeRecords() ([]PrizeRecord, error) {
	var out []PrizeRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prizePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec PrizeRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("decode prize record %s: %w", it.Item().Key(), err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close flushes queued writes and shuts both tiers down.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	for s.pending != nil || s.writing {
		s.cond.Wait()
	}
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Close()
	}
	return s.db.Close()
}

// StatePathDefault joins the conventional state file name onto a data dir.
func StatePathDefault(dataDir string) string {
	return filepath.Join(dataDir, "registry.json")
}
