// Package store implements the write-ahead log and per-worker cursor
// table spec.md §4.B describes: a durable record of dispatched chain
// points, and the atomic multi-worker cursor commit the chain engine
// needs to stay crash-consistent with the chain it has ingested.
//
// Grounded on original_source/balius-runtime/src/store.rs (AtomicUpdate,
// the CURSORS table) for shape, and on core/ledger.go's
// WAL-replay-on-open pattern for mechanism. store.rs's own write_ahead is
// a literal stub ("// TODO: write event to WAL table"); spec.md §4.B is
// authoritative for the semantics implemented here.
package store

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/txpipe/balius/abi"
	"github.com/txpipe/balius/balerr"
	"github.com/txpipe/balius/chain"
)

// ChainPoint identifies a position in the chain by slot and block hash.
// A zero-value ChainPoint (Slot 0, nil Hash) denotes chain origin.
type ChainPoint struct {
	Slot uint64
	Hash []byte
}

// walRecord is the RLP-encoded shape of a single write_ahead entry:
// { next_block, undo_blocks } keyed by LogSeq (spec.md §3), plus enough
// of next_block to let handle_reset rebuild undo events without
// re-fetching from the driver.
type walRecord struct {
	LogSeq     uint64
	BlockRef   abi.BlockRef
	RawBlock   []byte
	UndoBlocks [][]byte
}

// Store owns the pogreb-backed WAL and cursor table. Safe for concurrent
// use; the exclusive lock taken during a commit matches the chain
// engine's own per-chain-point critical section (spec.md §4.E).
type Store struct {
	mu    sync.Mutex
	db    backend
	codec BlockCodec
	seq   uint64
}

const (
	keyPrefixWAL    = "wal:"
	keyPrefixCursor = "cursor:"
	keyPrefixTxLog  = "txlog:"
	keyMaxLogSeq    = "meta:max_log_seq"
)

// Open opens (creating if absent) the pogreb file at path and replays any
// interrupted commit left behind by a crash between staging a txlog
// record and finishing the individual cursor writes it describes. codec
// is used to encode blocks into WAL entries and decode them back out for
// handle_reset; it is the only block codec involved, since the chain
// engine writes blocks through this store.
func Open(path string, codec BlockCodec) (*Store, error) {
	db, err := openPogrebBackend(path)
	if err != nil {
		return nil, balerr.Store(err)
	}
	s := &Store{db: db, codec: codec}

	if max, ok, err := s.getUint64(keyMaxLogSeq); err != nil {
		db.Close()
		return nil, balerr.Store(err)
	} else if ok {
		s.seq = max
	}

	if err := s.replayPendingTxLogs(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// WriteAhead allocates the next log sequence number and durably records
// the { next_block, undo_blocks } WAL entry spec.md §3/§4.B describes,
// before any worker is invoked for that batch. It does not touch any
// worker cursor; that happens in the subsequent AtomicUpdate the chain
// engine builds from this sequence (spec.md §4.B, §4.E step 1).
func (s *Store) WriteAhead(undos []chain.BlockView, next chain.BlockView) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rawUndos := make([][]byte, len(undos))
	for i, u := range undos {
		rawUndos[i] = s.codec.Encode(u)
	}

	logSeq := s.seq + 1
	rec := walRecord{
		LogSeq:     logSeq,
		BlockRef:   next.BlockRef(),
		RawBlock:   s.codec.Encode(next),
		UndoBlocks: rawUndos,
	}
	data, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return 0, balerr.Store(err)
	}
	if err := s.db.Put([]byte(walKey(logSeq)), data); err != nil {
		return 0, balerr.Store(err)
	}
	if err := s.putUint64(keyMaxLogSeq, logSeq); err != nil {
		return 0, balerr.Store(err)
	}
	// The WAL entry must be durable before any worker sees the batch.
	if err := s.db.Sync(); err != nil {
		return 0, balerr.Store(err)
	}
	s.seq = logSeq
	return logSeq, nil
}

// GetWorkerCursor returns the log sequence a worker last committed, or 0
// if the worker has never committed one (meaning it should receive every
// WAL record from chain origin).
func (s *Store) GetWorkerCursor(workerID string) (uint64, error) {
	v, ok, err := s.getUint64(cursorKey(workerID))
	if err != nil {
		return 0, balerr.Store(err)
	}
	if !ok {
		return 0, nil
	}
	return v, nil
}

// FindChainPoint returns the ChainPoint recorded for logSeq, used by the
// chain engine's ChainCursor to turn the minimum worker cursor into a
// chain position (spec.md §4.B).
func (s *Store) FindChainPoint(logSeq uint64) (ChainPoint, error) {
	rec, err := s.readWAL(logSeq)
	if err != nil {
		return ChainPoint{}, err
	}
	return ChainPoint{Slot: rec.BlockRef.Slot, Hash: rec.BlockRef.Hash}, nil
}

// HandleReset walks the WAL backward from the store's latest record,
// decoding every record whose slot is greater than point.Slot, in
// descending log-seq order — the blocks a driver hands back to
// handle_chain as its undos argument to roll back to point (spec.md
// §4.B, P9).
func (s *Store) HandleReset(point ChainPoint) ([]chain.BlockView, error) {
	s.mu.Lock()
	latest := s.seq
	s.mu.Unlock()

	var blocks []chain.BlockView
	for seq := latest; seq > 0; seq-- {
		rec, err := s.readWAL(seq)
		if err != nil {
			return nil, err
		}
		if rec.BlockRef.Slot <= point.Slot {
			break
		}
		block, err := s.codec.Decode(rec.RawBlock, rec.BlockRef)
		if err != nil {
			return nil, balerr.Store(err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// Begin starts an AtomicUpdate against log sequence logSeq: the batch of
// per-worker cursor advances that must all land, or none, when the chain
// engine finishes dispatching block logSeq to every subscribed worker.
func (s *Store) Begin(logSeq uint64) *AtomicUpdate {
	return &AtomicUpdate{store: s, logSeq: logSeq, cursors: make(map[string]uint64)}
}

// IntoEphemeral copies the store's current contents into a purely
// in-memory Store sharing the same codec. Writes against the copy never
// reach the durable file, making it safe for debug and test
// reproductions of a live store's state (spec.md §4.B).
func (s *Store) IntoEphemeral() (*Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := newMemBackend()
	keys, err := s.db.Keys()
	if err != nil {
		return nil, balerr.Store(err)
	}
	for _, k := range keys {
		v, err := s.db.Get(k)
		if err != nil {
			return nil, balerr.Store(err)
		}
		if err := mem.Put(k, v); err != nil {
			return nil, balerr.Store(err)
		}
	}
	return &Store{db: mem, codec: s.codec, seq: s.seq}, nil
}

func walKey(seq uint64) string    { return fmt.Sprintf("%s%020d", keyPrefixWAL, seq) }
func cursorKey(worker string) string { return keyPrefixCursor + worker }
func txLogKey(seq uint64) string  { return fmt.Sprintf("%s%020d", keyPrefixTxLog, seq) }

func (s *Store) readWAL(seq uint64) (walRecord, error) {
	data, err := s.db.Get([]byte(walKey(seq)))
	if err != nil {
		return walRecord{}, balerr.Store(err)
	}
	if data == nil {
		return walRecord{}, balerr.Store(fmt.Errorf("no WAL record at log_seq %d", seq))
	}
	var rec walRecord
	if err := rlp.DecodeBytes(data, &rec); err != nil {
		return walRecord{}, balerr.Store(err)
	}
	return rec, nil
}

func (s *Store) getUint64(key string) (uint64, bool, error) {
	data, err := s.db.Get([]byte(key))
	if err != nil {
		return 0, false, err
	}
	if data == nil {
		return 0, false, nil
	}
	return binary.BigEndian.Uint64(data), true, nil
}

func (s *Store) putUint64(key string, v uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return s.db.Put([]byte(key), buf)
}
