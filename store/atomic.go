package store

import (
	"strings"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/txpipe/balius/balerr"
)

// AtomicUpdate stages the set of per-worker cursor advances a single WAL
// record's dispatch produces. Nothing lands in the cursor table until
// Commit, and Commit either lands every staged cursor or none of them —
// pogreb has no native multi-key transaction, so atomicity is faked with
// a single staged record (see Commit).
type AtomicUpdate struct {
	store   *Store
	logSeq  uint64
	cursors map[string]uint64
}

// Handle scopes an AtomicUpdate to a single worker. The chain engine
// takes one per worker and calls UpdateCursor after that worker's
// apply_chain returns without error; a worker error aborts the batch
// before Commit, so nothing is staged for it.
type Handle struct {
	update   *AtomicUpdate
	workerID string
}

// ForWorker returns the Handle the chain engine uses to stage a single
// worker's cursor advance.
func (u *AtomicUpdate) ForWorker(workerID string) Handle {
	return Handle{update: u, workerID: workerID}
}

// UpdateCursor stages workerID's cursor advance to this update's log
// sequence. Idempotent: calling it more than once for the same handle
// just re-stages the same value. AtomicUpdate is only ever touched by
// the single goroutine running a chain engine dispatch, so this needs no
// locking of its own.
func (h Handle) UpdateCursor() {
	h.update.cursors[h.workerID] = h.update.logSeq
}

// txLogRecord is the single staged record Commit writes before touching
// any individual cursor key. If the process crashes after this write but
// before Commit finishes, Open's replayPendingTxLogs finds it and
// finishes the job.
type txLogRecord struct {
	LogSeq  uint64
	Workers []string
	Cursors []uint64
}

// Commit lands every staged cursor advance, or none. It stages a single
// combined record under one key (one pogreb Put is atomic), applies the
// individual cursor writes, then deletes the staged record. A crash
// between those steps is recovered by replaying the staged record on the
// next Open.
func (u *AtomicUpdate) Commit() error {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commitLocked(u.logSeq, u.cursors)
}

func (s *Store) commitLocked(logSeq uint64, cursors map[string]uint64) error {
	rec := txLogRecord{LogSeq: logSeq}
	for worker, seq := range cursors {
		rec.Workers = append(rec.Workers, worker)
		rec.Cursors = append(rec.Cursors, seq)
	}
	if len(rec.Workers) == 0 {
		return nil
	}

	data, err := rlp.EncodeToBytes(&rec)
	if err != nil {
		return balerr.Store(err)
	}
	if err := s.db.Put([]byte(txLogKey(logSeq)), data); err != nil {
		return balerr.Store(err)
	}
	if err := s.db.Sync(); err != nil {
		return balerr.Store(err)
	}
	if err := s.applyTxLog(rec); err != nil {
		return err
	}
	if err := s.db.Delete([]byte(txLogKey(logSeq))); err != nil {
		return balerr.Store(err)
	}
	return s.db.Sync()
}

func (s *Store) applyTxLog(rec txLogRecord) error {
	for i, worker := range rec.Workers {
		if err := s.putUint64(cursorKey(worker), rec.Cursors[i]); err != nil {
			return balerr.Store(err)
		}
	}
	return nil
}

// replayPendingTxLogs finishes any commit interrupted by a crash between
// staging a txlog record and deleting it. Called once from Open, before
// the store is handed back to callers.
func (s *Store) replayPendingTxLogs() error {
	keys, err := s.db.Keys()
	if err != nil {
		return balerr.Store(err)
	}
	var pending [][]byte
	for _, key := range keys {
		if strings.HasPrefix(string(key), keyPrefixTxLog) {
			pending = append(pending, key)
		}
	}

	for _, key := range pending {
		data, err := s.db.Get(key)
		if err != nil {
			return balerr.Store(err)
		}
		if data == nil {
			continue
		}
		var rec txLogRecord
		if err := rlp.DecodeBytes(data, &rec); err != nil {
			return balerr.Store(err)
		}
		if err := s.applyTxLog(rec); err != nil {
			return err
		}
		if err := s.db.Delete(key); err != nil {
			return balerr.Store(err)
		}
	}
	return nil
}
