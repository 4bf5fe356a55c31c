package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	psort "github.com/sbezverk/sorttools/sort"
	bolt "go.etcd.io/bbolt"
)

var (
	// ErrAlreadyExist error returns when Add attempts to add already existing result
	ErrAlreadyExist = errors.New("already exists")
	// ErrNotFound error returns when Get or Remove address a non existing result
	ErrNotFound = errors.New("not found")
	// ErrStopped error returns when the store has been stopped
	ErrStopped = errors.New("store is stopped")
	// ErrNilResult error returns when Add is called with a nil result
	ErrNilResult = errors.New("nil result")
)

var bucketName = []byte("results")

type storeOp uint8

const (
	addItem storeOp = iota + 1
	removeItem
	getItem
	listItems
)

// Manager keeps benchmark results. All operations are serialized through a single goroutine.
type Manager interface {
	Add(*Result) error
	Remove(string) error
	Get(string) (*Result, error)
	List() ([]*Result, error)
	Stop() error
}

var _ Manager = &resultStore{}

type mgrReply struct {
	results []*Result
	err     error
}

type storeCh struct {
	op      storeOp
	key     string
	result  *Result
	replyCh chan mgrReply
}

type resultStore struct {
	db       *bolt.DB
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	closeErr error
	opCh     chan storeCh
}

func (s *resultStore) do(msg storeCh) mgrReply {
	msg.replyCh = make(chan mgrReply, 1)
	select {
	case s.opCh <- msg:
	case <-s.doneCh:
		return mgrReply{err: ErrStopped}
	}

	return <-msg.replyCh
}

func (s *resultStore) Add(r *Result) error {
	if r == nil {
		return ErrNilResult
	}
	return s.do(storeCh{op: addItem, key: r.Key(), result: r}).err
}

func (s *resultStore) Remove(key string) error {
	return s.do(storeCh{op: removeItem, key: key}).err
}

func (s *resultStore) Get(key string) (*Result, error) {
	r := s.do(storeCh{op: getItem, key: key})
	if r.err != nil {
		return nil, r.err
	}

	return r.results[0], nil
}

// List returns all results ordered by key.
func (s *resultStore) List() ([]*Result, error) {
	r := s.do(storeCh{op: listItems})
	return r.results, r.err
}

// Stop terminates the manager and closes the backing database, if any.
func (s *resultStore) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
	})

	return s.closeErr
}

func (s *resultStore) manager(items map[string]*Result) {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			if s.db != nil {
				glog.Infof("closing results database %s", s.db.Path())
				s.closeErr = s.db.Close()
			}
			return
		case msg := <-s.opCh:
			switch msg.op {
			case addItem:
				glog.V(6).Infof("Adding result: %s", msg.key)
				if _, ok := items[msg.key]; ok {
					msg.replyCh <- mgrReply{err: ErrAlreadyExist}
					continue
				}
				if err := s.persist(msg.key, msg.result); err != nil {
					msg.replyCh <- mgrReply{err: err}
					continue
				}
				items[msg.key] = msg.result
				msg.replyCh <- mgrReply{}
			case removeItem:
				glog.V(6).Infof("Removing result: %s", msg.key)
				if _, ok := items[msg.key]; !ok {
					msg.replyCh <- mgrReply{err: ErrNotFound}
					continue
				}
				if err := s.persist(msg.key, nil); err != nil {
					msg.replyCh <- mgrReply{err: err}
					continue
				}
				delete(items, msg.key)
				msg.replyCh <- mgrReply{}
			case getItem:
				glog.V(6).Infof("Getting result: %s", msg.key)
				it, ok := items[msg.key]
				if !ok {
					msg.replyCh <- mgrReply{err: ErrNotFound}
					continue
				}
				msg.replyCh <- mgrReply{results: []*Result{it}}
			case listItems:
				keys := make([]string, 0, len(items))
				for k := range items {
					keys = append(keys, k)
				}
				psort.Sort(keys, 1)
				l := make([]*Result, len(keys))
				for i, k := range keys {
					l[i] = items[k]
				}
				msg.replyCh <- mgrReply{results: l}
			}
		}
	}
}

// persist writes r under key, or deletes key when r is nil. It is a no-op for an in-memory store.
func (s *resultStore) persist(key string, r *Result) error {
	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if r == nil {
			return b.Delete([]byte(key))
		}
		v, err := r.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put([]byte(key), v)
	})
}

func load(db *bolt.DB) (map[string]*Result, error) {
	items := make(map[string]*Result)
	err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			r := &Result{}
			if err := r.UnmarshalBinary(v); err != nil {
				return fmt.Errorf("failed to decode result %s with error: %w", k, err)
			}
			items[string(k)] = r
			return nil
		})
	})

	return items, err
}

// NewStore returns a new results store. With an empty path results live in memory only,
// otherwise they are loaded from and written through to the bbolt database at path.
func NewStore(path string) (Manager, error) {
	s := &resultStore{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		opCh:   make(chan storeCh),
	}
	items := make(map[string]*Result)
	if path != "" {
		db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
		if err != nil {
			return nil, fmt.Errorf("failed to open results database %s with error: %w", path, err)
		}
		if items, err = load(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load results database %s with error: %w", path, err)
		}
		glog.Infof("loaded %d results from %s", len(items), path)
		s.db = db
	}
	// Starting store manager
	go s.manager(items)

	return s, nil
}
