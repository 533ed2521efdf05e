package widget

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	stateBucket  = []byte("widget")
	sessionIDKey = []byte("chat_session_id")
)

// StateStore persists the one field the widget keeps across restarts.
type StateStore interface {
	LoadSessionID() (string, error)
	SaveSessionID(id string) error
	ClearSessionID() error
}

// BoltState keeps widget state in a single bbolt file.
type BoltState struct {
	db *bolt.DB
}

func OpenBoltState(path string) (*BoltState, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open widget state: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init widget state: %w", err)
	}
	return &BoltState{db: db}, nil
}

func (s *BoltState) Close() error {
	return s.db.Close()
}

func (s *BoltState) LoadSessionID() (string, error) {
	var id string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(stateBucket).Get(sessionIDKey); v != nil {
			id = string(v)
		}
		return nil
	})
	return id, err
}

func (s *BoltState) SaveSessionID(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Put(sessionIDKey, []byte(id))
	})
}

func (s *BoltState) ClearSessionID() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(stateBucket).Delete(sessionIDKey)
	})
}
