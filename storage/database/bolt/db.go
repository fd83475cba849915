package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// Records are kept under their insertion sequence (big endian, so cursors walk them in insertion order);
// the index buckets map ids, or other unique keys, to those sequences.
var (
	formsBucket     = []byte("forms")
	formIDs         = []byte("forms.ids")
	responsesBucket = []byte("responses")
	responseIDs     = []byte("responses.ids")
	responseOwners  = []byte("responses.owners")
	usersBucket     = []byte("users")
	userIDs         = []byte("users.ids")
	subnetsBucket   = []byte("subnets")
	centersBucket   = []byte("centers")
	familiesBucket  = []byte("families")

	buckets = [][]byte{
		formsBucket, formIDs,
		responsesBucket, responseIDs, responseOwners,
		usersBucket, userIDs,
		subnetsBucket, centersBucket, familiesBucket,
	}
)

// Open opens (or creates) the bolt file at `path` and makes sure every bucket exists.
func Open(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening bolt database")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "creating bucket %s", name)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// insert appends v to bucket `name` and returns its key.
func insert(tx *bbolt.Tx, name []byte, v interface{}) ([]byte, error) {
	b := tx.Bucket(name)
	seq, err := b.NextSequence()
	if err != nil {
		return nil, errors.Wrap(err, "generating sequence")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding record")
	}
	key := itob(seq)
	return key, b.Put(key, data)
}

// insertIndexed inserts v and indexes it under `id`.
func insertIndexed(tx *bbolt.Tx, name, index []byte, id string, v interface{}) error {
	key, err := insert(tx, name, v)
	if err != nil {
		return err
	}
	return tx.Bucket(index).Put([]byte(id), key)
}

// lookup decodes into v the record indexed under `id`. It reports false when there is none.
func lookup(tx *bbolt.Tx, name, index []byte, id string, v interface{}) (bool, error) {
	key := tx.Bucket(index).Get([]byte(id))
	if key == nil {
		return false, nil
	}
	data := tx.Bucket(name).Get(key)
	if data == nil {
		return false, nil
	}
	return true, errors.Wrap(json.Unmarshal(data, v), "decoding record")
}

// replace overwrites the record indexed under `id`. It reports false when there is none.
func replace(tx *bbolt.Tx, name, index []byte, id string, v interface{}) (bool, error) {
	key := tx.Bucket(index).Get([]byte(id))
	if key == nil {
		return false, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return false, errors.Wrap(err, "encoding record")
	}
	return true, tx.Bucket(name).Put(key, data)
}

// scan returns, in insertion order, the records of bucket `name` satisfying keep.
func scan[T any](db *bbolt.DB, name []byte, keep func(T) bool) ([]T, error) {
	rows := make([]T, 0)
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(name).ForEach(func(_, data []byte) error {
			var row T
			if err := json.Unmarshal(data, &row); err != nil {
				return errors.Wrap(err, "decoding record")
			}
			if keep(row) {
				rows = append(rows, row)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
