package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/boltdb/bolt"
)

type store interface {
	update(func(transaction) error) error
	view(func(transaction) error) error
}

type transaction interface {
	get([]byte) []byte
	put([]byte, []byte) error
}

const bucketName = "checkers"

func must[T any](obj T, err error) T {
	if err != nil {
		panic(err)
	}
	return obj
}

// openStore opens the bolt database at DB_PATH, or an in-memory store when
// CHECKERS_TESTING=1.
func openStore() store {
	if os.Getenv("CHECKERS_TESTING") == "1" {
		log.Println("using in-memory database")
		return &memStore{}
	}
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "./data/checkers.db"
	}
	log.Printf("opening database at %v", path)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		log.Fatalf("failed to create the database directory: %v", err)
	}
	boltObj := must(bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second}))

	err := boltObj.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Fatalf("failed to initialize the database: %v", err)
	}
	log.Println("database initialized successfully")
	return storeFromBolt(boltObj)
}

// BoltDB implementation

var _ store = boltStore{}
var _ transaction = boltTransaction{}

type boltStore struct {
	db *bolt.DB
}

type boltTransaction struct {
	tx *bolt.Tx
}

func storeFromBolt(db *bolt.DB) store {
	return boltStore{db}
}

func (bs boltStore) update(fn func(transaction) error) error {
	return bs.db.Update(func(tx *bolt.Tx) error {
		return fn(boltTransaction{tx})
	})
}

func (bs boltStore) view(fn func(transaction) error) error {
	return bs.db.View(func(tx *bolt.Tx) error {
		return fn(boltTransaction{tx})
	})
}

func (bt boltTransaction) bucket() *bolt.Bucket {
	return bt.tx.Bucket([]byte(bucketName))
}

func (bt boltTransaction) get(key []byte) []byte {
	return bt.bucket().Get(key)
}

func (bt boltTransaction) put(key []byte, val []byte) error {
	return bt.bucket().Put(key, val)
}

// In-memory implementation

type memStore struct {
	ks [][]byte
	vs [][]byte
}

var _ store = &memStore{}
var _ transaction = &memStore{}

func (ms *memStore) get(key []byte) []byte {
	for i, k := range ms.ks {
		if slices.Equal(k, key) {
			return ms.vs[i]
		}
	}
	return nil
}

func (ms *memStore) put(key []byte, val []byte) error {
	idx := slices.IndexFunc(ms.ks, func(b []byte) bool {
		return slices.Equal(b, key)
	})
	if idx == -1 {
		ms.ks = append(ms.ks, key)
		ms.vs = append(ms.vs, val)
	} else {
		ms.vs[idx] = val
	}
	return nil
}

func (ms *memStore) update(fn func(transaction) error) error {
	return fn(ms)
}

func (ms *memStore) view(fn func(transaction) error) error {
	return fn(ms)
}

// Values

func loadValue(tx transaction, key string, v any) error {
	bytes := tx.get([]byte(key))
	if bytes == nil {
		return nil
	}
	return json.Unmarshal(bytes, v)
}

func storeValue(tx transaction, key string, v any) error {
	bytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.put([]byte(key), bytes)
}

const webhooksKey = "webhooks"

func addWebhook(db store, url string) ([]string, error) {
	var urls []string
	err := db.update(func(tx transaction) error {
		if err := loadValue(tx, webhooksKey, &urls); err != nil {
			return err
		}
		if slices.Contains(urls, url) {
			return nil
		}
		urls = append(urls, url)
		return storeValue(tx, webhooksKey, urls)
	})
	if err != nil {
		return nil, err
	}
	return urls, nil
}

func deleteWebhook(db store, url string) ([]string, error) {
	var urls []string
	err := db.update(func(tx transaction) error {
		if err := loadValue(tx, webhooksKey, &urls); err != nil {
			return err
		}
		idx := slices.Index(urls, url)
		if idx == -1 {
			return nil
		}
		urls = slices.Delete(urls, idx, idx+1)
		return storeValue(tx, webhooksKey, urls)
	})
	if err != nil {
		return nil, err
	}
	return urls, nil
}

func getWebhooks(db store) ([]string, error) {
	var urls []string
	err := db.view(func(tx transaction) error {
		return loadValue(tx, webhooksKey, &urls)
	})
	if err != nil {
		return nil, err
	}
	return urls, nil
}
