package main

import (
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/boltdb/bolt"
)

func testWebhookStorage(t *testing.T, db store) {
	var urls []string
	var err error

	urls, err = getWebhooks(db)
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 0 {
		t.Fatalf("initial webhooks should be empty")
	}

	urls, err = addWebhook(db, "http://google.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 1 || urls[0] != "http://google.com" {
		t.Fatal("failed to store webhook")
	}

	urls, err = addWebhook(db, "http://google.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 1 || urls[0] != "http://google.com" {
		t.Fatal("should not store duplicate")
	}

	urls, err = addWebhook(db, "http://ebay.com")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(urls, "http://google.com") || !slices.Contains(urls, "http://ebay.com") {
		t.Fatal("failed to remember many webhooks")
	}

	urls, err = deleteWebhook(db, "http://google.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 1 || urls[0] != "http://ebay.com" {
		t.Fatal("failed to delete webhook")
	}

	urls, err = deleteWebhook(db, "http://nowhere.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 1 {
		t.Fatal("deleting an unknown webhook should be a no-op")
	}

	urls, err = getWebhooks(db)
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 1 || urls[0] != "http://ebay.com" {
		t.Fatal("webhooks not persisted")
	}
}

func TestWebhookStorage(t *testing.T) {
	testWebhookStorage(t, &memStore{})
}

func TestWebhookStorageBolt(t *testing.T) {
	t.Setenv("CHECKERS_TESTING", "")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "nested", "checkers.db"))
	db := openStore()
	bs, ok := db.(boltStore)
	if !ok {
		t.Fatalf("expected a bolt store, got %T", db)
	}
	defer bs.db.Close()
	testWebhookStorage(t, db)
}

func TestBoltReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkers.db")
	t.Setenv("CHECKERS_TESTING", "")
	t.Setenv("DB_PATH", path)

	db := openStore()
	if _, err := addWebhook(db, "http://example.com/hook"); err != nil {
		t.Fatal(err)
	}
	db.(boltStore).db.Close()

	boltObj, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	defer boltObj.Close()
	urls, err := getWebhooks(storeFromBolt(boltObj))
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 1 || urls[0] != "http://example.com/hook" {
		t.Fatalf("unexpected webhooks after reopening: %v", urls)
	}
}

func TestOpenStoreTesting(t *testing.T) {
	t.Setenv("CHECKERS_TESTING", "1")
	if _, ok := openStore().(*memStore); !ok {
		t.Fatal("expected an in-memory store")
	}
}
