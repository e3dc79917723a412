// Package reflectdb keeps reflection reports between runs, so that an
// engine version is only reflected again when asked to.
package reflectdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/pageruntime"
)

const bucketReports = "reports"

// ErrNoReport is returned by Get when a version has no stored report.
var ErrNoReport = errors.New("no such report")

// Record is a stored report.
type Record struct {
	Report      pageruntime.Report `json:"report"`
	ReflectedAt time.Time          `json:"reflectedAt"`
}

// DB is a report store backed by a bbolt file.
type DB struct {
	db *bolt.DB
}

// Open opens or creates the store at path.
func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("reflectdb open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketReports))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("reflectdb open: initializing %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Put stores r, replacing any earlier report for the same version.
func (d *DB) Put(r pageruntime.Report, at time.Time) error {
	data, err := json.Marshal(Record{Report: r, ReflectedAt: at.UTC()})
	if err != nil {
		return fmt.Errorf("reflectdb put: %w", err)
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketReports)).Put([]byte(r.Version), data)
	})
}

// Get returns the stored report for v.
func (d *DB) Get(v engine.Version) (Record, error) {
	var rec Record
	err := d.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketReports)).Get([]byte(v))
		if data == nil {
			return ErrNoReport
		}
		return json.Unmarshal(data, &rec)
	})
	return rec, err
}

// Delete removes the report for v. Deleting a missing report is not an
// error.
func (d *DB) Delete(v engine.Version) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketReports)).Delete([]byte(v))
	})
}

// Versions lists the versions with a stored report, in key order.
func (d *DB) Versions() ([]engine.Version, error) {
	var out []engine.Version
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketReports)).ForEach(func(k, _ []byte) error {
			out = append(out, engine.Version(k))
			return nil
		})
	})
	return out, err
}

// Seed marks every stored version as reflected in set.
func (d *DB) Seed(set *pageruntime.ReflectedVersions) error {
	versions, err := d.Versions()
	if err != nil {
		return fmt.Errorf("reflectdb seed: %w", err)
	}
	for _, v := range versions {
		set.Mark(v)
	}
	return nil
}
