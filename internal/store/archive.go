// Package store keeps a local history of check reports in a bbolt file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

var bucketReports = []byte("reports")

// ErrNotFound is returned by Get for an unknown report ID.
var ErrNotFound = errors.New("report not found")

// keyTimeFormat sorts lexically in time order.
const keyTimeFormat = "2006-01-02T15:04:05.000000000Z"

// Archive persists reports keyed by generation time and report ID.
//
// The bbolt file is opened for each operation and closed afterwards, so a
// long-running daemon does not hold the file lock between cycles and other
// processes can read or append in the meantime.
type Archive struct {
	path    string
	timeout time.Duration
}

// lockTimeout bounds the wait for another process's file lock.
const lockTimeout = time.Second

// Open creates the archive at path if needed and checks that it is usable.
func Open(path string) (*Archive, error) {
	a := &Archive{path: path, timeout: lockTimeout}
	err := a.update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketReports)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("init history database: %w", err)
	}
	return a, nil
}

// Close releases the archive. The file is not held open between
// operations, so Close only exists to satisfy callers' lifecycles.
func (a *Archive) Close() error {
	return nil
}

func (a *Archive) update(fn func(tx *bbolt.Tx) error) error {
	db, err := bbolt.Open(a.path, 0o600, &bbolt.Options{Timeout: a.timeout})
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()
	return db.Update(fn)
}

func (a *Archive) view(fn func(b *bbolt.Bucket) error) error {
	db, err := bbolt.Open(a.path, 0o600, &bbolt.Options{Timeout: a.timeout, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()
	return db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReports)
		if b == nil {
			return nil
		}
		return fn(b)
	})
}

// Save stores report. Saving the same report twice overwrites it.
func (a *Archive) Save(report *models.Report) error {
	value, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", report.ReportID, err)
	}
	return a.update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketReports)
		if err != nil {
			return err
		}
		return b.Put(reportKey(report), value)
	})
}

// List returns up to limit reports, newest first. limit <= 0 returns all.
func (a *Archive) List(limit int) ([]*models.Report, error) {
	var out []*models.Report
	err := a.view(func(b *bbolt.Bucket) error {
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var r models.Report
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode report %s: %w", k, err)
			}
			out = append(out, &r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the report with the given ID.
func (a *Archive) Get(reportID string) (*models.Report, error) {
	var found *models.Report
	err := a.view(func(b *bbolt.Bucket) error {
		c := b.Cursor()
		suffix := "/" + reportID
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if len(k) < len(suffix) || string(k[len(k)-len(suffix):]) != suffix {
				continue
			}
			var r models.Report
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode report %s: %w", k, err)
			}
			found = &r
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// Prune deletes all but the newest keep reports and returns how many were
// removed.
func (a *Archive) Prune(keep int) (int, error) {
	removed := 0
	err := a.update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketReports)
		if err != nil {
			return err
		}
		var stale [][]byte
		seen := 0
		c := b.Cursor()
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			seen++
			if seen > keep {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

func reportKey(r *models.Report) []byte {
	return []byte(r.GeneratedAt.UTC().Format(keyTimeFormat) + "/" + r.ReportID)
}
