// Package history records every resolution in a bbolt database, keyed by page URL, so that interrupted downloads
// can be found and retried.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/r3labs/diff/v3"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var Buckets = struct {
	Metadata []byte
	Records  []byte
}{
	Metadata: []byte("__metadata__"),
	Records:  []byte("records"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

var (
	ErrNotFound          = errors.New("no history for that URL")
	ErrUnsupportedSchema = errors.New("history database is from a newer version")
)

type Status string

const (
	StatusStarted    Status = "started"
	StatusDownloaded Status = "downloaded"
	StatusNoMatch    Status = "no-match"
	StatusNotFound   Status = "not-found"
	StatusFailed     Status = "failed"
)

// A Record is the latest known state of one page URL.
type Record struct {
	ID         string    `json:"id" diff:"-"`
	PageURL    string    `json:"page_url" diff:"-"`
	Provider   string    `json:"provider"`
	Title      string    `json:"title"`
	DirectURL  string    `json:"direct_url"`
	Segmented  bool      `json:"segmented"`
	Path       string    `json:"path"`
	OutputPath string    `json:"output_path"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Attempts   int       `json:"attempts"`
	CreatedAt  time.Time `json:"created_at" diff:"-"`
	UpdatedAt  time.Time `json:"updated_at" diff:"-"`
}

type Store interface {
	Close() error
	Get(pageURL string) (*Record, error)
	List() ([]Record, error)
	// Put creates or updates the record for Record.PageURL, filling in ID and timestamps.
	Put(record *Record) error
	Delete(pageURL string) error
}

type store struct {
	*bbolt.DB
	log *zap.SugaredLogger
	now func() time.Time
}

func New(path string, logger *zap.Logger) (_ Store, err error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) (err error) {
		// Ensure buckets exist
		var metadata *bbolt.Bucket
		if metadata, err = tx.CreateBucketIfNotExists(Buckets.Metadata); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(Buckets.Records); err != nil {
			return err
		}

		// Get the current version of the database
		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes == nil {
			version = 0
		} else if err = json.Unmarshal(versionBytes, &version); err != nil {
			return err
		}
		if version > currentVersion {
			return fmt.Errorf("%w: %d", ErrUnsupportedSchema, version)
		}

		// Set the current version of the database
		if versionBytes, err := json.Marshal(currentVersion); err != nil {
			return err
		} else if err = metadata.Put(MetadataKeys.Version, versionBytes); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &store{DB: db, log: logger.Sugar().Named("history"), now: time.Now}, nil
}

func (s *store) Get(pageURL string) (record *Record, err error) {
	err = s.View(func(tx *bbolt.Tx) error {
		record, err = get(tx, pageURL)
		return err
	})
	return record, err
}

func (s *store) List() (records []Record, err error) {
	err = s.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.Records)
		return bucket.ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			} else {
				records = append(records, record)
				return nil
			}
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records, nil
}

func (s *store) Put(record *Record) error {
	return s.Update(func(tx *bbolt.Tx) error {
		previous, err := get(tx, record.PageURL)
		if errors.Is(err, ErrNotFound) {
			record.ID = uuid.NewString()
			record.CreatedAt = s.now()
		} else if err != nil {
			return err
		} else {
			record.ID = previous.ID
			record.CreatedAt = previous.CreatedAt
			s.logChanges(previous, record)
		}
		record.UpdatedAt = s.now()

		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return tx.Bucket(Buckets.Records).Put([]byte(record.PageURL), data)
	})
}

func (s *store) Delete(pageURL string) error {
	return s.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Records).Delete([]byte(pageURL))
	})
}

func (s *store) logChanges(previous *Record, next *Record) {
	changes, err := diff.Diff(*previous, *next)
	if err != nil {
		s.log.Errorf("failed to diff history record: %v", err)
		return
	}
	for _, change := range changes {
		s.log.Debugw("record changed", "url", next.PageURL, "field", change.Path, "from", change.From, "to", change.To)
	}
}

func get(tx *bbolt.Tx, pageURL string) (*Record, error) {
	data := tx.Bucket(Buckets.Records).Get([]byte(pageURL))
	if data == nil {
		return nil, ErrNotFound
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
