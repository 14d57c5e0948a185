// Package checkpoint persists the state of long-running resampling
// computations so an interrupted run can be resumed.
package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// main is the bucket name for all checkpoints.
var main = []byte("main")

// Data stores the progress of a bootstrap run.
type Data struct {
	// Done is the number of finished bootstrap samples.
	Done int `json:"done"`
	// Estimates are the refitted parameter vectors so far.
	Estimates [][]float64 `json:"estimates"`
	// Deviances are the per-sample deviances.
	Deviances []float64 `json:"deviances"`
	// Thresholds are the per-sample thresholds, one row per
	// sample, one column per cut.
	Thresholds [][]float64 `json:"thresholds"`
	// Samples are the resampled correct counts.
	Samples [][]int `json:"samples"`
	// Rpd and Rkd are the per-sample residual correlations.
	Rpd []float64 `json:"rpd"`
	Rkd []float64 `json:"rkd"`
	// Final marks a completed run.
	Final bool `json:"final"`
}

// IO saves and restores checkpoints for one keyed run.
type IO struct {
	db      *bolt.DB
	key     []byte
	last    time.Time
	seconds float64
}

// NewIO creates a checkpoint store writing under the given key at
// most once per the given number of seconds.
func NewIO(db *bolt.DB, key []byte, seconds float64) *IO {
	return &IO{
		db:      db,
		key:     key,
		seconds: seconds,
	}
}

// Save stores a checkpoint.
func (s *IO) Save(data *Data) error {
	// Even if saving fails, we do not want to run this code too
	// often.
	s.SetNow()
	b, err := json.Marshal(data)
	if err != nil {
		log.Error("Error serializing checkpoint", err)
		return err
	}
	err = SaveData(s.db, s.key, b)
	if err != nil {
		log.Error("Error saving checkpoint", err)
	}
	return err
}

// Load returns the stored checkpoint, nil if there is none.
func (s *IO) Load() (*Data, error) {
	b, err := LoadData(s.db, s.key)
	if err != nil || b == nil {
		return nil, err
	}

	var data *Data
	if err = json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	if data == nil || data.Done == 0 {
		return nil, nil
	}

	if data.Final {
		log.Noticef("Found finished bootstrap checkpoint (%d samples)", data.Done)
	} else {
		log.Noticef("Found unfinished bootstrap checkpoint (%d samples)", data.Done)
	}
	return data, nil
}

// Old returns true if the last checkpoint was saved too long ago.
func (s *IO) Old() bool {
	return time.Since(s.last).Seconds() > s.seconds
}

// SetNow sets the last checkpoint time to now.
func (s *IO) SetNow() {
	s.last = time.Now()
}

// SaveData saves a value in the bolt database.
func SaveData(db *bolt.DB, key, data []byte) error {
	if db == nil {
		return nil
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(main)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// LoadData loads a value from the bolt database.
func LoadData(db *bolt.DB, key []byte) (data []byte, err error) {
	if db == nil {
		return nil, nil
	}
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(main)
		if b == nil {
			return nil
		}
		v := b.Get(key)
		if v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	return data, err
}
