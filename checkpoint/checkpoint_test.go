package checkpoint

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	bolt "go.etcd.io/bbolt"
)

func tempDB(tst *testing.T) *bolt.DB {
	dir, err := os.MkdirTemp("", "checkpoint")
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	tst.Cleanup(func() { os.RemoveAll(dir) })
	db, err := bolt.Open(filepath.Join(dir, "test.db"), 0644, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	tst.Cleanup(func() { db.Close() })
	return db
}

func TestSaveLoad(tst *testing.T) {
	db := tempDB(tst)
	io := NewIO(db, []byte("run"), 0)

	// no checkpoint yet
	d, err := io.Load()
	if err != nil {
		tst.Error("Error: ", err)
	}
	if d != nil {
		tst.Error("Unexpected checkpoint:", d)
	}

	data := &Data{
		Done:       2,
		Estimates:  [][]float64{{4, 1, 0.02}, {3.9, 1.1, 0.01}},
		Deviances:  []float64{3.2, 4.1},
		Thresholds: [][]float64{{4}, {3.9}},
		Samples:    [][]int{{52, 56}, {50, 58}},
		Rpd:        []float64{0.1, -0.2},
		Rkd:        []float64{0.3, 0.05},
	}
	if err := io.Save(data); err != nil {
		tst.Fatal("Error: ", err)
	}

	d, err = io.Load()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if !reflect.DeepEqual(d, data) {
		tst.Errorf("Loaded checkpoint differs: %+v vs %+v", d, data)
	}

	// a finished run round-trips too
	data.Final = true
	if err := io.Save(data); err != nil {
		tst.Fatal("Error: ", err)
	}
	d, err = io.Load()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if d == nil || !d.Final {
		tst.Error("Final flag lost")
	}
}

func TestLoadEmptyProgress(tst *testing.T) {
	db := tempDB(tst)
	io := NewIO(db, []byte("run"), 0)
	if err := io.Save(&Data{}); err != nil {
		tst.Fatal("Error: ", err)
	}
	// a checkpoint without finished samples is not worth resuming
	d, err := io.Load()
	if err != nil {
		tst.Error("Error: ", err)
	}
	if d != nil {
		tst.Error("Empty checkpoint should load as nil")
	}
}

func TestOld(tst *testing.T) {
	io := NewIO(nil, []byte("run"), 3600)
	if !io.Old() {
		tst.Error("Fresh store with no saves should be old")
	}
	io.SetNow()
	if io.Old() {
		tst.Error("Store should not be old right after SetNow")
	}
}

func TestNilDB(tst *testing.T) {
	// checkpointing is optional, a nil database is a no-op
	io := NewIO(nil, []byte("run"), 0)
	if err := io.Save(&Data{Done: 1}); err != nil {
		tst.Error("Error: ", err)
	}
	d, err := io.Load()
	if err != nil || d != nil {
		tst.Error("Nil database should load nothing:", d, err)
	}
}
