package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const aggregateFile = "performance_stats.json"

// FileStore keeps one JSON document per sealed session plus a single
// aggregate file, all under one directory.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("memory dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (f *FileStore) sessionPath(id string) string {
	return filepath.Join(f.Dir, "session_"+id+".json")
}

func (f *FileStore) SaveSession(rec *SessionRecord) error {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.sessionPath(rec.ID), b, 0o644)
}

func (f *FileStore) SaveAggregate(agg *Aggregate) error {
	b, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.Dir, aggregateFile), b, 0o644)
}

// LoadSessions reads sealed session documents, oldest first, keeping at
// most max (the most recent ones win).
func (f *FileStore) LoadSessions(max int) ([]*SessionRecord, error) {
	paths, err := filepath.Glob(filepath.Join(f.Dir, "session_*.json"))
	if err != nil {
		return nil, err
	}
	var out []*SessionRecord
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		var rec SessionRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, &rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	if max > 0 && len(out) > max {
		out = out[len(out)-max:]
	}
	return out, nil
}

func (f *FileStore) LoadAggregate() (*Aggregate, error) {
	b, err := os.ReadFile(filepath.Join(f.Dir, aggregateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var agg Aggregate
	if err := json.Unmarshal(b, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}
