package canvass

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Record kinds.
const (
	RecordObject = "object"
	RecordList   = "list"
	RecordValue  = "value"
)

// Record is one store entry as written to a snapshot.
type Record struct {
	Key    string   `json:"key" msgpack:"key"`
	Kind   string   `json:"kind" msgpack:"kind"`
	Value  any      `json:"value,omitempty" msgpack:"value,omitempty"`
	Title  string   `json:"title,omitempty" msgpack:"title,omitempty"`
	SortBy string   `json:"sortBy,omitempty" msgpack:"sortBy,omitempty"`
	Items  []Entity `json:"items,omitempty" msgpack:"items,omitempty"`
}

// Records lists the entries whose key has the given prefix, sorted by
// key.
func (s *Store) Records(prefix string) []Record {
	keys := s.Keys(prefix)
	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		switch v := s.entries[k].(type) {
		case *ResourceList:
			out = append(out, Record{Key: k, Kind: RecordList, Title: v.Title, SortBy: v.SortBy, Items: v.Items})
		case Entity, map[string]any:
			out = append(out, Record{Key: k, Kind: RecordObject, Value: v})
		default:
			out = append(out, Record{Key: k, Kind: RecordValue, Value: v})
		}
	}
	return out
}

// Restore installs a record, replacing any entry under its key. List
// records are restored into an existing list when there is one, else
// into a new list built with opts.
func (s *Store) Restore(rec Record, opts ListOptions) error {
	if rec.Key == "" {
		return fmt.Errorf("restore: key: %w", ErrMissingArgument)
	}
	switch rec.Kind {
	case RecordList:
		l, ok := s.entries[rec.Key].(*ResourceList)
		if !ok {
			if rec.Title != "" {
				opts.Title = rec.Title
			}
			l = NewResourceList(rec.Key, opts)
			s.entries[rec.Key] = l
		}
		if rec.SortBy != "" {
			l.SortBy = rec.SortBy
		}
		l.SetItems(rec.Items, ApplyFilter)
	case RecordObject:
		m, ok := asMap(rec.Value)
		if !ok {
			return fmt.Errorf("restore %q: object record holds %T: %w", rec.Key, rec.Value, ErrTypeMismatch)
		}
		s.entries[rec.Key] = Entity(m)
	case RecordValue:
		s.entries[rec.Key] = rec.Value
	default:
		return fmt.Errorf("restore %q: record kind %q: %w", rec.Key, rec.Kind, ErrTypeMismatch)
	}
	s.logger.Debugw("store restore", "key", rec.Key, "kind", rec.Kind)
	return nil
}

// WriteRecordsJSONL writes records as JSON lines.
func WriteRecordsJSONL(w io.Writer, recs []Record) error {
	enc := json.NewEncoder(w)
	for i := range recs {
		if err := enc.Encode(&recs[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReadRecordsJSONL reads records from a JSON lines stream.
func ReadRecordsJSONL(r io.Reader, fn func(Record) error) error {
	dec := json.NewDecoder(bufio.NewReader(r))
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// WriteSnapshot writes records in MessagePack format as an array stream.
func WriteSnapshot(w io.Writer, recs []Record) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.EncodeArrayLen(len(recs)); err != nil {
		return err
	}
	for i := range recs {
		if err := enc.Encode(&recs[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReadSnapshot reads records written by WriteSnapshot.
func ReadSnapshot(r io.Reader, fn func(Record) error) error {
	dec := msgpack.NewDecoder(r)
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}
