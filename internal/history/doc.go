package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/HendryAvila/plantbot/internal/blob"
)

// DocumentKey is the blob key of the history document.
const DocumentKey = "plantbot_history_named.json"

// DocStore keeps history as one JSON array in a blob store. Every mutation
// reads the whole array, edits it and writes it back while holding mu.
type DocStore struct {
	blobs blob.Store
	mu    sync.Mutex
}

// NewDocStore creates a history store over the given blob backend.
func NewDocStore(blobs blob.Store) *DocStore {
	return &DocStore{blobs: blobs}
}

func (s *DocStore) Append(ctx context.Context, rec Record, name string) (string, error) {
	rec = prepare(rec, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(ctx)
	if err != nil {
		return "", err
	}
	records = append(records, rec)
	if err := s.write(ctx, records); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *DocStore) List(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *DocStore) Get(ctx context.Context, id string) (Record, error) {
	records, err := s.List(ctx)
	if err != nil {
		return Record{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %q", ErrNotFound, id)
}

func (s *DocStore) Rename(ctx context.Context, id, name string) error {
	n, err := validName(name)
	if err != nil {
		return err
	}
	return s.update(ctx, id, func(r *Record) { r.Name = n })
}

func (s *DocStore) TogglePin(ctx context.Context, id string) (bool, error) {
	var pinned bool
	err := s.update(ctx, id, func(r *Record) {
		r.Pinned = !r.Pinned
		pinned = r.Pinned
	})
	return pinned, err
}

func (s *DocStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(ctx)
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return s.write(ctx, kept)
}

// Close is a no-op; the blob store owns no connection.
func (s *DocStore) Close() error { return nil }

func (s *DocStore) update(ctx context.Context, id string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(ctx)
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].ID == id {
			fn(&records[i])
			return s.write(ctx, records)
		}
	}
	return fmt.Errorf("%w: %q", ErrNotFound, id)
}

func (s *DocStore) read(ctx context.Context) ([]Record, error) {
	data, err := s.blobs.Read(ctx, DocumentKey)
	if errors.Is(err, blob.ErrNotFound) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", DocumentKey, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (s *DocStore) write(ctx context.Context, records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}
	if err := s.blobs.Write(ctx, DocumentKey, data); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}
