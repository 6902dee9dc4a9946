package ingredients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/HendryAvila/plantbot/internal/blob"
)

// DocumentKey is the blob key of the ingredient table.
const DocumentKey = "plantbot_ingredients.json"

// Store defines the persistence interface for the ingredient table.
type Store interface {
	// Load returns the full table, seeding the defaults when none exists.
	Load(ctx context.Context) (Table, error)
	// Save upserts one ingredient.
	Save(ctx context.Context, name string, p Property) error
}

// DocStore keeps the whole table as one JSON document in a blob store.
// Save is a read-modify-write of the document, serialized by mu.
type DocStore struct {
	blobs blob.Store
	mu    sync.Mutex
}

// NewDocStore creates an ingredient store over the given blob backend.
func NewDocStore(blobs blob.Store) *DocStore {
	return &DocStore{blobs: blobs}
}

// Load reads the table. On first use the defaults are written and returned.
func (s *DocStore) Load(ctx context.Context) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *DocStore) load(ctx context.Context) (Table, error) {
	data, err := s.blobs.Read(ctx, DocumentKey)
	if errors.Is(err, blob.ErrNotFound) {
		defaults := Defaults()
		if err := s.write(ctx, defaults); err != nil {
			return nil, fmt.Errorf("seeding default ingredients: %w", err)
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ingredients: %w", err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", DocumentKey, err)
	}
	if table == nil {
		table = Table{}
	}
	return table, nil
}

// Save upserts name. The name is normalized; properties are validated.
func (s *DocStore) Save(ctx context.Context, name string, p Property) error {
	key := Normalize(name)
	if key == "" {
		return fmt.Errorf("ingredient name is required")
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("ingredient %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return err
	}
	current[key] = p
	return s.write(ctx, current)
}

func (s *DocStore) write(ctx context.Context, t Table) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling ingredients: %w", err)
	}
	if err := s.blobs.Write(ctx, DocumentKey, data); err != nil {
		return fmt.Errorf("writing ingredients: %w", err)
	}
	return nil
}
