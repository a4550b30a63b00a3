package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Schema identifies the persistence format.
const Schema = "suitpredict/v1"

// Envelope wraps every persisted blob with its schema, kind and version.
type Envelope struct {
	Schema  string          `json:"schema"`
	Kind    string          `json:"kind"`
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Payload json.RawMessage `json:"payload"`
}

// Encode marshals v inside an envelope.
func Encode(kind string, version int, v any, savedAt time.Time) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	data, err := json.Marshal(Envelope{
		Schema:  Schema,
		Kind:    kind,
		Version: version,
		SavedAt: savedAt.UTC(),
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", kind, err)
	}
	return data, nil
}

// Decode validates the envelope and unmarshals its payload into v.
// Any mismatch or malformed content is reported as ErrSchemaMismatch.
func Decode(data []byte, kind string, version int, v any) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("%w: decode envelope: %v", ErrSchemaMismatch, err)
	}
	if env.Schema != Schema {
		return env, fmt.Errorf("%w: schema %q, want %q", ErrSchemaMismatch, env.Schema, Schema)
	}
	if env.Kind != kind {
		return env, fmt.Errorf("%w: kind %q, want %q", ErrSchemaMismatch, env.Kind, kind)
	}
	if env.Version != version {
		return env, fmt.Errorf("%w: %s version %d, want %d", ErrSchemaMismatch, kind, env.Version, version)
	}
	if len(env.Payload) == 0 {
		return env, fmt.Errorf("%w: empty %s payload", ErrSchemaMismatch, kind)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return env, fmt.Errorf("%w: decode %s payload: %v", ErrSchemaMismatch, kind, err)
	}
	return env, nil
}

// LoadInto loads name from store and decodes it. It returns ErrNotFound
// when nothing is stored and ErrSchemaMismatch when the blob is unusable.
func LoadInto(store BlobStore, name, kind string, version int, v any) error {
	data, err := store.Load(name)
	if err != nil {
		return err
	}
	if _, err := Decode(data, kind, version, v); err != nil {
		return err
	}
	return nil
}

// LastSaved reports when name was last written. Stores that track write
// times answer directly; otherwise the envelope's saved_at is used.
func LastSaved(store BlobStore, name string) (time.Time, error) {
	if ts, ok := store.(interface {
		UpdatedAt(name string) (time.Time, error)
	}); ok {
		return ts.UpdatedAt(name)
	}
	data, err := store.Load(name)
	if err != nil {
		return time.Time{}, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return time.Time{}, fmt.Errorf("%w: decode envelope: %v", ErrSchemaMismatch, err)
	}
	return env.SavedAt, nil
}

// SaveFrom encodes v and saves it under name.
func SaveFrom(store BlobStore, name, kind string, version int, v any, savedAt time.Time) error {
	data, err := Encode(kind, version, v, savedAt)
	if err != nil {
		return err
	}
	return store.Save(name, data)
}

// IsReinit reports whether a load error means the caller should start empty.
func IsReinit(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrSchemaMismatch)
}
