package state

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type payload struct {
	Count int      `json:"count"`
	Keys  []string `json:"keys"`
}

func TestEncodeDecode(t *testing.T) {
	saved := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	data, err := Encode("engine", 2, payload{Count: 3, Keys: []string{"a"}}, saved)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var got payload
	env, err := Decode(data, "engine", 2, &got)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Count != 3 || len(got.Keys) != 1 {
		t.Errorf("payload = %+v", got)
	}
	if !env.SavedAt.Equal(saved) || env.Schema != Schema {
		t.Errorf("envelope = %+v", env)
	}
}

func TestDecode_Mismatch(t *testing.T) {
	good, _ := Encode("engine", 1, payload{}, time.Now())
	foreign, _ := json.Marshal(Envelope{Schema: "other/v9", Kind: "engine", Version: 1, Payload: []byte(`{}`)})
	legacy := []byte(`{"predictions": {"12": {"status": "pending"}}, "inter_data": []}`)

	tests := []struct {
		name    string
		data    []byte
		kind    string
		version int
	}{
		{"wrong kind", good, "reports", 1},
		{"wrong version", good, "engine", 2},
		{"wrong schema", foreign, "engine", 1},
		{"legacy document", legacy, "engine", 1},
		{"garbage", []byte("not json"), "engine", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			_, err := Decode(tt.data, tt.kind, tt.version, &p)
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Errorf("Decode() error = %v, want ErrSchemaMismatch", err)
			}
			if !IsReinit(err) {
				t.Error("IsReinit() = false for a mismatch")
			}
		})
	}
}

func TestLoadIntoSaveFrom(t *testing.T) {
	store := NewMemory()

	var p payload
	if err := LoadInto(store, "engine", "engine", 1, &p); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadInto(empty) error = %v, want ErrNotFound", err)
	}
	if err := SaveFrom(store, "engine", "engine", 1, payload{Count: 7}, time.Now()); err != nil {
		t.Fatalf("SaveFrom failed: %v", err)
	}
	if err := LoadInto(store, "engine", "engine", 1, &p); err != nil {
		t.Fatalf("LoadInto failed: %v", err)
	}
	if p.Count != 7 {
		t.Errorf("Count = %d, want 7", p.Count)
	}
}

func TestLastSaved(t *testing.T) {
	saved := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mem := NewMemory()
	if _, err := LastSaved(mem, "engine"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LastSaved(empty) error = %v, want ErrNotFound", err)
	}
	if err := SaveFrom(mem, "engine", "engine", 1, payload{}, saved); err != nil {
		t.Fatal(err)
	}
	got, err := LastSaved(mem, "engine")
	if err != nil || !got.Equal(saved) {
		t.Errorf("LastSaved(memory) = %v, %v, want %v", got, err, saved)
	}

	db := setupTestDB(t)
	if err := SaveFrom(db, "engine", "engine", 1, payload{}, saved); err != nil {
		t.Fatal(err)
	}
	got, err = LastSaved(db, "engine")
	if err != nil || got.IsZero() {
		t.Errorf("LastSaved(db) = %v, %v", got, err)
	}
}
