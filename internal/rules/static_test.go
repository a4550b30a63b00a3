package rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	table := Default()
	if len(table) != 16 {
		t.Fatalf("len(Default()) = %d, want 16", len(table))
	}
	if table["A♠"] != "♥" || table["4♣"] != "♣" {
		t.Errorf("unexpected default entries: A♠=%s 4♣=%s", table["A♠"], table["4♣"])
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantLen int
		check   map[string]string
		wantErr bool
	}{
		{
			name:    "overlay",
			yaml:    "static_rules:\n  - trigger: \"K♦️\"\n    predict: \"❤️\"\n",
			wantLen: 17,
			check:   map[string]string{"K♦": "♥", "A♠": "♥"},
		},
		{
			name:    "replace",
			yaml:    "replace: true\nstatic_rules:\n  - trigger: \"a♠\"\n    predict: \"♣\"\n",
			wantLen: 1,
			check:   map[string]string{"A♠": "♣"},
		},
		{name: "bad trigger", yaml: "static_rules:\n  - trigger: \"ZZ\"\n    predict: \"♣\"\n", wantErr: true},
		{name: "bad suit", yaml: "static_rules:\n  - trigger: \"A♠\"\n    predict: \"x\"\n", wantErr: true},
		{name: "bad yaml", yaml: "static_rules: [", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
			for k, v := range tt.check {
				if got[k] != v {
					t.Errorf("table[%s] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	table := Table{"K♦": "♥", "10♠": "♣"}

	data, err := Marshal(table)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(got) != 2 || got["K♦"] != "♥" || got["10♠"] != "♣" {
		t.Errorf("round trip = %v, want %v", got, table)
	}
}

func TestLoadFile_EmptyPath(t *testing.T) {
	table, err := LoadFile("")
	if err != nil || len(table) != 16 {
		t.Errorf("LoadFile(\"\") = %d entries, %v", len(table), err)
	}
}

func TestWatch_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "static.yaml")
	if err := os.WriteFile(path, []byte("static_rules: []\n"), 0644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan Table, 4)
	w, err := Watch(path, func(tb Table) { changes <- tb })
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	content := "replace: true\nstatic_rules:\n  - trigger: \"Q♠\"\n    predict: \"♦\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case tb := <-changes:
			if tb["Q♠"] == "♦" {
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
