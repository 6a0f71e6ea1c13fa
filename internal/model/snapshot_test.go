package model

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	positive := []string{"great movie", "great cast, not bad", "loved it. great"}
	negative := []string{"terrible movie", "terrible cast", "not great"}
	m := Train(positive, negative, DefaultOptions())
	fs := m.SelectFeatures(5)

	var buf bytes.Buffer
	if err := m.Snapshot(fs).Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	s, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	loaded, loadedFS, err := s.Model()
	if err != nil {
		t.Fatalf("Model failed: %v", err)
	}

	if loaded.Len() != m.Len() {
		t.Fatalf("vocabulary size %d, want %d", loaded.Len(), m.Len())
	}
	for _, token := range m.Tokens() {
		if loaded.Pos(token) != m.Pos(token) || loaded.Neg(token) != m.Neg(token) {
			t.Errorf("counts for %q = (%d, %d), want (%d, %d)", token,
				loaded.Pos(token), loaded.Neg(token), m.Pos(token), m.Neg(token))
		}
	}
	if loaded.TotalPositive() != m.TotalPositive() || loaded.TotalNegative() != m.TotalNegative() {
		t.Errorf("totals = (%d, %d), want (%d, %d)",
			loaded.TotalPositive(), loaded.TotalNegative(), m.TotalPositive(), m.TotalNegative())
	}

	if loadedFS.Len() != fs.Len() {
		t.Fatalf("feature set size %d, want %d", loadedFS.Len(), fs.Len())
	}
	for _, token := range fs.Tokens() {
		if !loadedFS.Contains(token) {
			t.Errorf("feature %q lost in round trip", token)
		}
	}

	if loaded.Card().PositiveDocs != 3 || loaded.Card().MaxN != 3 {
		t.Errorf("card not preserved: %+v", loaded.Card())
	}
}

func TestSnapshotWithoutFeatures(t *testing.T) {
	m := fromCounts(t, map[string]int{"a": 2}, map[string]int{"b": 3})

	s := m.Snapshot(nil)
	if s.Features != nil {
		t.Errorf("Features = %q, want nil", s.Features)
	}

	_, fs, err := s.Model()
	if err != nil {
		t.Fatalf("Model failed: %v", err)
	}
	if fs != nil {
		t.Errorf("feature set = %v, want nil", fs)
	}
}

func TestSnapshotChecksumStable(t *testing.T) {
	m := fromCounts(t, map[string]int{"a": 2, "b": 5}, map[string]int{"b": 3, "c": 7})
	s := m.Snapshot(nil)

	first, err := s.Checksum()
	if err != nil {
		t.Fatalf("Checksum failed: %v", err)
	}
	second, _ := m.Snapshot(nil).Checksum()
	if first != second {
		t.Errorf("checksum not stable: %s != %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("checksum length %d, want 64", len(first))
	}
}

func TestDecodeRejectsCorruptSnapshots(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "malformed json",
			data: `{"version": 1, "positive": `,
		},
		{
			name: "totals do not match",
			data: `{"version": 1, "positive": {"a": 2}, "negative": {"b": 3}, "totals": [2, 4]}`,
		},
		{
			name: "negative count",
			data: `{"version": 1, "positive": {"a": -2}, "negative": {}, "totals": [-2, 0]}`,
		},
		{
			name: "unsupported version",
			data: `{"version": 9, "positive": {}, "negative": {}, "totals": [0, 0]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.data))
			if !errors.Is(err, ErrCorruptSnapshot) {
				t.Errorf("Decode error = %v, want ErrCorruptSnapshot", err)
			}
		})
	}
}

func TestDecodeEmptyModel(t *testing.T) {
	s, err := Decode(strings.NewReader(`{"version": 1, "positive": {}, "negative": {}, "totals": [0, 0]}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	m, _, err := s.Model()
	if err != nil {
		t.Fatalf("Model failed: %v", err)
	}
	if m.Len() != 0 || m.TotalPositive() != 0 || m.TotalNegative() != 0 {
		t.Errorf("expected empty model, got len=%d", m.Len())
	}
}

// FuzzDecode checks that any accepted snapshot satisfies the totals invariant.
func FuzzDecode(f *testing.F) {
	f.Add(`{"version": 1, "positive": {"a": 2}, "negative": {"b": 3}, "totals": [2, 3]}`)
	f.Add(`{"version": 1, "positive": {}, "negative": {}, "totals": [0, 0]}`)
	f.Add(`{"version": 1, "positive": {"a": 1}, "negative": {"a": 1}, "totals": [1, 1], "features": ["a", "z"]}`)
	f.Add(`not json`)

	f.Fuzz(func(t *testing.T, data string) {
		s, err := Decode(strings.NewReader(data))
		if err != nil {
			return
		}
		m, fs, err := s.Model()
		if err != nil {
			t.Fatalf("validated snapshot failed to build: %v", err)
		}

		var sumPos, sumNeg int
		for _, token := range m.Tokens() {
			pos, neg := m.Counts(token)
			if pos < 0 || neg < 0 {
				t.Fatalf("negative count for %q", token)
			}
			sumPos += pos
			sumNeg += neg
		}
		if sumPos != m.TotalPositive() || sumNeg != m.TotalNegative() {
			t.Fatalf("totals (%d, %d) != sums (%d, %d)", m.TotalPositive(), m.TotalNegative(), sumPos, sumNeg)
		}
		if fs.Len() > m.Len() {
			t.Fatalf("feature set larger than vocabulary")
		}
	})
}
