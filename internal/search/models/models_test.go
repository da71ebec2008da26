package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchKeyHelpers(t *testing.T) {
	tests := []struct {
		name      string
		key       SearchKey
		wildcard  bool
		extension string
		mainLabel string
		term      string
	}{
		{
			name:      "literal domain",
			key:       "netflix.com",
			mainLabel: "netflix",
			term:      "netflix.com",
		},
		{
			name:      "government subdomain",
			key:       "sisregiii.saude.gov.br",
			mainLabel: "sisregiii",
			term:      "sisregiii.saude.gov.br",
		},
		{
			name:      "wildcard extension",
			key:       "*.gov",
			wildcard:  true,
			extension: "gov",
			mainLabel: "*",
			term:      "gov",
		},
		{
			name:      "no dot",
			key:       "localhost",
			mainLabel: "localhost",
			term:      "localhost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wildcard, tt.key.IsWildcard())
			assert.Equal(t, tt.extension, tt.key.Extension())
			assert.Equal(t, tt.mainLabel, tt.key.MainLabel())
			assert.Equal(t, tt.term, tt.key.ProviderTerm())
		})
	}
}

func TestResultSet(t *testing.T) {
	t.Run("dedupes by exact string and keeps insertion order", func(t *testing.T) {
		s := NewResultSet("b:2", "a:1", "b:2", "A:1")
		assert.Equal(t, []string{"b:2", "a:1", "A:1"}, s.Records())
		assert.Equal(t, 3, s.Len())
	})

	t.Run("merge reports new records only", func(t *testing.T) {
		s := NewResultSet("a:1")
		added := s.Merge(NewResultSet("a:1", "b:2", "c:3"))
		assert.Equal(t, 2, added)
		assert.Equal(t, []string{"a:1", "b:2", "c:3"}, s.Records())
	})

	t.Run("difference keeps receiver order", func(t *testing.T) {
		s := NewResultSet("c:3", "a:1", "b:2")
		diff := s.Difference(NewResultSet("a:1"))
		assert.Equal(t, []string{"c:3", "b:2"}, diff.Records())
	})

	t.Run("nil set reads as empty", func(t *testing.T) {
		var s *ResultSet
		assert.Equal(t, 0, s.Len())
		assert.True(t, s.IsEmpty())
		assert.False(t, s.Contains("a:1"))
		assert.Empty(t, s.Records())
		assert.Equal(t, 0, NewResultSet().Merge(s))
	})

	t.Run("records returns a copy", func(t *testing.T) {
		s := NewResultSet("a:1")
		records := s.Records()
		records[0] = "mutated"
		assert.True(t, s.Contains("a:1"))
	})

	t.Run("json uses a plain array", func(t *testing.T) {
		raw, err := json.Marshal(NewResultSet("a:1", "b:2"))
		require.NoError(t, err)
		assert.JSONEq(t, `["a:1","b:2"]`, string(raw))

		var decoded ResultSet
		require.NoError(t, json.Unmarshal([]byte(`["x:1","x:1","y:2"]`), &decoded))
		assert.Equal(t, []string{"x:1", "y:2"}, decoded.Records())
	})
}
