package models

import "encoding/json"

// ResultSet is a set of credential lines keyed by exact string equality.
// Iteration follows insertion order so exported output is reproducible.
// A nil *ResultSet behaves as an empty set for reads.
type ResultSet struct {
	records []string
	index   map[string]struct{}
}

// NewResultSet builds a set from records, dropping duplicates.
func NewResultSet(records ...string) *ResultSet {
	s := &ResultSet{
		records: make([]string, 0, len(records)),
		index:   make(map[string]struct{}, len(records)),
	}
	for _, r := range records {
		s.Add(r)
	}
	return s
}

// Add inserts record and reports whether it was new.
func (s *ResultSet) Add(record string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[record]; ok {
		return false
	}
	s.index[record] = struct{}{}
	s.records = append(s.records, record)
	return true
}

// Merge adds every record of other and returns how many were new.
func (s *ResultSet) Merge(other *ResultSet) int {
	if other == nil {
		return 0
	}
	added := 0
	for _, r := range other.records {
		if s.Add(r) {
			added++
		}
	}
	return added
}

// Difference returns the records of s that are not in other, in s's order.
func (s *ResultSet) Difference(other *ResultSet) *ResultSet {
	out := NewResultSet()
	if s == nil {
		return out
	}
	for _, r := range s.records {
		if !other.Contains(r) {
			out.Add(r)
		}
	}
	return out
}

func (s *ResultSet) Contains(record string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[record]
	return ok
}

func (s *ResultSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

func (s *ResultSet) IsEmpty() bool { return s.Len() == 0 }

// Records returns a copy of the records in insertion order.
func (s *ResultSet) Records() []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s.records))
	copy(out, s.records)
	return out
}

// Clone returns an independent copy of the set.
func (s *ResultSet) Clone() *ResultSet {
	if s == nil {
		return NewResultSet()
	}
	return NewResultSet(s.records...)
}

func (s *ResultSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Records())
}

func (s *ResultSet) UnmarshalJSON(data []byte) error {
	var records []string
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	*s = *NewResultSet(records...)
	return nil
}
