package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectAccessorList(t *testing.T) {
	t.Run("append skips duplicates and empty ids", func(t *testing.T) {
		s := &Subject{}
		s.AppendAccessor("A1")
		s.AppendAccessor("A1")
		s.AppendAccessor("")
		s.AppendAccessor("A2")
		assert.Equal(t, []string{"A1", "A2"}, s.AccessorIDs)
	})

	t.Run("remove keeps relative order", func(t *testing.T) {
		s := &Subject{AccessorIDs: []string{"A1", "A2", "A3"}}
		assert.True(t, s.RemoveAccessor("A2"))
		assert.Equal(t, []string{"A1", "A3"}, s.AccessorIDs)
		assert.False(t, s.RemoveAccessor("missing"))
	})

	t.Run("replace keeps position", func(t *testing.T) {
		s := &Subject{AccessorIDs: []string{"A1", "A2", "A3"}}
		assert.True(t, s.ReplaceAccessor("A2", "B2"))
		assert.Equal(t, []string{"A1", "B2", "A3"}, s.AccessorIDs)
		assert.False(t, s.ReplaceAccessor("missing", "X"))
		assert.Equal(t, []string{"A1", "B2", "A3"}, s.AccessorIDs)
	})

	t.Run("clone does not share the list", func(t *testing.T) {
		s := &Subject{AccessorIDs: []string{"A1"}}
		c := s.Clone()
		c.AccessorIDs[0] = "Z"
		assert.Equal(t, "A1", s.AccessorIDs[0])
	})

	t.Run("first accessor", func(t *testing.T) {
		_, ok := (&Subject{}).FirstAccessorID()
		assert.False(t, ok)
		id, ok := (&Subject{AccessorIDs: []string{"A1", "A2"}}).FirstAccessorID()
		assert.True(t, ok)
		assert.Equal(t, "A1", id)
	})
}
