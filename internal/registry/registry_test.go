package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecord struct {
	ID   string
	Name string
}

func (r *fakeRecord) RecordID() string { return r.ID }

func TestCollection_InsertAndFind(t *testing.T) {
	c := New[*fakeRecord]()

	c.Insert(&fakeRecord{ID: "a", Name: "first"})
	c.Insert(&fakeRecord{ID: "b", Name: "second"})

	rec, ok := c.FindByID("a")
	require.True(t, ok)
	assert.Equal(t, "first", rec.Name)

	_, ok = c.FindByID("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCollection_Replace(t *testing.T) {
	c := New[*fakeRecord]()
	c.Insert(&fakeRecord{ID: "a", Name: "before"})

	ok := c.Replace(&fakeRecord{ID: "a", Name: "after"})
	require.True(t, ok)

	rec, _ := c.FindByID("a")
	assert.Equal(t, "after", rec.Name)

	// Replacing an unknown ID is refused
	assert.False(t, c.Replace(&fakeRecord{ID: "ghost"}))
	assert.Equal(t, 1, c.Len())
}

func TestCollection_Remove(t *testing.T) {
	c := New[*fakeRecord]()
	c.Insert(&fakeRecord{ID: "a"})
	c.Insert(&fakeRecord{ID: "b"})
	c.Insert(&fakeRecord{ID: "c"})

	require.True(t, c.Remove("b"))
	assert.False(t, c.Remove("b"))

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "c", list[1].ID)
}

func TestCollection_ListPreservesInsertionOrder(t *testing.T) {
	c := New[*fakeRecord]()
	c.Insert(&fakeRecord{ID: "z"})
	c.Insert(&fakeRecord{ID: "a"})
	c.Insert(&fakeRecord{ID: "m"})

	// Re-inserting keeps the original position
	c.Insert(&fakeRecord{ID: "z", Name: "updated"})

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, "z", list[0].ID)
	assert.Equal(t, "updated", list[0].Name)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "m", list[2].ID)
}
