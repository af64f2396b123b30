package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Equal(t, 13, c.Size())

	first, err := c.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Index)
	assert.Contains(t, first.Prompt, "What do you hope to gain")

	last, err := c.Get(12)
	require.NoError(t, err)
	assert.Equal(t, "13. Is your LinkedIn profile up to date?", last.Prompt)
}

func TestGetOutOfRange(t *testing.T) {
	c, err := New([]string{"Q1", "Q2"})
	require.NoError(t, err)

	for _, idx := range []int{-1, 2, 100} {
		_, err := c.Get(idx)
		assert.ErrorIs(t, err, ErrIndexOutOfRange, "index %d", idx)
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]string{"Q1", "   "})
	assert.Error(t, err)

	c, err := New([]string{"  Q1  "})
	require.NoError(t, err)
	q, _ := c.Get(0)
	assert.Equal(t, "Q1", q.Prompt)
}

func TestQuestionsReturnsCopy(t *testing.T) {
	c, err := New([]string{"Q1", "Q2"})
	require.NoError(t, err)

	qs := c.Questions()
	qs[0].Prompt = "mutated"

	q, _ := c.Get(0)
	assert.Equal(t, "Q1", q.Prompt)
}
