package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	assert.Equal(t, Page{Page: 1, Limit: 20}, New(0, 0, 20, 100))
	assert.Equal(t, Page{Page: 3, Limit: 100}, New(3, 500, 20, 100))
	assert.Equal(t, Page{Page: 2, Limit: 10}, New(2, 10, 20, 0))
	assert.Equal(t, Page{Page: 1, Limit: 20}, New(-4, -1, 20, 100))
}

func TestOffsetAndTotalPages(t *testing.T) {
	p := New(3, 10, 10, 100)
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(10))
	assert.Equal(t, 2, p.TotalPages(11))
}
