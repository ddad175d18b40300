package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextInSeries(t *testing.T) {
	assert.Equal(t, "HD0001", NextInSeries("HD", nil))

	cur := "HD0041"
	assert.Equal(t, "HD0042", NextInSeries("HD", &cur))

	cur = "PG9999"
	assert.Equal(t, "PG10000", NextInSeries("PG", &cur))

	cur = "KHxxxx"
	assert.Equal(t, "KH0001", NextInSeries("KH", &cur))
}
