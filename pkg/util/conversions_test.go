package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDigits(t *testing.T) {
	assert.True(t, IsDigits("145582654857805825"))
	assert.True(t, IsDigits("0"))

	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("lux"))
	assert.False(t, IsDigits("123abc"))
	assert.False(t, IsDigits("12 34"))
	assert.False(t, IsDigits("-123"))
	assert.False(t, IsDigits("１２３")) // full-width digits are not snowflake digits
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("", 10))
}

func TestStringToUint64(t *testing.T) {
	n, err := StringToUint64("1079109375647555695")
	assert.NoError(t, err)
	assert.Equal(t, uint64(1079109375647555695), n)

	_, err = StringToUint64("not-a-number")
	assert.Error(t, err)

	// 2^64 and beyond overflow; a digit run this long is no snowflake.
	_, err = StringToUint64("18446744073709551616")
	assert.Error(t, err)
}
