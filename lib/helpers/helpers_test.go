package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrice(t *testing.T) {
	cases := map[string]string{
		"2.405":     "2.41",
		"54.4300":   "54.43",
		" 70.2 ":    "70.20",
		"30473":     "30473.00",
		"0.004":     "0.00",
		"-1.005":    "-1.01",
		"2078.6449": "2078.64",
	}

	for in, want := range cases {
		got, err := NormalizePrice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNormalizePriceInvalid(t *testing.T) {
	_, err := NormalizePrice("-")
	require.Error(t, err)

	_, err = NormalizePrice("")
	require.Error(t, err)
}

func TestNormalizeFloat(t *testing.T) {
	assert.Equal(t, "2.41", NormalizeFloat(2.405))
	assert.Equal(t, "30473.00", NormalizeFloat(30473))
}

func TestDropFraction(t *testing.T) {
	assert.Equal(t, "97", DropFraction("97.55"))
	assert.Equal(t, "135420", DropFraction("135 420.1234"))
	assert.Equal(t, "134921", DropFraction(" 134921 "))
}

func TestStripFraction(t *testing.T) {
	assert.Equal(t, "69143", StripFraction("69143.50"))
	assert.Equal(t, "69143", StripFraction("69 143.50"))
	assert.Equal(t, "135420", StripFraction("135 420.1234"))
	assert.Equal(t, "77.76", StripFraction(" 77.76 "))
	assert.Equal(t, "9999.50", StripFraction("9999.50"))
	assert.Equal(t, "10000.00", StripFraction("10000.00"))
	assert.Equal(t, "n/a", StripFraction("n/a"))
}

func TestIsPositive(t *testing.T) {
	assert.True(t, IsPositive("0.01"))
	assert.False(t, IsPositive("0"))
	assert.False(t, IsPositive("0.00"))
	assert.False(t, IsPositive("???"))
}

func TestSignedPercent(t *testing.T) {
	assert.Equal(t, "+1.23", SignedPercent(1.2345))
	assert.Equal(t, "–0.50", SignedPercent(-0.5))
	assert.Equal(t, "+0.00", SignedPercent(0))
}

func TestSearchKey(t *testing.T) {
	assert.Equal(t, "nvidiartx3070ti", SearchKey("NVIDIA RTX 3070 Ti"))
	assert.Equal(t, "3070ti", SearchKey(" 3070 ti\n"))
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp; c", EscapeHTML("a <b> & c"))
}

func TestAddToPrice(t *testing.T) {
	got, err := AddToPrice("72.32", 2)
	require.NoError(t, err)
	assert.Equal(t, "74.32", got)

	_, err = AddToPrice("n/a", 2)
	require.Error(t, err)
}
