package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexFromInt(t *testing.T) {
	t.Run("should encode positive values", func(t *testing.T) {
		assert.Equal(t, Hex("0x1a"), HexFromInt(26))
	})

	t.Run("should encode zero", func(t *testing.T) {
		assert.Equal(t, Hex("0x0"), HexFromInt(0))
	})
}

func TestHexFromString(t *testing.T) {
	t.Run("should accept a valid hex string", func(t *testing.T) {
		h, err := HexFromString("0xdeadbeef")

		require.NoError(t, err)
		assert.Equal(t, Hex("0xdeadbeef"), h)
	})

	t.Run("should accept an uppercase prefix", func(t *testing.T) {
		_, err := HexFromString("0XFF")

		assert.NoError(t, err)
	})

	t.Run("should reject a missing prefix", func(t *testing.T) {
		_, err := HexFromString("deadbeef")

		assert.Error(t, err)
	})

	t.Run("should reject non-hex digits", func(t *testing.T) {
		_, err := HexFromString("0xzz")

		assert.Error(t, err)
	})
}

func TestHexInt(t *testing.T) {
	t.Run("should decode a valid value", func(t *testing.T) {
		assert.Equal(t, int64(42), Hex("0x2a").Int())
	})

	t.Run("should return zero for an empty value", func(t *testing.T) {
		assert.Equal(t, int64(0), Hex("").Int())
	})

	t.Run("should return zero for an invalid value", func(t *testing.T) {
		assert.Equal(t, int64(0), Hex("0xzz").Int())
	})
}

func TestHexBigInt(t *testing.T) {
	t.Run("should decode values beyond int64", func(t *testing.T) {
		// 1.5e18 wei, a routine native-token balance
		h := Hex("0x14d1120d7b160000")

		expected, ok := new(big.Int).SetString("1500000000000000000", 10)
		require.True(t, ok)
		assert.Zero(t, h.BigInt().Cmp(expected))
	})

	t.Run("should return zero for an empty value", func(t *testing.T) {
		assert.Zero(t, Hex("").BigInt().Sign())
	})

	t.Run("should return zero for an invalid value", func(t *testing.T) {
		assert.Zero(t, Hex("0xzz").BigInt().Sign())
	})
}

func TestHexAdd(t *testing.T) {
	t.Run("should add to the decoded value", func(t *testing.T) {
		assert.Equal(t, Hex("0x10"), Hex("0xf").Add(1))
	})

	t.Run("should treat an invalid value as zero", func(t *testing.T) {
		assert.Equal(t, Hex("0x5"), Hex("garbage").Add(5))
	})
}

func TestHexIsEmpty(t *testing.T) {
	assert.True(t, Hex("").IsEmpty())
	assert.False(t, Hex("0x0").IsEmpty())
}

func TestHexJSON(t *testing.T) {
	t.Run("should marshal as a JSON string", func(t *testing.T) {
		data, err := json.Marshal(Hex("0x2a"))

		require.NoError(t, err)
		assert.Equal(t, `"0x2a"`, string(data))
	})

	t.Run("should unmarshal a valid hex string", func(t *testing.T) {
		var h Hex
		err := json.Unmarshal([]byte(`"0x2a"`), &h)

		require.NoError(t, err)
		assert.Equal(t, Hex("0x2a"), h)
	})

	t.Run("should reject an invalid hex string", func(t *testing.T) {
		var h Hex
		err := json.Unmarshal([]byte(`"2a"`), &h)

		assert.Error(t, err)
	})

	t.Run("should reject a non-string value", func(t *testing.T) {
		var h Hex
		err := json.Unmarshal([]byte(`42`), &h)

		assert.Error(t, err)
	})
}
