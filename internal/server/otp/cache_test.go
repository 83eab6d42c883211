package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	for i := 0; i < 10; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Len(t, code, codeLength)

		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code must be numeric, got %q", code)
		}
	}
}

func TestCache_SaveAndVerify(t *testing.T) {
	c := NewCache(5 * time.Minute)
	defer c.Stop()

	c.Save("alice@example.com", "123456")

	t.Run("wrong code", func(t *testing.T) {
		assert.False(t, c.Verify("alice@example.com", "654321"))
	})

	t.Run("unknown email", func(t *testing.T) {
		assert.False(t, c.Verify("nobody@example.com", "123456"))
	})

	t.Run("correct code is consumed", func(t *testing.T) {
		assert.True(t, c.Verify("alice@example.com", "123456"))
		assert.False(t, c.Verify("alice@example.com", "123456"))
	})
}

func TestCache_SaveReplacesCode(t *testing.T) {
	c := NewCache(5 * time.Minute)
	defer c.Stop()

	c.Save("alice@example.com", "111111")
	c.Save("alice@example.com", "222222")

	assert.False(t, c.Verify("alice@example.com", "111111"))
	assert.True(t, c.Verify("alice@example.com", "222222"))
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(10 * time.Millisecond)
	defer c.Stop()

	c.Save("alice@example.com", "123456")

	time.Sleep(30 * time.Millisecond)

	assert.False(t, c.Verify("alice@example.com", "123456"))
}
