package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{name: "small size gets minimum", input: 1, expected: 1024},
		{name: "exactly 1024", input: 1024, expected: 1024},
		{name: "just over 1024", input: 1025, expected: 2048},
		{name: "exact multiple of 1024", input: 2048, expected: 2048},
		{name: "odd number", input: 1500, expected: 2048},
		{name: "large plane", input: 640 * 480, expected: 307200},
		{name: "zero size", input: 0, expected: 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sizeClass(tt.input))
		})
	}
}

func TestGetPutFloat64(t *testing.T) {
	buf := GetFloat64(300)
	require.Len(t, buf, 300)
	require.GreaterOrEqual(t, cap(buf), 1024)

	// Writing the full length must be safe.
	for i := range buf {
		buf[i] = float64(i)
	}
	PutFloat64(buf)

	// A second request of the same class may reuse the buffer; either way the
	// length contract holds.
	buf2 := GetFloat64(1024)
	assert.Len(t, buf2, 1024)
	PutFloat64(buf2)
}

func TestPutFloat64Nil(t *testing.T) {
	assert.NotPanics(t, func() { PutFloat64(nil) })
	assert.NotPanics(t, func() { PutUint8(nil) })
}

func TestGetPutUint8(t *testing.T) {
	buf := GetUint8(2048)
	require.Len(t, buf, 2048)
	buf[0] = 255
	buf[2047] = 1
	PutUint8(buf)
}

func TestConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b := GetFloat64(4096)
				b[0] = 1
				PutFloat64(b)
				u := GetUint8(512)
				u[0] = 2
				PutUint8(u)
			}
		}()
	}
	wg.Wait()
}
