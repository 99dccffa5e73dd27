package entropy

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sipa/gramtropy/internal/bignat"
)

func TestSamplePanicsOnZeroRange(t *testing.T) {
	require.Panics(t, func() { Sample(bytes.NewReader([]byte{0}), bignat.Zero()) })
}

func TestSampleMasksHighBitsAndStaysInRange(t *testing.T) {
	// range [0, 10): needs 1 byte, 4 bits of mask (10 fits in 4 bits).
	rang := bignat.FromUint64(10)
	// 0xFF would be rejected (0x0F=15 >= 10 after masking); supply a byte
	// whose masked low nibble is in range, preceded by one that isn't.
	src := bytes.NewReader([]byte{0xFF, 0x03})
	v, err := Sample(src, rang)
	require.NoError(t, err)
	require.True(t, v.Less(rang))
	require.Equal(t, 0, v.Cmp(bignat.FromUint64(3)))
}

func TestSampleRetriesOnOutOfRangeDraw(t *testing.T) {
	rang := bignat.FromUint64(3) // needs 2 bits, 1 byte, mask 0x03
	// 0xFF masked is 0x03 = 3, out of range (>= 3): must retry.
	// 0xFE masked is 0x02 = 2, in range: must be returned.
	src := bytes.NewReader([]byte{0xFF, 0xFE})
	v, err := Sample(src, rang)
	require.NoError(t, err)
	require.Equal(t, 0, v.Cmp(bignat.FromUint64(2)))
}

func TestSamplePropagatesReadError(t *testing.T) {
	_, err := Sample(iotest_errReader{}, bignat.FromUint64(10))
	require.Error(t, err)
}

type iotest_errReader struct{}

func (iotest_errReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestSampleStaysInRangeOverManyDraws(t *testing.T) {
	// rang=200 is not a power of two, so BitLen(200)=8, one byte, mask
	// 0xFF: every byte value is a candidate draw, some rejected (>=200).
	rang := bignat.FromUint64(200)
	src := make([]byte, 512)
	for i := range src {
		src[i] = byte(i)
	}
	r := bytes.NewReader(src)
	for i := 0; i < 200; i++ {
		v, err := Sample(r, rang)
		require.NoError(t, err)
		require.True(t, v.Less(rang))
	}
}
