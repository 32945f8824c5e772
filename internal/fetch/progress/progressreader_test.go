package progress

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
)

func TestReader_ReportsEveryInterval(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 100)

	var reports []int64
	pr := NewReader(iotest.OneByteReader(bytes.NewReader(data)), 0, 25, func(read, total int64) {
		require.Zero(t, total)
		reports = append(reports, read)
	})

	got, err := io.ReadAll(pr)
	require.NoError(t, err)
	require.Equal(t, data, got)
	require.Equal(t, []int64{25, 50, 75, 100}, reports)
	require.EqualValues(t, 100, pr.BytesRead())
}

func TestReader_ReportsWhenCrossingFivePercent(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 200)

	var reports []int64
	pr := NewReader(iotest.OneByteReader(bytes.NewReader(data)), 200, 1000, func(read, total int64) {
		require.EqualValues(t, 200, total)
		reports = append(reports, read)
	})

	_, err := io.ReadAll(pr)
	require.NoError(t, err)
	require.Equal(t, []int64{10}, reports)
}

func TestReader_NilCallback(t *testing.T) {
	pr := NewReader(bytes.NewReader([]byte("abc")), 3, 1, nil)

	got, err := io.ReadAll(pr)
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}
