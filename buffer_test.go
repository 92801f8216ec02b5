package membuffer

import (
	"testing"

	"github.com/performancecopilot/membuffer/bytebuffer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	cases := []struct {
		initial     []byte
		opts        []Option
		offset, cap int
	}{
		{nil, nil, 0, 0},
		{[]byte{1, 2, 3}, nil, 0, 128},
		{make([]byte, 129), nil, 0, 256},
		{[]byte{1, 2, 3}, []Option{WithStartOffset(2)}, 2, 128},
		{[]byte{1, 2, 3}, []Option{WithStartOffset(10)}, 3, 128},
		{[]byte{1, 2, 3}, []Option{WithStartOffset(-1)}, 0, 128},
		{[]byte{1, 2, 3}, []Option{WithChunkSize(2)}, 0, 4},
		{[]byte{1, 2, 3}, []Option{WithChunkSize(0)}, 0, 128},
	}

	for _, c := range cases {
		b, err := New(c.initial, c.opts...)
		require.NoError(t, err)
		assert.Equal(t, c.offset, b.Offset())
		assert.Equal(t, len(c.initial), b.Len())
		assert.Equal(t, c.cap, b.Cap())
	}
}

func TestNewCopiesInitial(t *testing.T) {
	initial := []byte{1, 2, 3}
	b := MustNew(initial)
	initial[0] = 9

	assert.Equal(t, []byte{1, 2, 3}, b.Bytes())
}

func TestCursorAlgebra(t *testing.T) {
	b := MustNew(make([]byte, 32))

	for x := 0; x <= 16; x += 4 {
		for n := 0; n <= 16; n += 3 {
			require.NoError(t, b.ResumeAt(x))
			require.NoError(t, b.Skip(n))
			assert.Equal(t, x+n, b.Offset())
		}
	}

	require.NoError(t, b.SkipFrom(10, -4))
	assert.Equal(t, 6, b.Offset())

	require.NoError(t, b.SkipFrom(-1, 2))
	assert.Equal(t, 8, b.Offset())

	require.NoError(t, b.ResumeAt(-5))
	assert.Equal(t, 0, b.Offset())

	b.MustSkip(5)
	assert.Equal(t, 5, b.Resume().Offset())
}

func TestSkipOutOfBounds(t *testing.T) {
	b := MustNew(make([]byte, 8))
	b.MustSkip(4)

	for _, n := range []int{5, -5, 100} {
		err := b.Skip(n)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrOutOfBounds))
		assert.Equal(t, 4, b.Offset())
	}

	err := b.ResumeAt(9)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	assert.Equal(t, 4, b.Offset())

	assert.Panics(t, func() { b.MustResumeAt(9) })
	assert.Panics(t, func() { b.MustSkip(9) })
}

func TestClear(t *testing.T) {
	b := MustNew([]byte{1, 2, 3, 4})
	b.MustSkip(2)

	require.NoError(t, b.Clear())
	assert.Equal(t, 0, b.Offset())
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Cap())

	_, err := b.ReadBytes(1)
	assert.True(t, errors.Is(err, ErrOutOfBounds))

	_, err = b.ReadInt32()
	assert.True(t, errors.Is(err, ErrOutOfBounds))

	require.NoError(t, b.WriteBytes([]byte{5}))
	assert.Equal(t, []byte{5}, b.Bytes())
	assert.Equal(t, 128, b.Cap())
}

func TestReadBytes(t *testing.T) {
	b := MustNew([]byte{1, 2, 3, 4})

	p, err := b.ReadBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, p)
	assert.Equal(t, 3, b.Offset())

	p[0] = 9
	assert.Equal(t, byte(1), b.Bytes()[0], "reads must not alias storage by default")

	_, err = b.ReadBytes(2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	assert.Equal(t, 3, b.Offset())

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, 3, e.Offset)

	_, err = b.ReadBytes(-1)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestReadBytesZeroCopy(t *testing.T) {
	b := MustNew([]byte{1, 2, 3, 4}, WithZeroCopy())

	p, err := b.ReadBytes(2)
	require.NoError(t, err)

	p[0] = 9
	assert.Equal(t, byte(9), b.Bytes()[0])
}

func TestWriteBytes(t *testing.T) {
	b := MustNew([]byte{1, 2, 3, 4})
	b.MustSkip(2)

	require.NoError(t, b.WriteBytes([]byte{7}))
	assert.Equal(t, []byte{1, 2, 7, 4}, b.Bytes())
	assert.Equal(t, 4, b.Len(), "overwriting inside the length keeps it")

	b.MustSkip(1)
	b.MustWriteBytes([]byte{8, 9})
	assert.Equal(t, []byte{1, 2, 7, 4, 8, 9}, b.Bytes())
	assert.Equal(t, 6, b.Offset())
	assert.Equal(t, 0, b.Remaining())
}

func checkGrowth(t *testing.T, b *Buffer, chunk int) {
	total := b.Len()
	for _, n := range []int{1, 7, 0, 120, 1, 300, 17, 1000} {
		require.NoError(t, b.WriteBytes(make([]byte, n)))
		total += n

		assert.Equal(t, total, b.Len())
		assert.True(t, b.Cap() >= total)
		assert.Equal(t, 0, b.Cap()%chunk, "capacity %d not a multiple of %d", b.Cap(), chunk)
	}
}

func TestGrowthInvariant(t *testing.T) {
	for _, chunk := range []int{1, 16, 128, 1000} {
		checkGrowth(t, MustNew(nil, WithChunkSize(chunk)), chunk)
	}
}

func TestGrowthInvariantMapped(t *testing.T) {
	creator := bytebuffer.NewMemoryMappedCreator(t.TempDir(), true)

	b, err := New([]byte{1, 2, 3}, WithStorage(creator), WithChunkSize(64))
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, []byte{1, 2, 3}, b.Bytes())
	b.MustSkip(3)

	checkGrowth(t, b, 64)

	require.NoError(t, b.Clear())
	assert.Equal(t, 0, b.Cap())

	require.NoError(t, b.WriteBytes([]byte("again")))
	assert.Equal(t, "again", string(b.Bytes()))
}

func TestGrowPreservesContent(t *testing.T) {
	b := MustNew(nil, WithChunkSize(4))

	for i := 0; i < 100; i++ {
		require.NoError(t, b.WriteBytes([]byte{byte(i)}))
	}

	for i, v := range b.Bytes() {
		require.Equal(t, byte(i), v)
	}
}

// shrinkingStorage fails to grow past limit and drops its region when it does
type shrinkingStorage struct {
	bytebuffer.HeapStorage
	limit int
}

func (s *shrinkingStorage) Enlarge(size int) ([]byte, error) {
	if size > s.limit {
		_ = s.HeapStorage.Reset()
		return nil, errors.New("no space left")
	}
	return s.HeapStorage.Enlarge(size)
}

type shrinkingCreator struct{ limit int }

func (c shrinkingCreator) New(size int) (bytebuffer.Storage, error) {
	s := &shrinkingStorage{limit: c.limit}
	if _, err := s.Enlarge(size); err != nil {
		return nil, err
	}
	return s, nil
}

func TestGrowFailureLeavesBufferUsable(t *testing.T) {
	b, err := New(nil, WithStorage(shrinkingCreator{limit: 8}), WithChunkSize(4))
	require.NoError(t, err)

	b.MustWriteBytes([]byte{1, 2, 3, 4})

	err = b.WriteArray([]any{1, 2, 3}, Int)
	require.Error(t, err)
	assert.Equal(t, 0, b.Cap())
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Offset())

	_, err = b.ReadBytes(1)
	assert.True(t, errors.Is(err, ErrOutOfBounds))

	require.NoError(t, b.WriteBytes([]byte{9}))
	assert.Equal(t, []byte{9}, b.Bytes())
}
