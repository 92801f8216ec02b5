package bytebuffer

// HeapStorage is a Storage over a plain byte slice
type HeapStorage struct {
	buffer []byte
}

// NewHeapStorage creates a new HeapStorage of the specified size
func NewHeapStorage(n int) *HeapStorage {
	return &HeapStorage{buffer: make([]byte, n)}
}

// NewHeapStorageSlice creates a new HeapStorage using the passed slice
func NewHeapStorageSlice(buffer []byte) *HeapStorage {
	return &HeapStorage{buffer: buffer}
}

// Bytes returns the internal byte slice
func (s *HeapStorage) Bytes() []byte { return s.buffer }

// Enlarge allocates a new slice of the requested size and copies the old
// contents over
func (s *HeapStorage) Enlarge(size int) ([]byte, error) {
	if err := checkEnlarge(len(s.buffer), size); err != nil {
		return nil, err
	}

	if size == len(s.buffer) {
		return s.buffer, nil
	}

	next := make([]byte, size)
	copy(next, s.buffer)
	s.buffer = next

	return s.buffer, nil
}

// Reset drops the slice
func (s *HeapStorage) Reset() error {
	s.buffer = nil
	return nil
}

// Close is Reset, a heap storage holds nothing else
func (s *HeapStorage) Close() error { return s.Reset() }

// HeapCreator creates HeapStorage instances
type HeapCreator struct{}

// New implements Creator
func (HeapCreator) New(size int) (Storage, error) {
	return NewHeapStorage(size), nil
}
