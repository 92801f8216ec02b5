package membuffer

import (
	"encoding/binary"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// environment variables overriding the construction defaults
const (
	EnvChunkSize     = "MEMBUFFER_CHUNK_SIZE"
	EnvSignedNumbers = "MEMBUFFER_SIGNED_NUMBERS"
	EnvMemoize       = "MEMBUFFER_MEMOIZE"
	EnvFloatOrder    = "MEMBUFFER_FLOAT_ORDER"
)

// defaults holds the options every new Buffer starts from
var defaults = defaultOptions()

// initConfig reads the environment overrides into defaults, a malformed value
// leaves the corresponding default untouched
func initConfig() error {
	defaults = defaultOptions()

	var first error
	fail := func(key, val string, err error) {
		if first == nil {
			first = errors.Wrapf(err, "%s=%q", key, val)
		}
	}

	if val, ok := os.LookupEnv(EnvChunkSize); ok {
		n, err := strconv.Atoi(val)
		switch {
		case err != nil:
			fail(EnvChunkSize, val, err)
		case n <= 0:
			fail(EnvChunkSize, val, errors.New("chunk size must be positive"))
		default:
			defaults.chunkSize = n
		}
	}

	if val, ok := os.LookupEnv(EnvSignedNumbers); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			fail(EnvSignedNumbers, val, err)
		} else {
			defaults.signed = b
		}
	}

	if val, ok := os.LookupEnv(EnvMemoize); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			fail(EnvMemoize, val, err)
		} else {
			defaults.memoize = b
		}
	}

	if val, ok := os.LookupEnv(EnvFloatOrder); ok {
		order, err := parseByteOrder(val)
		if err != nil {
			fail(EnvFloatOrder, val, err)
		} else {
			defaults.floatOrder = order
		}
	}

	return first
}

func parseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "little", "le", "littleendian", "little-endian":
		return binary.LittleEndian, nil
	case "big", "be", "bigendian", "big-endian":
		return binary.BigEndian, nil
	}
	return nil, errors.Errorf("unknown byte order %q", s)
}
