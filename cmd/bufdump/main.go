// Command bufdump decodes a binary file as a sequence of records described by
// a YAML or JSON schema file and prints every record as a line of JSON.
//
//	bufdump -schema layout.yaml -type packet capture.bin
package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/performancecopilot/membuffer"
	"github.com/performancecopilot/membuffer/bytebuffer"
	"github.com/performancecopilot/membuffer/schemadef"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type config struct {
	schema  string // schema definition file
	typ     string // registered name to decode, the last one if empty
	count   int    // records to decode, all if negative
	offset  int    // bytes to skip before the first record
	signed  bool
	bigEnd  bool
	verbose bool
}

func loadSchemas(path string) (*membuffer.Registry, []string, error) {
	reg := membuffer.NewRegistry()

	var (
		names []string
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		names, err = schemadef.LoadJSONFile(path, reg)
	default:
		names, err = schemadef.LoadYAMLFile(path, reg)
	}
	if err != nil {
		return nil, nil, err
	}

	if len(names) == 0 {
		return nil, nil, errors.Errorf("%v defines no schema", path)
	}

	return reg, names, nil
}

// dump decodes data according to c and writes one JSON document per record
func dump(c config, data []byte, out io.Writer) (int, error) {
	reg, names, err := loadSchemas(c.schema)
	if err != nil {
		return 0, err
	}

	name := c.typ
	if name == "" {
		name = names[len(names)-1]
	}

	s, ok := reg.Lookup(name)
	if !ok {
		return 0, errors.Errorf("schema %q not found in %v, have %v", name, c.schema, names)
	}

	order := binary.ByteOrder(binary.LittleEndian)
	if c.bigEnd {
		order = binary.BigEndian
	}

	b, err := membuffer.New(data,
		membuffer.WithStartOffset(c.offset),
		membuffer.WithSignedNumbers(c.signed),
		membuffer.WithFloatByteOrder(order),
		membuffer.WithZeroCopy(),
	)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"schema":      name,
		"fingerprint": membuffer.Fingerprint(s),
		"bytes":       len(data),
	}).Debug("decoding")

	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)

	n := 0
	for c.count < 0 || n < c.count {
		if c.count < 0 && b.Remaining() == 0 {
			break
		}

		start := b.Offset()
		v, err := b.Read(s)
		if err != nil {
			_ = w.Flush()
			return n, errors.Wrapf(err, "record %d", n)
		}

		if b.Offset() == start {
			// a NUL terminated string stops at its terminator, step over it
			// so the next record starts after it
			if b.Remaining() > 0 && data[start] == 0 {
				if err := b.Skip(1); err != nil {
					return n, err
				}
				continue
			}

			_ = w.Flush()
			return n, errors.Errorf("record %d: schema %q consumed no bytes at offset %d", n, name, start)
		}

		if err := enc.Encode(v); err != nil {
			return n, err
		}
		n++
	}

	if b.Remaining() > 0 {
		log.WithField("bytes", b.Remaining()).Warn("trailing data left undecoded")
	}

	return n, w.Flush()
}

func main() {
	var c config
	flag.StringVar(&c.schema, "schema", "", "schema definition file (.yaml, .yml or .json)")
	flag.StringVar(&c.typ, "type", "", "name of the schema to decode, defaults to the last one defined")
	flag.IntVar(&c.count, "count", -1, "number of records to decode, all of them if negative")
	flag.IntVar(&c.offset, "offset", 0, "bytes to skip before the first record")
	flag.BoolVar(&c.signed, "signed", false, "decode integers without an explicit signedness as signed")
	flag.BoolVar(&c.bigEnd, "big-endian-floats", false, "decode floats and doubles as big endian")
	flag.BoolVar(&c.verbose, "v", false, "verbose logging")
	flag.Parse()

	if c.verbose {
		log.SetLevel(log.DebugLevel)
		membuffer.EnableLogging(true)
		membuffer.SetLogWriters(os.Stderr)
	}

	if flag.NArg() < 1 || c.schema == "" {
		log.Fatal("Usage: bufdump -schema <file> [-type name] [-count n] <data file>")
	}

	file := flag.Arg(0)
	m, err := bytebuffer.OpenMappedFile(file)
	if err != nil {
		log.WithError(err).Fatal("cannot open data file")
	}
	defer m.Close()

	n, err := dump(c, m.Bytes(), os.Stdout)
	if err != nil {
		log.WithError(err).WithField("records", n).Fatal("decoding failed")
	}

	log.WithFields(log.Fields{"file": file, "records": n}).Info("done")
}
