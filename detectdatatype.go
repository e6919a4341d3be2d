package pavs

import (
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZ:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	}

	return "invalid"
}

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x1f, 0x9d},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType attempts to detect the data type of a stream by checking
// against a set of known data types.  Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(r io.Reader) (DataType, error) {
	buff := make([]byte, 6)
	n, err := io.ReadFull(r, buff)
	if err == io.EOF {
		// Nothing at all to read
		return DataTypeInvalid, err
	} else if err != nil && err != io.ErrUnexpectedEOF {
		return DataTypeInvalid, err
	}
	buff = buff[:n]

	// Match known signatures
Outer:
	for dt, sig := range byteCodeSigs {
		if len(sig) > len(buff) {
			continue
		}
		for position := range sig {
			if buff[position] != sig[position] {
				continue Outer
			}
		}
		return dt, nil
	}

	return DataTypeNoCompression, nil
}

// MaybeDecompressReadCloser sniffs the first bytes of rs, rewinds it, and
// returns a reader that yields the decompressed stream. Closing the returned
// reader closes rs.
func MaybeDecompressReadCloser(rs ReadSeekCloser) (io.ReadCloser, DataType, error) {
	dt, err := DetectDataType(rs)
	if err != nil {
		return nil, dt, err
	}

	// Rewind before any decompressor consumes the header
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, dt, err
	}

	switch dt {
	case DataTypeGzip:
		r, err := gzip.NewReader(rs)
		if err != nil {
			return nil, dt, err
		}
		return &stackedReadCloser{Reader: r, closers: []io.Closer{r, rs}}, dt, nil
	case DataTypeZip:
		// Only the first member of the archive is read
		zr := zipstream.NewReader(rs)
		if _, err := zr.Next(); err != nil {
			return nil, dt, err
		}
		return &stackedReadCloser{Reader: zr, closers: []io.Closer{rs}}, dt, nil
	case DataTypeBZip2:
		return &stackedReadCloser{Reader: bzip2.NewReader(rs), closers: []io.Closer{rs}}, dt, nil
	case DataTypeXZ:
		r, err := xz.NewReader(rs, 0)
		if err != nil {
			return nil, dt, err
		}
		return &stackedReadCloser{Reader: r, closers: []io.Closer{rs}}, dt, nil
	case DataTypeZ:
		r, err := zlib.NewReader(rs)
		if err != nil {
			return nil, dt, err
		}
		return &stackedReadCloser{Reader: r, closers: []io.Closer{r, rs}}, dt, nil
	}

	// No data type detected. For now, we assume this is uncompressed.
	return rs, dt, nil
}

// stackedReadCloser closes the decompressor and then the underlying source.
type stackedReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *stackedReadCloser) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
