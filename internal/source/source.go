// Package source adapts CSV files, zip archives, and directory trees into
// sequential raw trip readers for the ETL pipeline.
package source

import (
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mobility-cli/internal/model"
)

// Reader yields raw trips one at a time. Next returns io.EOF once every
// underlying stream is exhausted.
type Reader interface {
	Next() (model.RawTrip, error)
	Close() error
}

// Open returns a Reader for path: a directory is walked for .csv files, a
// .zip archive is read member by member, anything else is treated as a single
// CSV file.
func Open(path string) (Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: stat %s", path)
	}
	switch {
	case info.IsDir():
		return Dir(path)
	case strings.HasSuffix(strings.ToLower(path), ".zip"):
		return Zip(path)
	default:
		return File(path)
	}
}

// opener produces the next CSV stream to read from.
type opener struct {
	name string
	open func() (io.ReadCloser, error)
}

// multi chains a sequence of CSV streams into one Reader. Trips are numbered
// with a global line ordinal across all streams.
type multi struct {
	openers []opener
	cur     *stream
	closeFn func() error
	line    int
}

func (m *multi) Next() (model.RawTrip, error) {
	for {
		if m.cur == nil {
			if len(m.openers) == 0 {
				return model.RawTrip{}, io.EOF
			}
			next := m.openers[0]
			m.openers = m.openers[1:]
			rc, err := next.open()
			if err != nil {
				return model.RawTrip{}, eris.Wrapf(err, "source: open %s", next.name)
			}
			s, err := newStream(rc, next.name)
			if err != nil {
				rc.Close()
				return model.RawTrip{}, err
			}
			m.cur = s
		}

		raw, err := m.cur.next()
		if err == io.EOF {
			_ = m.cur.close()
			m.cur = nil
			continue
		}
		if err != nil {
			return model.RawTrip{}, err
		}
		m.line++
		raw.Line = m.line
		return raw, nil
	}
}

func (m *multi) Close() error {
	if m.cur != nil {
		_ = m.cur.close()
		m.cur = nil
	}
	m.openers = nil
	if m.closeFn != nil {
		return m.closeFn()
	}
	return nil
}
