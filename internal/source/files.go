package source

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// File reads a single CSV file.
func File(path string) (Reader, error) {
	return &multi{
		openers: []opener{{
			name: path,
			open: func() (io.ReadCloser, error) { return os.Open(path) },
		}},
	}, nil
}

// Dir walks a directory tree and reads every .csv file in lexical order.
func Dir(root string) (Reader, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".csv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "source: walk %s", root)
	}
	sort.Strings(paths)

	openers := make([]opener, 0, len(paths))
	for _, p := range paths {
		openers = append(openers, opener{
			name: p,
			open: func() (io.ReadCloser, error) { return os.Open(p) },
		})
	}
	return &multi{openers: openers}, nil
}

// Zip reads every .csv member of a zip archive in archive order.
func Zip(path string) (Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open zip %s", path)
	}

	var openers []opener
	for _, zf := range zr.File {
		if !strings.HasSuffix(strings.ToLower(zf.Name), ".csv") {
			continue
		}
		openers = append(openers, opener{
			name: path + "!" + zf.Name,
			open: func() (io.ReadCloser, error) { return zf.Open() },
		})
	}
	return &multi{openers: openers, closeFn: zr.Close}, nil
}
