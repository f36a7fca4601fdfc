// Package bundle describes the files of a data bundle as TIES object items
// and data-file supplemental descriptions.
//
// Each file is read once; the SHA-256 and MD5 digests, the size and the MIME
// type are all taken from that single pass.
package bundle

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	sha256 "github.com/minio/sha256-simd"
	"golang.org/x/sync/errgroup"

	"github.com/tiesdata/ties"
)

// sniffLen is how much of a file's head is kept for MIME detection.
const sniffLen = 3072

// Digest summarises the content of one file.
type Digest struct {
	SHA256 string
	MD5    string
	Size   int64
	MIME   string
}

// Options configures how files are described.
type Options struct {
	// Root is the bundle directory. When set, relativeUri is the file's
	// slash-separated path below Root.
	Root string
	// SecurityTag is written into authorityInformation. Empty is allowed.
	SecurityTag string
	// Workers bounds concurrent reads in DescribeAll; <= 0 means GOMAXPROCS.
	Workers int
}

// head keeps the first sniffLen bytes written to it.
type head struct{ buf []byte }

func (h *head) Write(p []byte) (int, error) {
	if room := sniffLen - len(h.buf); room > 0 {
		if len(p) < room {
			room = len(p)
		}
		h.buf = append(h.buf, p[:room]...)
	}
	return len(p), nil
}

// Sum reads r to EOF and returns its digests.
func Sum(r io.Reader) (Digest, error) {
	s, m, h := sha256.New(), md5.New(), &head{}
	n, err := io.Copy(io.MultiWriter(s, m, h), r)
	if err != nil {
		return Digest{}, err
	}
	return Digest{
		SHA256: hex.EncodeToString(s.Sum(nil)),
		MD5:    hex.EncodeToString(m.Sum(nil)),
		Size:   n,
		MIME:   mimetype.Detect(h.buf).String(),
	}, nil
}

// SumFile opens path and returns its digests.
func SumFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()
	d, err := Sum(f)
	if err != nil {
		return Digest{}, fmt.Errorf("bundle: read %s: %w", path, err)
	}
	return d, nil
}

// paths returns the absolute path of file and, when opt.Root is set, its
// slash-separated path relative to the root.
func paths(file string, opt Options) (abs string, rel *string, err error) {
	abs, err = filepath.Abs(file)
	if err != nil {
		return "", nil, err
	}
	if opt.Root == "" {
		return abs, nil, nil
	}
	root, err := filepath.Abs(opt.Root)
	if err != nil {
		return "", nil, err
	}
	r, err := filepath.Rel(root, abs)
	if err != nil {
		return "", nil, err
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", nil, fmt.Errorf("bundle: %s is outside %s", file, opt.Root)
	}
	s := filepath.ToSlash(r)
	return abs, &s, nil
}

// Describe returns the object item for one file. The object id is the file's
// SHA-256 digest.
func Describe(file string, opt Options) (ties.ObjectItem, error) {
	abs, rel, err := paths(file, opt)
	if err != nil {
		return ties.ObjectItem{}, err
	}
	d, err := SumFile(abs)
	if err != nil {
		return ties.ObjectItem{}, err
	}
	return ties.ObjectItem{
		ObjectID:     ties.String(d.SHA256),
		SHA256Hash:   ties.String(d.SHA256),
		MD5Hash:      ties.String(d.MD5),
		Size:         ties.Int64(d.Size),
		MimeType:     ties.String(d.MIME),
		RelativeURI:  rel,
		OriginalPath: ties.String(abs),
		AuthorityInformation: &ties.AuthorityInformation{
			SecurityTag: ties.String(opt.SecurityTag),
		},
	}, nil
}

// DescribeAll describes files concurrently. The result keeps the order of
// files; the first failure cancels the remaining reads.
func DescribeAll(ctx context.Context, files []string, opt Options) ([]ties.ObjectItem, error) {
	out := make([]ties.ObjectItem, len(files))
	g, ctx := errgroup.WithContext(ctx)
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			it, err := Describe(f, opt)
			if err != nil {
				return err
			}
			out[i] = it
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DataFile returns a data-file supplemental description of file.
func DataFile(file, assertionID, informationType string, opt Options) (*ties.SupplementalDescriptionDataFile, error) {
	abs, rel, err := paths(file, opt)
	if err != nil {
		return nil, err
	}
	d, err := SumFile(abs)
	if err != nil {
		return nil, err
	}
	return &ties.SupplementalDescriptionDataFile{
		SupplementalDescriptionBase: ties.SupplementalDescriptionBase{
			AssertionID:     ties.String(assertionID),
			InformationType: ties.String(informationType),
			SecurityTag:     ties.String(opt.SecurityTag),
		},
		SHA256DataHash:  ties.String(d.SHA256),
		DataSize:        ties.Int64(d.Size),
		DataRelativeURI: rel,
	}, nil
}

// Record wraps items in a version 0.9 document.
func Record(items []ties.ObjectItem, securityTag string) *ties.Record {
	if items == nil {
		items = []ties.ObjectItem{}
	}
	return &ties.Record{
		Version:     ties.String(ties.Version),
		SecurityTag: ties.String(securityTag),
		ObjectItems: items,
	}
}
