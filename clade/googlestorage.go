package clade

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pavs"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

// loadGoogleStorage treats every object directly beneath the gs:// prefix as a
// clade file. Deeper objects are ignored, mirroring subdirectories locally.
func loadGoogleStorage(dir string, client *storage.Client, opts Options) (Membership, error) {
	if client == nil {
		return nil, &DirectoryError{Path: dir, Err: fmt.Errorf("a google storage client is required to read gs:// paths")}
	}

	bucketName, prefix, err := pavs.SplitGoogleStoragePath(strings.TrimSuffix(dir, "/") + "/")
	if err != nil {
		return nil, &DirectoryError{Path: dir, Err: err}
	}

	ctx := context.Background()
	bkt := client.Bucket(bucketName)
	it := bkt.Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})

	out := make(Membership, 0)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		} else if err != nil {
			return nil, &DirectoryError{Path: dir, Err: pfx.Err(err)}
		}

		// Synthetic "directory" entries carry only a Prefix
		if attrs.Name == "" {
			continue
		}

		fileName := path.Base(attrs.Name)
		if !isCladeFile(fileName) || strings.HasSuffix(attrs.Name, "/") {
			continue
		}

		r, err := bkt.Object(attrs.Name).NewReader(ctx)
		if err != nil {
			return nil, &DirectoryError{Path: dir, Err: pfx.Err(err)}
		}
		samples, err := ParseSamples(r)
		r.Close()
		if err != nil {
			return nil, &DirectoryError{Path: dir, Err: pfx.Err(fmt.Errorf("gs://%s/%s: %w", bucketName, attrs.Name, err))}
		}

		out = append(out, Clade{
			Name:    CladeName(fileName, opts.KeepExtension),
			Path:    "gs://" + bucketName + "/" + attrs.Name,
			Samples: samples,
		})
	}

	if len(out) == 0 {
		return nil, &DirectoryError{Path: dir, Err: fmt.Errorf("no clade files found")}
	}

	sortByName(out)

	return out, nil
}
