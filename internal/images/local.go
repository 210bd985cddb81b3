package images

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sort"
)

// StaticPrefix is the route local images are served under.
const StaticPrefix = "static/image/"

// LocalCatalog lists images from a directory on disk. The directory is read
// on every call so files can be added without a restart.
type LocalCatalog struct {
	dir string
}

func NewLocalCatalog(dir string) *LocalCatalog {
	return &LocalCatalog{dir: dir}
}

func (c *LocalCatalog) Dir() string {
	return c.dir
}

func (c *LocalCatalog) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading image directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (c *LocalCatalog) URL(requestBase, name string) string {
	return requestBase + StaticPrefix + url.PathEscape(name)
}
