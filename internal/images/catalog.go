package images

import (
	"context"
	"hash/fnv"
	"path"
	"strings"
)

// Catalog lists the station pictures available for image_url assignment.
type Catalog interface {
	// List returns image names in ascending order.
	List(ctx context.Context) ([]string, error)
	// URL returns the public address of name. requestBase is the scheme and
	// host the client used, ending in "/".
	URL(requestBase, name string) string
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func isImage(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// ByPosition picks the image for the i-th result of a nearby query. Images
// rotate through the sorted list.
func ByPosition(names []string, i int) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	return names[i%len(names)], true
}

// ByStation picks a stable image for a station, so the same station keeps
// its picture across requests.
func ByStation(names []string, uid string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(uid))
	return names[h.Sum32()%uint32(len(names))], true
}
