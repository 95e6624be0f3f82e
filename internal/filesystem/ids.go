package filesystem

import (
	"path"
	"regexp"
	"strings"
)

// ImageDir is the directory under the storage root that holds images and
// their thumbnails. It is also the prefix of every image id.
const ImageDir = "e"

// ThumbnailSuffix is appended to an image id to name its preview.
const ThumbnailSuffix = ".thumb.jpg"

// ImageIDPattern matches ids produced by Writer.Persist.
var ImageIDPattern = regexp.MustCompile(`^e/[a-zA-Z0-9]{10}\.(?:png|jpg|gif)$`)

// ValidImageID reports whether id looks like a stored image id.
func ValidImageID(id string) bool {
	return ImageIDPattern.MatchString(id)
}

// ThumbnailID returns the id of the preview for a stored image.
func ThumbnailID(imageID string) string {
	return imageID + ThumbnailSuffix
}

// imageIDForName maps a directory entry name back to an image id, or ""
// when the name is not an image (thumbnails, temp files, strays).
func imageIDForName(name string) string {
	if strings.HasSuffix(name, ThumbnailSuffix) {
		return ""
	}
	id := path.Join(ImageDir, name)
	if !ValidImageID(id) {
		return ""
	}
	return id
}
