// Package thumbs derives bounded JPEG previews from stored images.
//
// A thumbnail is named <image id>.thumb.jpg, fits inside 320x160 and is
// encoded at quality 40. Generate always rewrites; GenerateAll only
// touches images that have no thumbnail yet, so running it again is a
// no-op until new images arrive.
package thumbs
