// Package database stores gallery membership in SQLite.
//
// The only table, gallery_images, maps a public gallery token to the image
// ids added to it, with a millisecond timestamp used for ordering. A unique
// index on (gallery_token, image_id) makes re-adding an image a no-op.
//
// All statements run on a single connection behind a mutex, so an add
// batch and a listing never interleave.
package database
