// Package ingest turns untrusted upload bytes into a normalized stored image.
//
// Store runs detection, decoding, EXIF orientation and re-encoding in
// sequence on the calling goroutine, then hands the result to a
// filesystem.Writer. PNG-like sources become PNG and photos become JPEG;
// a PNG larger than MaxPNGBytes is re-encoded once as JPEG. GIFs keep all
// of their frames and are always written to loop forever.
package ingest
