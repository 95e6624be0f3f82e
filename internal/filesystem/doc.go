/*
Package filesystem owns the on-disk image store: generated image ids,
collision-free durable writes, and NFS-tolerant reads.

# Layout

Every artifact lives under <root>/e. Images are named e/<10 alphanumerics>.<ext>
with ext one of png, jpg or gif; a thumbnail sits next to its image as
<id>.thumb.jpg.

# Durable writes

Encoders write into a TempFile created inside <root>/e. Writer.Persist then
hard-links it to a freshly drawn random name. os.Link fails with EEXIST when
the name is taken, which makes the link an exclusive create: a collision
draws a new candidate and tries again, up to MaxNameAttempts distinct names,
after which ErrNamesExhausted is returned. The linked file is chmod'ed to
0644; failing that returns ErrMakeReadable.

	w, err := filesystem.NewWriter(dataDir)
	tmp, err := w.CreateTemp()
	defer tmp.Cleanup()
	// encode into tmp
	id, err := w.Persist(tmp, "png")

Writer.PersistAs is the non-exclusive variant used for derived names.

# Retries

StatWithRetry, OpenWithRetry and ReadFileWithRetry retry only on ESTALE
(errno 116), with exponential backoff:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

All other errors are returned immediately.
*/
package filesystem
