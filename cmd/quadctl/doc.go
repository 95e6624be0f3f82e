// Command quadctl provides maintenance tasks for a quad-image data directory.
//
// Usage:
//
//	quadctl <command>
//
// Commands:
//
//	thumbs         Generate every missing thumbnail under DATA_DIR/e, using
//	               one worker per CPU (THUMBNAIL_WORKERS overrides).
//
//	token          Prompt for a gallery name and passphrase and print the
//	               gallery's public token. The passphrase is read without echo.
//
//	list <public>  Print the image ids in a gallery, newest first.
//
// Configuration comes from the same environment variables and .env file as
// the server; see package startup.
package main
