package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"quad-image/internal/database"
	"quad-image/internal/filesystem"
	"quad-image/internal/gallery"
	"quad-image/internal/startup"
	"quad-image/internal/thumbs"
	"quad-image/internal/workers"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	startup.LoadEnvFile()
	config, err := startup.ReadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "thumbs":
		err = runThumbs(ctx, config.DataDir)
	case "token":
		var secret []byte
		secret, err = readSecret(config.SecretPath)
		if err == nil {
			err = runToken(secret, bufio.NewReader(os.Stdin), readPassphrase, os.Stdout)
		}
	case "list":
		if len(os.Args) != 3 {
			printUsage(os.Stdout)
			os.Exit(1)
		}
		err = runList(ctx, config.DatabasePath, os.Args[2], os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage(os.Stdout)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// Any character that is not alphanumeric, a hyphen, or an underscore becomes '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "quad-image maintenance")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: quadctl <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  thumbs          - Generate all missing thumbnails")
	fmt.Fprintln(w, "  token           - Print the public token for a gallery name and passphrase")
	fmt.Fprintln(w, "  list <public>   - List the images in a gallery, newest first")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  DATA_DIR      - Image root (default: .)")
	fmt.Fprintln(w, "  DATABASE_PATH - Gallery database (default: DATA_DIR/gallery.db)")
	fmt.Fprintln(w, "  SECRET_PATH   - Server secret (default: DATA_DIR/config/secret)")
}

func runThumbs(ctx context.Context, dataDir string) error {
	writer, err := filesystem.NewWriter(dataDir)
	if err != nil {
		return err
	}

	gen := thumbs.NewGenerator(writer, workers.ForCPU(0))
	pending, err := gen.Pending()
	if err != nil {
		return err
	}
	fmt.Printf("Generating %d thumbnail(s)...\n", len(pending))

	return gen.GenerateAll(ctx)
}

// readSecret loads an existing secret. Unlike the server, it never creates
// one: tokens derived from a fresh secret would match no gallery.
func readSecret(path string) ([]byte, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no secret at %s; start the server once to create it", path)
	}
	return startup.LoadSecret(path)
}

func readPassphrase() ([]byte, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return nil, errors.New("passphrase prompt needs a terminal")
	}
	defer fmt.Println()
	return term.ReadPassword(fd)
}

func runToken(secret []byte, in *bufio.Reader, passphrase func() ([]byte, error), out io.Writer) error {
	fmt.Fprint(out, "Gallery name: ")
	name, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read gallery name: %w", err)
	}
	name = strings.TrimSpace(name)

	fmt.Fprint(out, "Passphrase: ")
	pass, err := passphrase()
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}

	if _, _, ok := gallery.ParseSpec(name + "!" + string(pass)); !ok {
		return errors.New("gallery names are 4-10 letters or digits starting with a letter; passphrases are 4-99 characters")
	}

	fmt.Fprintln(out, gallery.DeriveToken(secret, name, string(pass)))
	return nil
}

func runList(ctx context.Context, dbPath, public string, out io.Writer) error {
	if !gallery.ValidPublic(public) {
		return fmt.Errorf("%q is not a public gallery token", public)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	db, err := database.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	images, err := db.ListGalleryImages(ctx, public)
	if err != nil {
		return err
	}
	for _, id := range images {
		fmt.Fprintln(out, id)
	}
	return nil
}
