// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command uploader creates a video through the control plane, uploads a
// local file with resumable transfers, waits for processing and prints the
// signed player URL.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/videoplane/internal/client"
	xglog "github.com/ManuGH/videoplane/internal/log"
	"github.com/ManuGH/videoplane/internal/retry"
	"github.com/ManuGH/videoplane/internal/upload"
	"github.com/ManuGH/videoplane/internal/version"
)

// expiryMargin is the minimum remaining validity of a fresh upload
// authorization before a warning is printed.
const expiryMargin = 5 * time.Minute

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

type options struct {
	server       string
	file         string
	title        string
	chunkSize    int64
	resumeFile   string
	poll         bool
	pollInterval time.Duration
	logLevel     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("uploader", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.server, "server", "http://localhost:8080/api/video", "control-plane endpoint")
	fs.StringVar(&o.file, "file", "", "file to upload (required)")
	fs.StringVar(&o.title, "title", "", "video title (defaults to the file name)")
	fs.Int64Var(&o.chunkSize, "chunk-size", upload.DefaultChunkSize, "bytes per PATCH request")
	fs.StringVar(&o.resumeFile, "resume-file", "", "JSON file remembering unfinished uploads")
	fs.BoolVar(&o.poll, "poll", true, "wait until processing finishes")
	fs.DurationVar(&o.pollInterval, "poll-interval", 5*time.Second, "status polling interval")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if *showVersion {
		fmt.Fprintln(stderr, version.String())
		return o, flag.ErrHelp
	}
	if strings.TrimSpace(o.file) == "" {
		return o, errors.New("-file is required")
	}
	if o.chunkSize <= 0 {
		return o, errors.New("-chunk-size must be positive")
	}
	if o.title == "" {
		o.title = strings.TrimSuffix(filepath.Base(o.file), filepath.Ext(o.file))
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	xglog.Configure(xglog.Config{
		Level:   o.logLevel,
		Output:  stderr,
		Service: "videoplane-uploader",
		Version: version.Version,
	})

	f, err := os.Open(o.file)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	cp := client.New(o.server, client.Options{})

	var (
		store    upload.Store = upload.NewMemoryStore()
		sessions *sessionStore
	)
	if o.resumeFile != "" {
		fstore := upload.NewFileStore(o.resumeFile)
		store = fstore
		sessions = newSessionStore(fstore, o.file, info)
	}

	created, resumed, err := createOrResume(ctx, cp, o.title, sessions, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Create failed: %v\n", err)
		return exitFailure
	}
	auth := created.TusConfig
	if resumed {
		fmt.Fprintf(stdout, "Resuming video %s in library %s\n", created.VideoID, created.LibraryID)
	} else {
		fmt.Fprintf(stdout, "Created video %s in library %s\n", created.VideoID, created.LibraryID)
	}

	// Credentials are not renewed mid-transfer; a short-lived one is only flagged.
	if auth.Expired(time.Now().Add(expiryMargin)) {
		fmt.Fprintf(stderr, "Warning: upload authorization expires at %s\n",
			time.Unix(auth.ExpirationTime, 0).Format(time.RFC3339))
	}

	u, err := upload.New(f, info.Size(), auth, upload.Options{
		ChunkSize: o.chunkSize,
		Store:     store,
		Title:     o.title,
		FileType:  mimeType(o.file),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	var res upload.Result
	g := new(errgroup.Group)
	g.Go(func() error {
		last := -1
		for ev := range u.Events() {
			if ev.Kind != upload.EventProgress {
				continue
			}
			if pct := int(ev.Progress.Percent()); pct != last {
				last = pct
				fmt.Fprintf(stdout, "\rUploading %3d%% (%d/%d bytes)", pct, ev.Progress.Sent, ev.Progress.Total)
			}
		}
		fmt.Fprintln(stdout)
		return nil
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
			u.Abort()
		case <-u.Done():
		}
		return nil
	})
	g.Go(func() error {
		res = u.Run(context.WithoutCancel(ctx))
		return nil
	})
	_ = g.Wait()

	var exhausted *retry.ExhaustedError
	switch {
	case res.Aborted():
		fmt.Fprintln(stderr, "Upload interrupted")
		if sessions != nil {
			fmt.Fprintf(stderr, "Rerun with -resume-file %s to continue\n", o.resumeFile)
		}
		return exitInterrupted
	case !res.OK():
		fmt.Fprintf(stderr, "Upload failed: %v\n", res.Err)
		if sessions != nil {
			if errors.As(res.Err, &exhausted) {
				fmt.Fprintf(stderr, "Rerun with -resume-file %s to continue\n", o.resumeFile)
			} else if err := sessions.drop(created); err != nil {
				fmt.Fprintf(stderr, "Warning: %v\n", err)
			}
		}
		return exitFailure
	}
	if sessions != nil {
		if err := sessions.drop(created); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
	}
	fmt.Fprintf(stdout, "Uploaded %d bytes\n", res.Bytes)

	if o.poll {
		fmt.Fprintln(stdout, "Waiting for processing...")
		st, err := cp.WaitReady(ctx, created.VideoID, o.pollInterval)
		if err != nil {
			fmt.Fprintf(stderr, "Processing failed: %v\n", err)
			return exitFailure
		}
		fmt.Fprintf(stdout, "Ready: %dx%d, %ds\n", st.Width, st.Height, st.Length)
	}

	embed, err := cp.EmbedToken(ctx, created.VideoID)
	if err != nil {
		fmt.Fprintf(stderr, "Embed token failed: %v\n", err)
		return exitFailure
	}
	fmt.Fprintf(stdout, "Embed URL: %s\n", embed)
	return exitOK
}

// createOrResume reuses the saved session for this file while its upload
// authorization is still good, and creates a new video otherwise.
func createOrResume(ctx context.Context, cp *client.Client, title string, sessions *sessionStore, stderr io.Writer) (client.Created, bool, error) {
	if sessions != nil {
		c, ok, err := sessions.load(time.Now().Add(expiryMargin))
		if err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
		if ok {
			return c, true, nil
		}
	}
	c, err := cp.Create(ctx, title)
	if err != nil {
		return client.Created{}, false, err
	}
	if sessions != nil {
		if err := sessions.save(c); err != nil {
			fmt.Fprintf(stderr, "Warning: resume state not saved: %v\n", err)
		}
	}
	return c, false, nil
}

// Container types the provider accepts. Registered so the result does not
// depend on the host's mime.types.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

func init() {
	for ext, typ := range videoTypes {
		_ = mime.AddExtensionType(ext, typ)
	}
}

func mimeType(name string) string {
	typ := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if typ == "" {
		return "application/octet-stream"
	}
	if media, _, err := mime.ParseMediaType(typ); err == nil {
		return media
	}
	return typ
}
