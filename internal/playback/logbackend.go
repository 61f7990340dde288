package playback

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"
)

// LogBackend stands in for audio and haptic hardware on a headless host.
// Custom sounds must be local files; playing one only logs it.
type LogBackend struct {
	// Haptics reports whether a vibrator is present.
	Haptics bool
}

func (b LogBackend) Open(uri string) (Track, error) {
	path, err := localPath(uri)
	if err != nil {
		return nil, err
	}
	return &logTrack{uri: uri, path: path}, nil
}

func (LogBackend) Ready() bool { return true }

func (LogBackend) Play() error {
	slog.Debug("Playing default rep sound")
	return nil
}

func (LogBackend) Release() {}

func (b LogBackend) HasVibrator() bool { return b.Haptics }

func (LogBackend) Vibrate(d time.Duration) error {
	slog.Debug("Haptic pulse", "duration", d)
	return nil
}

// localPath accepts file:// URIs and bare filesystem paths.
func localPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse sound uri: %w", err)
	}
	switch u.Scheme {
	case "":
		return uri, nil
	case "file":
		return u.Path, nil
	default:
		return "", fmt.Errorf("unsupported sound uri scheme %q", u.Scheme)
	}
}

type logTrack struct {
	uri  string
	path string

	mu       sync.Mutex
	playing  bool
	released bool
}

func (t *logTrack) Prepare(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(t.path)
	if err != nil {
		return fmt.Errorf("stat sound: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("sound %s is a directory", t.path)
	}
	return nil
}

func (t *logTrack) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return fmt.Errorf("track %s released", t.uri)
	}
	t.playing = true
	slog.Debug("Playing custom rep sound", "uri", t.uri)
	return nil
}

func (t *logTrack) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
	return nil
}

func (t *logTrack) IsPlaying() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

func (t *logTrack) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
	t.released = true
}
