// Package playback plays the per-rep feedback: a sound (custom or default)
// and a short haptic pulse.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hperssn/blastemst/internal/metrics"
)

// HapticPulse is the length of the vibration issued per rep.
const HapticPulse = 50 * time.Millisecond

// MediaSource opens a custom sound by URI.
type MediaSource interface {
	Open(uri string) (Track, error)
}

// Track is one custom sound. Prepare may block and is run off the caller's
// goroutine.
type Track interface {
	Prepare(ctx context.Context) error
	Start() error
	Stop() error
	IsPlaying() bool
	Release()
}

// DefaultSound is the fallback sound, preloaded at startup.
type DefaultSound interface {
	Ready() bool
	Play() error
	Release()
}

type Vibrator interface {
	HasVibrator() bool
	Vibrate(d time.Duration) error
}

var errDefaultNotReady = errors.New("default sound not ready")

// Controller owns at most one custom track plus the default sound and the
// vibrator. It is safe for concurrent use.
type Controller struct {
	media MediaSource
	def   DefaultSound
	vib   Vibrator

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	uri    string
	track  Track
	loaded bool
	// gen is bumped every time the bound track changes so a late Prepare
	// result for an older track is ignored.
	gen uint64
}

func NewController(media MediaSource, def DefaultSound, vib Vibrator) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		media:  media,
		def:    def,
		vib:    vib,
		ctx:    ctx,
		cancel: cancel,
	}
}

// LoadSoundFromURI binds the custom sound at uri and prepares it in the
// background. An empty uri drops the custom sound so the default is used.
// Reloading the URI that is already bound and prepared does nothing.
func (c *Controller) LoadSoundFromURI(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if uri == "" {
		c.releaseTrackLocked()
		return
	}
	if uri == c.uri && c.loaded {
		return
	}

	c.releaseTrackLocked()
	track, err := c.media.Open(uri)
	if err != nil {
		slog.Warn("Failed to open sound", "uri", uri, "error", err)
		metrics.PlaybackTotal.WithLabelValues("load", "error").Inc()
		return
	}

	c.uri = uri
	c.track = track
	gen := c.gen

	c.wg.Add(1)
	go c.prepare(gen, uri, track)
}

// LoadDefaultSound drops any custom sound.
func (c *Controller) LoadDefaultSound() {
	c.LoadSoundFromURI("")
}

// State reports the bound URI and whether it finished preparing.
func (c *Controller) State() (uri string, loaded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uri, c.loaded
}

// PlaySoundAndHaptic plays the rep sound and, when enabled, a haptic pulse.
// A failure in one does not prevent the other.
func (c *Controller) PlaySoundAndHaptic(hapticEnabled bool, customURI string) {
	c.playSound(customURI)
	if hapticEnabled {
		c.pulse()
	}
}

// Release frees every held resource. The controller must not be used after.
func (c *Controller) Release() {
	c.cancel()

	c.mu.Lock()
	c.releaseTrackLocked()
	c.mu.Unlock()

	c.wg.Wait()
	if c.def != nil {
		c.def.Release()
	}
}

func (c *Controller) prepare(gen uint64, uri string, track Track) {
	defer c.wg.Done()

	err := track.Prepare(c.ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		// superseded; whoever replaced it already released the track
		return
	}
	if err != nil {
		slog.Warn("Failed to prepare sound", "uri", uri, "error", err)
		metrics.PlaybackTotal.WithLabelValues("load", "error").Inc()
		c.releaseTrackLocked()
		return
	}
	c.loaded = true
	metrics.PlaybackTotal.WithLabelValues("load", "ok").Inc()
}

func (c *Controller) playSound(customURI string) {
	if customURI != "" {
		err := c.playCustom(customURI)
		if err == nil {
			metrics.PlaybackTotal.WithLabelValues("custom", "ok").Inc()
			return
		}
		slog.Debug("Custom sound unavailable, using default", "uri", customURI, "error", err)
		metrics.PlaybackTotal.WithLabelValues("custom", "fallback").Inc()
	}

	if err := c.playDefault(); err != nil {
		slog.Warn("Failed to play default sound", "error", err)
		metrics.PlaybackTotal.WithLabelValues("default", "error").Inc()
		return
	}
	metrics.PlaybackTotal.WithLabelValues("default", "ok").Inc()
}

func (c *Controller) playCustom(uri string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if uri != c.uri || c.track == nil {
		if err := c.rebindLocked(uri); err != nil {
			return err
		}
	}
	if !c.loaded {
		return errors.New("sound still preparing")
	}

	if c.track.IsPlaying() {
		if err := c.track.Stop(); err != nil {
			return err
		}
	}
	return c.track.Start()
}

// rebindLocked opens and prepares uri on the caller's goroutine.
func (c *Controller) rebindLocked(uri string) error {
	c.releaseTrackLocked()

	track, err := c.media.Open(uri)
	if err != nil {
		return err
	}
	if err := track.Prepare(c.ctx); err != nil {
		track.Release()
		return err
	}

	c.uri = uri
	c.track = track
	c.loaded = true
	return nil
}

func (c *Controller) playDefault() error {
	if c.def == nil || !c.def.Ready() {
		return errDefaultNotReady
	}
	return c.def.Play()
}

func (c *Controller) pulse() {
	if c.vib == nil || !c.vib.HasVibrator() {
		metrics.PlaybackTotal.WithLabelValues("haptic", "unsupported").Inc()
		return
	}
	if err := c.vib.Vibrate(HapticPulse); err != nil {
		slog.Warn("Failed to vibrate", "error", err)
		metrics.PlaybackTotal.WithLabelValues("haptic", "error").Inc()
		return
	}
	metrics.PlaybackTotal.WithLabelValues("haptic", "ok").Inc()
}

func (c *Controller) releaseTrackLocked() {
	if c.track != nil {
		c.track.Release()
	}
	c.track = nil
	c.uri = ""
	c.loaded = false
	c.gen++
}
