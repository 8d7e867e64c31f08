// Package capture drives camera devices: enumeration, selection, streaming
// and frame grabbing.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"sync"

	"github.com/greenlens-app/greenlens/internal/models"
)

var (
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	ErrNotStreaming      = errors.New("camera is not streaming")
	ErrUnknownDevice     = errors.New("unknown camera device")
)

// JPEGQuality matches the default quality browsers use for canvas JPEG export
const JPEGQuality = 92

// Backend exposes the video devices of the host
type Backend interface {
	Devices(ctx context.Context) ([]models.Device, error)
	Open(ctx context.Context, deviceID string) (Stream, error)
}

// Stream is an open video stream. Close returns once every track of the
// stream has been released.
type Stream interface {
	Frame() (image.Image, error)
	Close() error
}

// Controller owns the capture session. At most one stream is active.
type Controller struct {
	backend Backend

	mu       sync.Mutex
	state    models.CaptureState
	devices  []models.Device
	selected string
	stream   Stream
	streamID string
}

func NewController(backend Backend) *Controller {
	return &Controller{backend: backend, state: models.StateIdle}
}

// Snapshot is a read-only view of the controller
type Snapshot struct {
	State    models.CaptureState `json:"state"`
	Devices  []models.Device     `json:"devices"`
	Selected string              `json:"selected"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:    c.state,
		Devices:  append([]models.Device(nil), c.devices...),
		Selected: c.selected,
	}
}

func (c *Controller) State() models.CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Enumerate lists the video devices. The first device becomes the selection
// when nothing has been chosen yet.
func (c *Controller) Enumerate(ctx context.Context) ([]models.Device, error) {
	devices, err := c.backend.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.devices = devices
	if c.selected == "" && len(devices) > 0 {
		c.selected = devices[0].ID
	}
	if c.state == models.StateIdle {
		c.state = models.StateDeviceListed
	}

	slog.Info("Camera devices enumerated", "count", len(devices), "selected", c.selected)
	return append([]models.Device(nil), devices...), nil
}

// Start opens a stream on the selected device. On failure the state is left
// unchanged.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(ctx)
}

func (c *Controller) startLocked(ctx context.Context) error {
	if c.state == models.StateStreaming && c.streamID == c.selected {
		return nil
	}
	if c.selected == "" {
		return fmt.Errorf("%w: no device selected", ErrDeviceUnavailable)
	}

	stream, err := c.backend.Open(ctx, c.selected)
	if err != nil {
		if errors.Is(err, ErrDeviceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	c.stream = stream
	c.streamID = c.selected
	c.state = models.StateStreaming
	slog.Info("Camera started", "device", c.selected)
	return nil
}

// Stop releases the active stream. Calling it while not streaming does nothing.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *Controller) stopLocked() error {
	if c.stream == nil {
		return nil
	}

	err := c.stream.Close()
	c.stream = nil
	c.streamID = ""
	c.state = models.StateDeviceListed
	if err != nil {
		slog.Warn("Camera stream did not close cleanly", "err", err)
		return fmt.Errorf("failed to stop stream: %w", err)
	}
	slog.Info("Camera stopped")
	return nil
}

// Select changes the device. While streaming, the current stream is fully
// stopped before the new device is started.
func (c *Controller) Select(ctx context.Context, deviceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.knownLocked(deviceID) {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
	}
	if deviceID == c.selected {
		return nil
	}

	wasStreaming := c.state == models.StateStreaming
	if wasStreaming {
		// Close has returned once stopLocked returns, so the restart below
		// never overlaps the old stream.
		if err := c.stopLocked(); err != nil {
			return err
		}
	}

	c.selected = deviceID
	if wasStreaming {
		return c.startLocked(ctx)
	}
	return nil
}

func (c *Controller) knownLocked(deviceID string) bool {
	for _, d := range c.devices {
		if d.ID == deviceID {
			return true
		}
	}
	return false
}

// CaptureFrame grabs the current frame at native resolution as JPEG
func (c *Controller) CaptureFrame() (models.Payload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != models.StateStreaming || c.stream == nil {
		return models.Payload{}, ErrNotStreaming
	}

	img, err := c.stream.Frame()
	if err != nil {
		return models.Payload{}, fmt.Errorf("failed to read frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return models.Payload{}, fmt.Errorf("failed to encode frame: %w", err)
	}
	return models.Payload{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}
