//go:build gocv
// +build gocv

package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"

	"gocv.io/x/gocv"

	"github.com/greenlens-app/greenlens/internal/models"
)

// GoCVBackend reads cameras through OpenCV. Devices are addressed by their
// OpenCV index.
type GoCVBackend struct {
	MaxProbe int
}

// NewDefaultBackend returns the OpenCV backend
func NewDefaultBackend() Backend {
	return &GoCVBackend{MaxProbe: 8}
}

// Devices probes indices 0..MaxProbe-1 and reports the ones that open
func (b *GoCVBackend) Devices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	for i := 0; i < b.MaxProbe; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vc, err := gocv.OpenVideoCapture(i)
		if err != nil {
			continue
		}
		if vc.IsOpened() {
			devices = append(devices, models.Device{ID: strconv.Itoa(i), Label: fmt.Sprintf("Camera %d", i+1)})
		}
		vc.Close()
	}
	return devices, nil
}

func (b *GoCVBackend) Open(ctx context.Context, deviceID string) (Stream, error) {
	idx, err := strconv.Atoi(deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid device id %q", ErrDeviceUnavailable, deviceID)
	}

	vc, err := gocv.OpenVideoCapture(idx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d did not open", ErrDeviceUnavailable, idx)
	}
	return &gocvStream{vc: vc}, nil
}

type gocvStream struct {
	vc *gocv.VideoCapture
}

func (s *gocvStream) Frame() (image.Image, error) {
	mat := gocv.NewMat()
	defer mat.Close()

	if ok := s.vc.Read(&mat); !ok || mat.Empty() {
		return nil, errors.New("empty frame")
	}
	return mat.ToImage()
}

func (s *gocvStream) Close() error {
	return s.vc.Close()
}
