//go:build !gocv
// +build !gocv

package capture

import (
	"context"
	"fmt"

	"github.com/greenlens-app/greenlens/internal/models"
)

// StubBackend is used when the binary is built without the gocv tag. It
// reports no devices.
type StubBackend struct{}

// NewDefaultBackend returns the stub backend
func NewDefaultBackend() Backend {
	return StubBackend{}
}

func (StubBackend) Devices(ctx context.Context) ([]models.Device, error) {
	return nil, nil
}

func (StubBackend) Open(ctx context.Context, deviceID string) (Stream, error) {
	return nil, fmt.Errorf("%w: gocv build tag is not enabled", ErrDeviceUnavailable)
}
