package capture

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/yearbook/internal/common"
	"github.com/dmitrijs2005/yearbook/internal/models"
)

const CameraErrorText = common.CameraErrorText

// Facing selects the front or back camera.
type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

// Opposite returns the other camera.
func (f Facing) Opposite() Facing {
	if f == FacingEnvironment {
		return FacingUser
	}
	return FacingEnvironment
}

// DefaultCommand grabs a single frame with ffmpeg.
const DefaultCommand = "ffmpeg -hide_banner -loglevel error -y -f v4l2 -i {device} -frames:v 1 {output}"

// runCommand is a test seam for executing the capture command.
var runCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CameraOptions configure the external capture command. Command may use
// the {device} and {output} placeholders.
type CameraOptions struct {
	Command           string
	UserDevice        string
	EnvironmentDevice string
	Facing            Facing
}

// CameraError wraps common.ErrCameraUnavailable with the reason.
type CameraError struct {
	Reason error
}

func (e *CameraError) Error() string {
	if e.Reason == nil {
		return CameraErrorText
	}
	return CameraErrorText + " (" + e.Reason.Error() + ")"
}

func (e *CameraError) Unwrap() []error {
	return []error{common.ErrCameraUnavailable, e.Reason}
}

// Camera takes photos through an external command.
type Camera struct {
	mu     sync.Mutex
	opts   CameraOptions
	facing Facing
}

func NewCamera(opts CameraOptions) *Camera {
	facing := opts.Facing
	if facing != FacingEnvironment {
		facing = FacingUser
	}
	return &Camera{opts: opts, facing: facing}
}

// Facing reports the active camera.
func (c *Camera) Facing() Facing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

// Toggle switches between front and back and returns the new facing.
func (c *Camera) Toggle() Facing {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.facing = c.facing.Opposite()
	return c.facing
}

func (c *Camera) device() string {
	if c.Facing() == FacingEnvironment {
		return c.opts.EnvironmentDevice
	}
	return c.opts.UserDevice
}

// Available reports whether a capture could be attempted at all.
func (c *Camera) Available() error {
	if strings.TrimSpace(c.opts.Command) == "" {
		return &CameraError{Reason: errors.New("no capture command configured")}
	}
	if c.device() == "" {
		return &CameraError{Reason: fmt.Errorf("no %s camera configured", c.Facing())}
	}
	return nil
}

// Acquire takes one picture with the active camera.
func (c *Camera) Acquire(ctx context.Context) (*models.Image, error) {
	if err := c.Available(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "yearbook-capture-")
	if err != nil {
		return nil, &CameraError{Reason: err}
	}
	defer os.RemoveAll(dir)

	output := filepath.Join(dir, CapturedFilename)
	args := expand(c.opts.Command, c.device(), output)

	if out, err := runCommand(ctx, args[0], args[1:]...); err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &CameraError{Reason: err}
	}

	data, err := readFile(output)
	if err != nil {
		return nil, &CameraError{Reason: err}
	}
	if len(data) == 0 {
		return nil, &CameraError{Reason: errors.New("capture produced no data")}
	}

	return &models.Image{
		Filename:    CapturedFilename,
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

func expand(command, device, output string) []string {
	fields := strings.Fields(command)
	for i, f := range fields {
		f = strings.ReplaceAll(f, "{device}", device)
		fields[i] = strings.ReplaceAll(f, "{output}", output)
	}
	return fields
}
