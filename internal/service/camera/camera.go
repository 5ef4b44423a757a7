// Package camera opens local cameras through OpenCV.
package camera

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"sync"

	"proctorfeed/internal/logger"
	"proctorfeed/internal/service/capture"

	"gocv.io/x/gocv"
)

const (
	// Black fallback frame size.
	BlackFrameWidth  = 720
	BlackFrameHeight = 540

	maxProbe = 8
)

// Opener opens gocv video captures.
type Opener struct {
	width, height int
	logger        *logger.Logger
}

func NewOpener(width, height int, logger *logger.Logger) *Opener {
	return &Opener{width: width, height: height, logger: logger}
}

// Open accepts a camera index ("0") or a file path / stream URL.
func (o *Opener) Open(ctx context.Context, deviceID string) (capture.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var source interface{} = deviceID
	if idx, err := strconv.Atoi(deviceID); err == nil {
		source = idx
	}

	vc, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("open camera %q: %w", deviceID, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera %q is not available", deviceID)
	}

	if o.width > 0 && o.height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(o.width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(o.height))
	}

	o.logger.Debug("Camera %s opened (%dx%d)", deviceID,
		int(vc.Get(gocv.VideoCaptureFrameWidth)), int(vc.Get(gocv.VideoCaptureFrameHeight)))

	return &device{vc: vc, frame: gocv.NewMat()}, nil
}

// Probe lists the camera indices that can be opened.
func (o *Opener) Probe() []string {
	var found []string
	for i := 0; i < maxProbe; i++ {
		vc, err := gocv.OpenVideoCapture(i)
		if err != nil {
			continue
		}
		if vc.IsOpened() {
			found = append(found, strconv.Itoa(i))
		}
		vc.Close()
	}
	return found
}

type device struct {
	mu    sync.Mutex
	vc    *gocv.VideoCapture
	frame gocv.Mat
}

func (d *device) Dimensions() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(d.vc.Get(gocv.VideoCaptureFrameWidth)), int(d.vc.Get(gocv.VideoCaptureFrameHeight))
}

func (d *device) Capture(quality int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ok := d.vc.Read(&d.frame); !ok || d.frame.Empty() {
		return nil, capture.ErrNotReady
	}
	return encodeJPEG(d.frame, quality)
}

func (d *device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.frame.Close(); err != nil {
		d.vc.Close()
		return err
	}
	return d.vc.Close()
}

func encodeJPEG(mat gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// GetBytes points into C memory freed by Close.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// BlackFrame returns an all-black JPEG shown when nothing else is available.
func BlackFrame() ([]byte, error) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), BlackFrameHeight, BlackFrameWidth, gocv.MatTypeCV8UC3)
	defer mat.Close()
	return encodeJPEG(mat, capture.JPEGQuality)
}

// Annotate draws a status banner on a JPEG frame. Used for archived
// snapshots so the saved file shows why it was kept.
func Annotate(jpeg []byte, label string) ([]byte, error) {
	mat, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("decode jpeg: empty image")
	}

	red := color.RGBA{R: 255, A: 255}
	if err := gocv.PutText(&mat, label, image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, red, 2); err != nil {
		return nil, fmt.Errorf("draw label: %w", err)
	}
	return encodeJPEG(mat, 90)
}
