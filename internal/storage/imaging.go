package storage

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/nfnt/resize"
)

// ErrTooManyPixels is returned by Downscale when the image header declares
// more pixels than the decode budget allows. The file is left untouched.
var ErrTooManyPixels = errors.New("image exceeds pixel budget")

// Downscale shrinks the JPEG or PNG at path in place so that neither side
// exceeds maxDim, keeping the aspect ratio and the original format.
// Images whose header declares more than maxPixels pixels are never decoded;
// a maxPixels of 0 disables that check. It reports whether the file was rewritten.
func Downscale(path string, maxDim, maxPixels int) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}

	imgCfg, format, err := image.DecodeConfig(f)
	if err != nil {
		f.Close()
		return false, fmt.Errorf("failed to read image header: %w", err)
	}
	if imgCfg.Width <= maxDim && imgCfg.Height <= maxDim {
		f.Close()
		return false, nil
	}
	if maxPixels > 0 && int64(imgCfg.Width)*int64(imgCfg.Height) > int64(maxPixels) {
		f.Close()
		return false, fmt.Errorf("%dx%d: %w", imgCfg.Width, imgCfg.Height, ErrTooManyPixels)
	}
	if format != "jpeg" && format != "png" {
		f.Close()
		return false, nil
	}

	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return false, err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return false, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)

	out, err := os.Create(path)
	if err != nil {
		return false, err
	}
	if format == "png" {
		err = png.Encode(out, resized)
	} else {
		err = jpeg.Encode(out, resized, &jpeg.Options{Quality: 85})
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return false, fmt.Errorf("failed to re-encode resized image: %w", err)
	}
	return true, nil
}
