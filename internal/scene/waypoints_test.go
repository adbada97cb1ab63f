package scene

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeIcon(t *testing.T, dir, name string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// TestLoadIcon tests icon decoding and failure classification
func TestLoadIcon(t *testing.T) {
	dir := t.TempDir()
	good := writeIcon(t, dir, "wp.png", 6, 4)
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))

	img, err := LoadIcon(good)
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())

	_, err = LoadIcon(bad)
	assert.True(t, errors.Is(err, ErrIconLoad))

	_, err = LoadIcon(filepath.Join(dir, "missing.png"))
	assert.True(t, errors.Is(err, ErrIconLoad))
}

// TestParseWaypoints tests list parsing and row skipping
func TestParseWaypoints(t *testing.T) {
	input := strings.Join([]string{
		"0.0,0.0,images/home.png",
		"1000, -2500.5, images/tower.png",
		"# comment",
		"bogus,0,icon.png",
		"1,2",
		"3,4,",
		"5,6,dir,with,commas.png",
	}, "\n")

	var skipped []int
	specs, err := ParseWaypoints(strings.NewReader(input), func(row int, err error) {
		skipped = append(skipped, row)
	})
	require.NoError(t, err)

	assert.Equal(t, []WaypointSpec{
		{North: 0, West: 0, IconPath: "images/home.png"},
		{North: 1000, West: -2500.5, IconPath: "images/tower.png"},
		{North: 5, West: 6, IconPath: "dir,with,commas.png"},
	}, specs)
	assert.Len(t, skipped, 3)
}

// TestLoadWaypoints tests loading a list with a bad icon
func TestLoadWaypoints(t *testing.T) {
	dir := t.TempDir()
	writeIcon(t, dir, "a.png", 8, 8)
	writeIcon(t, dir, "b.png", 16, 16)

	list := filepath.Join(dir, "waypoints.txt")
	content := "100,200,a.png\n300,400,missing.png\n500,600,b.png\n"
	require.NoError(t, os.WriteFile(list, []byte(content), 0o644))

	m := NewModel(DefaultScale)
	added, err := LoadWaypoints(m, list, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	wps := m.Snapshot().Waypoints
	require.Len(t, wps, 2)
	assert.Equal(t, 100.0, wps[0].North)
	assert.Equal(t, 200.0, wps[0].West)
	assert.Equal(t, 8, wps[0].Icon.Bounds().Dx())
	assert.Equal(t, 500.0, wps[1].North)
	assert.Equal(t, 16, wps[1].Icon.Bounds().Dx())
}

// TestLoadWaypoints_MissingFile tests that a missing list is fatal
func TestLoadWaypoints_MissingFile(t *testing.T) {
	m := NewModel(DefaultScale)
	_, err := LoadWaypoints(m, filepath.Join(t.TempDir(), "nope.txt"), testLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWaypointFile))
	assert.Equal(t, 0, m.WaypointCount())
}

// TestPolygons tests the fixed body shapes
func TestPolygons(t *testing.T) {
	assert.Equal(t, 23, AircraftSilhouette.Len())
	assert.Len(t, AircraftSilhouette.Y, 23)
	assert.Equal(t, 4, WaypointMarker.Len())
	assert.Len(t, WaypointMarker.Y, 4)

	// Nose is the first vertex, on the body x axis
	assert.Equal(t, 4.0, AircraftSilhouette.X[0])
	assert.Equal(t, 0.0, AircraftSilhouette.Y[0])
}
