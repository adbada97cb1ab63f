package scene

import (
	"encoding/csv"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	// Icon formats
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/sirupsen/logrus"
)

// ErrWaypointFile is returned when the waypoint list itself cannot be read
var ErrWaypointFile = errors.New("waypoint file unreadable")

// LoadIcon reads and decodes an image file
func LoadIcon(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIconLoad, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIconLoad, path, err)
	}
	return img, nil
}

// WaypointSpec is one parsed row of a waypoint list
type WaypointSpec struct {
	North    float64
	West     float64
	IconPath string
}

// ParseWaypoints reads "north,west,iconPath" rows. Rows that don't parse are
// reported through skip and left out.
func ParseWaypoints(r io.Reader, skip func(row int, err error)) ([]WaypointSpec, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var specs []WaypointSpec
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skip(row, err)
				continue
			}
			return nil, fmt.Errorf("%w: %w", ErrWaypointFile, err)
		}

		spec, err := parseWaypointRecord(rec)
		if err != nil {
			skip(row, err)
			continue
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseWaypointRecord(rec []string) (WaypointSpec, error) {
	if len(rec) < 3 {
		return WaypointSpec{}, fmt.Errorf("expected north,west,icon; got %d fields", len(rec))
	}
	north, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
	if err != nil {
		return WaypointSpec{}, fmt.Errorf("bad north: %w", err)
	}
	west, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return WaypointSpec{}, fmt.Errorf("bad west: %w", err)
	}
	icon := strings.TrimSpace(strings.Join(rec[2:], ","))
	if icon == "" {
		return WaypointSpec{}, fmt.Errorf("empty icon path")
	}
	return WaypointSpec{North: north, West: west, IconPath: icon}, nil
}

// resolveIcon looks for a relative icon path in the working directory first,
// then next to the waypoint file
func resolveIcon(iconPath, listDir string) string {
	if filepath.IsAbs(iconPath) {
		return iconPath
	}
	if _, err := os.Stat(iconPath); err == nil {
		return iconPath
	}
	candidate := filepath.Join(listDir, iconPath)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return iconPath
}

// LoadWaypoints reads a waypoint list and adds every waypoint whose icon loads.
// It returns the number of waypoints added. Only an unreadable list is an error.
func LoadWaypoints(m *Model, path string, logger *logrus.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWaypointFile, err)
	}
	defer f.Close()

	specs, err := ParseWaypoints(f, func(row int, err error) {
		logger.WithError(err).WithFields(logrus.Fields{
			"file": path,
			"row":  row,
		}).Warn("Skipping malformed waypoint row")
	})
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(path)
	added := 0
	for _, spec := range specs {
		iconPath := resolveIcon(spec.IconPath, dir)
		if err := m.AddWaypoint(spec.North, spec.West, iconPath); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"north": spec.North,
				"west":  spec.West,
				"icon":  spec.IconPath,
			}).Warn("Waypoint not added to map")
			continue
		}
		added++
	}

	logger.WithFields(logrus.Fields{
		"file":      path,
		"waypoints": added,
		"rows":      len(specs),
	}).Info("Loaded waypoints")
	return added, nil
}
