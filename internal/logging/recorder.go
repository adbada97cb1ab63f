package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const recordPrefix = "telemetry_"

// Recorder appends raw telemetry lines to one file per day and gzips the
// previous day's file after rotation
type Recorder struct {
	logDir      string
	useUTC      bool
	logger      *logrus.Logger
	currentFile *os.File
	currentDate string
	lines       uint64
	mutex       sync.RWMutex
	compressing sync.WaitGroup

	now func() time.Time
}

// NewRecorder creates the record directory and opens today's file
func NewRecorder(logDir string, useUTC bool, logger *logrus.Logger) (*Recorder, error) {
	return newRecorder(logDir, useUTC, logger, time.Now)
}

func newRecorder(logDir string, useUTC bool, logger *logrus.Logger, now func() time.Time) (*Recorder, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}

	r := &Recorder{
		logDir: logDir,
		useUTC: useUTC,
		logger: logger,
		now:    now,
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.rotate(r.today()); err != nil {
		return nil, fmt.Errorf("failed to initialize record file: %w", err)
	}
	return r, nil
}

func (r *Recorder) today() string {
	now := r.now()
	if r.useUTC {
		now = now.UTC()
	}
	return now.Format("2006-01-02")
}

func (r *Recorder) fileFor(date string) string {
	return filepath.Join(r.logDir, fmt.Sprintf("%s%s.log", recordPrefix, date))
}

// Record appends one line, rotating first if the day changed
func (r *Recorder) Record(line string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currentFile == nil {
		return fmt.Errorf("recorder is closed")
	}

	if date := r.today(); date != r.currentDate {
		r.logger.WithFields(logrus.Fields{
			"old_date": r.currentDate,
			"new_date": date,
		}).Info("Rotating telemetry record")
		if err := r.rotate(date); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(r.currentFile, line+"\n"); err != nil {
		return fmt.Errorf("failed to record line: %w", err)
	}
	r.lines++
	return nil
}

// rotate must be called with mutex held
func (r *Recorder) rotate(date string) error {
	if r.currentFile != nil {
		if err := r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close old record file")
		}

		old := r.currentDate
		r.compressing.Add(1)
		go func() {
			defer r.compressing.Done()
			r.compress(old)
		}()
	}

	path := r.fileFor(date)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		r.currentFile = nil
		return fmt.Errorf("failed to create record file %s: %w", path, err)
	}

	r.currentFile = file
	r.currentDate = date
	r.logger.WithField("file", path).Info("Recording telemetry")
	return nil
}

// compress gzips a finished day's file and removes the original
func (r *Recorder) compress(date string) {
	src := r.fileFor(date)
	dst := src + ".gz"

	in, err := os.Open(src)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.WithError(err).WithField("file", src).Error("Failed to open record file for compression")
		}
		return
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		r.logger.WithError(err).WithField("file", dst).Error("Failed to create compressed record file")
		return
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	gz.Name = filepath.Base(src)
	gz.ModTime = r.now()

	if _, err := io.Copy(gz, in); err != nil {
		r.logger.WithError(err).Error("Failed to compress record file")
		return
	}
	if err := gz.Close(); err != nil {
		r.logger.WithError(err).Error("Failed to close gzip writer")
		return
	}
	if err := out.Close(); err != nil {
		r.logger.WithError(err).Error("Failed to close compressed record file")
		return
	}
	if err := os.Remove(src); err != nil {
		r.logger.WithError(err).WithField("file", src).Error("Failed to remove original record file")
		return
	}

	r.logger.WithField("file", dst).Info("Record file compressed")
}

// CurrentFile returns the path of the file being written
func (r *Recorder) CurrentFile() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentDate == "" {
		return ""
	}
	return r.fileFor(r.currentDate)
}

// Lines returns the number of lines recorded
func (r *Recorder) Lines() uint64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.lines
}

// Files lists all record files, compressed or not
func (r *Recorder) Files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(r.logDir, recordPrefix+"*.log*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list record files: %w", err)
	}
	return files, nil
}

// CleanupOld removes record files last modified more than maxDays ago.
// It returns the number of files removed.
func (r *Recorder) CleanupOld(maxDays int) (int, error) {
	if maxDays <= 0 {
		return 0, fmt.Errorf("maxDays must be positive")
	}

	files, err := r.Files()
	if err != nil {
		return 0, err
	}

	cutoff := r.now().AddDate(0, 0, -maxDays)
	current := r.CurrentFile()

	removed := 0
	for _, file := range files {
		if file == current {
			continue
		}
		info, err := os.Stat(file)
		if err != nil {
			r.logger.WithError(err).WithField("file", file).Warn("Failed to stat record file")
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				r.logger.WithError(err).WithField("file", file).Error("Failed to remove old record file")
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		r.logger.WithField("count", removed).Info("Cleaned up old record files")
	}
	return removed, nil
}

// Close closes the current file and waits for pending compression
func (r *Recorder) Close() error {
	r.mutex.Lock()
	var err error
	if r.currentFile != nil {
		err = r.currentFile.Close()
		r.currentFile = nil
	}
	r.mutex.Unlock()

	r.compressing.Wait()
	return err
}
