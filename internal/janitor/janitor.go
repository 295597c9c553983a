// Package janitor removes stale download artifacts on a cron schedule.
package janitor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Janitor struct {
	dir    string
	maxAge time.Duration
	log    logrus.FieldLogger
	cron   *cron.Cron
	now    func() time.Time
}

// New schedules a sweep of dir. schedule uses the six-field cron syntax
// (seconds first).
func New(dir, schedule string, maxAge time.Duration, log logrus.FieldLogger) (*Janitor, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("janitor max age must be positive, got %s", maxAge)
	}
	j := &Janitor{
		dir:    dir,
		maxAge: maxAge,
		log:    log.WithField("component", "janitor"),
		now:    time.Now,
	}
	j.cron = cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(j.log))),
	)
	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("failed to add janitor job %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.log.WithFields(logrus.Fields{"dir": j.dir, "max_age": j.maxAge}).Info("janitor started")
	j.cron.Start()
}

// Stop waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	j.log.Info("janitor stopped")
}

func (j *Janitor) run() {
	removed, err := Sweep(j.dir, j.maxAge, j.now())
	entry := j.log.WithField("removed", removed)
	if err != nil {
		entry.WithError(err).Warn("sweep finished with errors")
		return
	}
	if removed > 0 {
		entry.Info("sweep removed stale entries")
	}
}

// Sweep deletes the direct children of dir last modified more than maxAge
// before now. A missing dir is not an error.
func Sweep(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := now.Add(-maxAge)
	removed := 0
	var firstErr error
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}
