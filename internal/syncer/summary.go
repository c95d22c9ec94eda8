package syncer

import (
	"github.com/mrlokans/papersync/internal/entities"
)

// Summary counts the outcomes of a finished pass.
type Summary struct {
	Created int
	Skipped int
	Failed  int
	Aborted bool
	Err     string
}

func (s *Summary) Add(ev entities.SyncEvent) {
	switch {
	case ev.Kind == entities.EventKindPassAborted:
		s.Aborted = true
	case ev.Kind == entities.EventKindPassFailed:
		s.Err = ev.Detail
	case ev.Status == entities.EventCreated:
		s.Created++
	case ev.Status == entities.EventSkipped:
		s.Skipped++
	case ev.Status == entities.EventError:
		s.Failed++
	}
}

// Status maps the summary onto a run status.
func (s Summary) Status() entities.SyncStatus {
	switch {
	case s.Err != "":
		return entities.SyncStatusFailed
	case s.Aborted:
		return entities.SyncStatusAborted
	}
	return entities.SyncStatusCompleted
}

// Drain consumes events until the pass ends, handing each one to fn when it
// is not nil.
func Drain(events <-chan entities.SyncEvent, fn func(entities.SyncEvent)) Summary {
	var s Summary
	for ev := range events {
		s.Add(ev)
		if fn != nil {
			fn(ev)
		}
	}
	return s
}
