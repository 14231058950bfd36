// Package journal keeps a bounded history of executed motion commands in
// storm. Queue contents are never stored.
package journal

import (
	"sync"
	"time"

	"github.com/CodedInternet/gocrawler/onboard/motion"
	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/q"
)

const DEFAULT_KEEP = 200

// Entry is one executed command.
type Entry struct {
	Pk         int       `storm:"id,increment" json:"seq"`
	CommandID  string    `storm:"unique" json:"id"`
	Cmd        string    `storm:"index" json:"cmd"`
	Steps      int       `json:"steps"`
	Hold       bool      `json:"hold"`
	StepsDone  int       `json:"stepsDone"`
	Aborted    bool      `json:"aborted"`
	Error      string    `json:"error,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

func entryFrom(exec motion.Execution) Entry {
	return Entry{
		CommandID:  exec.Command.ID.String(),
		Cmd:        string(exec.Command.Kind),
		Steps:      exec.Command.Steps,
		Hold:       exec.Command.Hold,
		StepsDone:  exec.StepsDone,
		Aborted:    exec.Aborted,
		Error:      exec.Error,
		EnqueuedAt: exec.Command.EnqueuedAt,
		StartedAt:  exec.StartedAt,
		FinishedAt: exec.FinishedAt,
	}
}

// Journal implements motion.Recorder.
type Journal struct {
	Keep int

	db   *storm.DB
	lock sync.Mutex
}

func New(db *storm.DB) (j *Journal, err error) {
	if err = db.Init(&Entry{}); err != nil {
		return nil, err
	}
	return &Journal{Keep: DEFAULT_KEEP, db: db}, nil
}

// Record saves exec and drops anything older than the newest Keep entries.
func (j *Journal) Record(exec motion.Execution) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	entry := entryFrom(exec)
	if err := j.db.Save(&entry); err != nil {
		return err
	}

	if j.Keep <= 0 {
		return nil
	}
	cutoff := entry.Pk - j.Keep
	if cutoff <= 0 {
		return nil
	}

	err := j.db.Select(q.Lte("Pk", cutoff)).Delete(new(Entry))
	if err == storm.ErrNotFound {
		return nil
	}
	return err
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) (entries []Entry, err error) {
	entries = make([]Entry, 0)
	if limit <= 0 {
		return entries, nil
	}
	err = j.db.All(&entries, storm.Limit(limit), storm.Reverse())
	return
}

func (j *Journal) Get(commandID string) (entry Entry, err error) {
	err = j.db.One("CommandID", commandID, &entry)
	return
}

func (j *Journal) Count() (int, error) {
	return j.db.Count(&Entry{})
}
