// Package schedule turns cron rules into job requests for the frame loop.
package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/framesync/internal/config"
	"github.com/raoulx24/framesync/internal/logging"
	"github.com/raoulx24/framesync/internal/mailbox"
)

// Request asks the frame loop to start a job.
type Request struct {
	Rule   string
	Kind   string
	Target string
	At     time.Time
}

// Entry describes a registered rule.
type Entry struct {
	Rule config.ScheduleRule
	Next time.Time
}

type entry struct {
	id   cron.EntryID
	rule config.ScheduleRule
}

// Scheduler fires cron rules. Each job kind has its own latest-wins slot:
// a request not yet drained is replaced by a newer one of the same kind.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]entry
	boxes   map[string]*mailbox.Mailbox[Request]

	log logging.Logger
	now func() time.Time
}

// New creates a scheduler with the given rules registered. It does not
// start firing until Start.
func New(rules []config.ScheduleRule, log logging.Logger) (*Scheduler, error) {
	if log == nil {
		log = logging.Null()
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(cronLogger{log: log})),
		entries: make(map[string]entry),
		boxes: map[string]*mailbox.Mailbox[Request]{
			config.KindImport: mailbox.New[Request](),
			config.KindScene:  mailbox.New[Request](),
		},
		log: log,
		now: time.Now,
	}

	if err := s.UpdateConfig(rules); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins firing rules in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("schedule: started", "rules", len(s.Entries()))
}

// Stop stops firing and waits for running callbacks.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("schedule: stopped")
}

// UpdateConfig replaces the registered rules for hot-reload. On error the
// previous rules stay registered.
func (s *Scheduler) UpdateConfig(rules []config.ScheduleRule) error {
	parsed := make([]cron.Schedule, len(rules))
	for i, rule := range rules {
		if _, ok := s.boxes[rule.Kind]; !ok {
			return fmt.Errorf("schedule: rule %s: unknown kind %q", rule.Name, rule.Kind)
		}
		sched, err := cron.ParseStandard(rule.Cron)
		if err != nil {
			return fmt.Errorf("schedule: rule %s: %w", rule.Name, err)
		}
		parsed[i] = sched
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for name, e := range s.entries {
		s.cron.Remove(e.id)
		delete(s.entries, name)
	}

	for i, rule := range rules {
		rule := rule
		id := s.cron.Schedule(parsed[i], cron.FuncJob(func() { s.fire(rule) }))
		s.entries[rule.Name] = entry{id: id, rule: rule}
	}
	return nil
}

// Trigger fires a rule by name outside its schedule.
func (s *Scheduler) Trigger(name string) bool {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.fire(e.rule)
	return true
}

// Next returns the pending request of the given kind, if any.
func (s *Scheduler) Next(kind string) (Request, bool) {
	mb, ok := s.boxes[kind]
	if !ok {
		return Request{}, false
	}
	return mb.TryTake()
}

// Entries lists the registered rules with their next activation.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, Entry{Rule: e.rule, Next: s.cron.Entry(e.id).Next})
	}
	return out
}

func (s *Scheduler) fire(rule config.ScheduleRule) {
	req := Request{Rule: rule.Name, Kind: rule.Kind, Target: rule.Target, At: s.now()}

	mb := s.boxes[rule.Kind]
	if mb.Pending() {
		s.log.Debug("schedule: replacing undrained request", "kind", rule.Kind, "rule", rule.Name)
	}
	mb.Put(req)

	s.log.Info("schedule: fired", "rule", rule.Name, "kind", rule.Kind, "target", rule.Target)
}

// cronLogger routes cron's own logging into ours.
type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
