// Package present defines where user-facing output goes. The core emits
// events; rendering, animation and audio belong to whoever implements Sink.
package present

import (
	"time"

	"prize_wheel/internal/domain"

	"github.com/sirupsen/logrus"
)

// SpinEvent tells the presentation layer how to animate a resolved spin.
type SpinEvent struct {
	Index          int           `json:"index"`
	Label          string        `json:"label"`
	Credited       int64         `json:"credited"`
	Jackpot        bool          `json:"jackpot"`
	EmptyJackpot   bool          `json:"empty_jackpot"`
	TargetRotation float64       `json:"target_rotation"`
	Duration       time.Duration `json:"duration"`
}

// Message is user-facing text, optionally closing itself.
type Message struct {
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	AutoClose time.Duration `json:"auto_close,omitempty"`
}

// Sink receives presentation output.
type Sink interface {
	Message(title, body string, autoClose time.Duration)
	Render(record domain.LedgerRecord)
	SpinEvent(event SpinEvent)
}

// Collector buffers output so a request handler can return it in its response.
// It is not safe for concurrent use.
type Collector struct {
	Messages []Message            `json:"messages"`
	Record   *domain.LedgerRecord `json:"record,omitempty"`
	Events   []SpinEvent          `json:"events"`
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{Messages: []Message{}, Events: []SpinEvent{}}
}

func (c *Collector) Message(title, body string, autoClose time.Duration) {
	c.Messages = append(c.Messages, Message{Title: title, Body: body, AutoClose: autoClose})
}

// Render keeps the latest record only.
func (c *Collector) Render(record domain.LedgerRecord) {
	c.Record = &record
}

func (c *Collector) SpinEvent(event SpinEvent) {
	c.Events = append(c.Events, event)
}

// LogSink writes presentation output to a logger; used where no client is attached.
type LogSink struct {
	Log logrus.FieldLogger
}

func (s LogSink) Message(title, body string, _ time.Duration) {
	s.Log.WithField("title", title).Info(body)
}

func (s LogSink) Render(record domain.LedgerRecord) {
	s.Log.WithFields(logrus.Fields{
		"user_id":       record.UserID,
		"balance":       record.Balance,
		"notifications": len(record.Notifications),
	}).Debug("Ledger rendered")
}

func (s LogSink) SpinEvent(event SpinEvent) {
	s.Log.WithFields(logrus.Fields{
		"label":    event.Label,
		"credited": event.Credited,
		"jackpot":  event.Jackpot,
	}).Debug("Spin event")
}

// Discard drops everything.
type Discard struct{}

func (Discard) Message(string, string, time.Duration) {}
func (Discard) Render(domain.LedgerRecord)            {}
func (Discard) SpinEvent(SpinEvent)                   {}
