package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/containrrr/shoutrrr"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/Wikid82/logtrackr/internal/config"
	"github.com/Wikid82/logtrackr/internal/ingest"
	"github.com/Wikid82/logtrackr/internal/logger"
	"github.com/Wikid82/logtrackr/internal/models"
)

// Sender delivers message to one shoutrrr URL.
type Sender func(url, message string) error

// NotificationService alerts external channels when an upload brings in
// critical events. Each destination sits behind its own circuit breaker.
type NotificationService struct {
	urls      []string
	threshold int
	send      Sender
	breakers  map[string]*gobreaker.CircuitBreaker[any]
	wg        sync.WaitGroup
}

// NewNotificationService builds a notifier from config. With no URLs it is a no-op.
func NewNotificationService(cfg config.NotifyConfig) *NotificationService {
	return newNotificationService(cfg, shoutrrr.Send)
}

func newNotificationService(cfg config.NotifyConfig, send Sender) *NotificationService {
	threshold := cfg.CriticalThreshold
	if threshold < 1 {
		threshold = 1
	}
	s := &NotificationService{
		urls:      cfg.URLs,
		threshold: threshold,
		send:      send,
		breakers:  make(map[string]*gobreaker.CircuitBreaker[any], len(cfg.URLs)),
	}
	for i, url := range cfg.URLs {
		name := fmt.Sprintf("notify-%d", i)
		s.breakers[url] = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
					Warn("notification circuit breaker changed state")
			},
		})
	}
	return s
}

// Enabled reports whether any destination is configured.
func (s *NotificationService) Enabled() bool {
	return len(s.urls) > 0
}

// NotifyUpload sends an alert in the background when res contains at least
// the configured number of critical records.
func (s *NotificationService) NotifyUpload(actor, filename string, res *ingest.Result) {
	if !s.Enabled() || res == nil {
		return
	}
	critical := res.SeverityCounts[models.SeverityCritical]
	if res.Created == 0 || critical < s.threshold {
		return
	}
	msg := fmt.Sprintf("LogTrackr: %d critical events uploaded\n\n%s uploaded %s: %d records created, %d rows rejected.",
		critical, actor, filename, res.Created, res.Rejected)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Send(msg); err != nil {
			logger.Log().WithError(err).Warn("failed to deliver upload notification")
		}
	}()
}

// Send delivers message to every destination and joins the failures.
func (s *NotificationService) Send(message string) error {
	var failed []string
	for _, url := range s.urls {
		_, err := s.breakers[url].Execute(func() (any, error) {
			return nil, s.send(url, message)
		})
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", redactURL(url), err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("notify: %s", strings.Join(failed, "; "))
	}
	return nil
}

// Wait blocks until background notifications have finished.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

// redactURL keeps only the scheme so tokens embedded in shoutrrr URLs stay out of logs.
func redactURL(url string) string {
	if i := strings.Index(url, "://"); i > 0 {
		return url[:i] + "://<redacted>"
	}
	return "<redacted>"
}
