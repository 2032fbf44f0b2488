package application

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const MaxAdTextLength = 5000

// AdMetrics records the outcome of improve calls. Implemented by observability.Prom.
type AdMetrics interface {
	ObserveAdImprove(outcome string, d time.Duration)
}

type AdCopyService struct {
	Improver AdImprover
	Timeout  time.Duration
	Logger   *logrus.Logger
	Metrics  AdMetrics
}

func (s *AdCopyService) Improve(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyAdText
	}
	if utf8.RuneCountInString(text) > MaxAdTextLength {
		return "", ErrAdTextTooLong
	}
	if s.Improver == nil {
		return "", ErrAIUnavailable
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := s.Improver.Improve(ctx, text)
	outcome := "ok"
	if err == nil && strings.TrimSpace(out) == "" {
		err = errEmptyCompletion
	}
	if err != nil {
		outcome = "error"
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("chars", utf8.RuneCountInString(text)).Error("ad improvement failed")
		}
	}
	if s.Metrics != nil {
		s.Metrics.ObserveAdImprove(outcome, time.Since(start))
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
