package batch

import (
	"sync"

	"github.com/rs/zerolog"
)

type logLine struct {
	level zerolog.Level
	p     []byte
}

// LogSink funnels the log records of every goroutine of a run through one channel to one consumer,
// which is the only writer of the real outputs. Closing the channel ends the consumer.
type LogSink struct {
	out  zerolog.LevelWriter
	ch   chan logLine
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewLogSink(out zerolog.LevelWriter, buffer int) *LogSink {
	s := &LogSink{
		out:  out,
		ch:   make(chan logLine, buffer),
		done: make(chan struct{}),
	}
	go s.consume()
	return s
}

func (s *LogSink) consume() {
	defer close(s.done)
	for line := range s.ch {
		s.out.WriteLevel(line.level, line.p)
	}
}

func (s *LogSink) Write(p []byte) (int, error) {
	return s.WriteLevel(zerolog.NoLevel, p)
}

// WriteLevel queues one encoded record. Records written after Close are dropped.
func (s *LogSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	// zerolog reuses p once we return
	line := logLine{level: level, p: append([]byte(nil), p...)}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return len(p), nil
	}
	s.ch <- line
	return len(p), nil
}

// Close stops accepting records and waits until the consumer has written everything queued
func (s *LogSink) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
	<-s.done
}

// Done is closed once the consumer has exited
func (s *LogSink) Done() <-chan struct{} {
	return s.done
}
