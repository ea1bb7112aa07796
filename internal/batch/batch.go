// Package batch analyses many files concurrently and collects their results.
package batch

import (
	"context"
	"errors"
	"math"
	"os"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmharper/deskew"
	"github.com/bmharper/deskew/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrNoInputs = errors.New("no input files")

type State int32

const (
	Idle State = iota
	Running
	Draining
	Done
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Done:
		return "done"
	}
	return "aborted"
}

type Analyzer func(ctx context.Context, u deskew.Unit, params *deskew.Params) (deskew.Result, error)

type Options struct {
	Workers  int           // Defaults to the number of CPUs
	Grace    time.Duration // How long to wait for in-flight units after cancellation. Defaults to 2s.
	Params   *deskew.Params
	Progress func(done, total int, r deskew.Result) // Called from the controller, in completion order
	Metrics  *metrics.Recorder

	Output   zerolog.LevelWriter // Receives every log record of the run. Defaults to stderr.
	LogLevel zerolog.Level

	Analyze   Analyzer                                 // Defaults to deskew.AnalyzeUnit
	ListUnits func(path string) ([]deskew.Unit, error) // Defaults to deskew.ListUnits
}

// Outcome of a run. Results is in enumeration order, and is nil when the run was aborted.
type Outcome struct {
	State   State
	RunID   string
	Units   int
	Results []deskew.Result
	LogDone <-chan struct{} // Closed once the run's log consumer has exited
}

// ResultWriter persists results, eg a report.Writer
type ResultWriter interface {
	WriteAll(results []deskew.Result) error
}

// Persist writes the results of a finished run. An aborted run writes nothing.
func (out Outcome) Persist(w ResultWriter) error {
	if out.State != Done {
		return nil
	}
	return w.WriteAll(out.Results)
}

type Orchestrator struct {
	opts  Options
	state atomic.Int32
}

func New(opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Grace <= 0 {
		opts.Grace = 2 * time.Second
	}
	if opts.Params == nil {
		opts.Params = deskew.NewParams()
	}
	if opts.Output == nil {
		opts.Output = zerolog.LevelWriterAdapter{Writer: os.Stderr}
	}
	if opts.Analyze == nil {
		opts.Analyze = deskew.AnalyzeUnit
	}
	if opts.ListUnits == nil {
		opts.ListUnits = deskew.ListUnits
	}
	return &Orchestrator{opts: opts}
}

func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) setState(log zerolog.Logger, s State) {
	o.state.Store(int32(s))
	log.Debug().Str("state", s.String()).Msg("state")
}

type completed struct {
	index  int
	result deskew.Result
}

// Run analyses every unit of paths.
// Cancelling ctx aborts the run: dispatch stops, in-flight units get the grace period to notice,
// and no results are returned. The log sink is flushed and closed before Run returns.
func (o *Orchestrator) Run(ctx context.Context, paths []string) (Outcome, error) {
	out := Outcome{RunID: uuid.NewString()}
	sink := NewLogSink(o.opts.Output, 1024)
	defer sink.Close()
	out.LogDone = sink.Done()
	log := zerolog.New(sink).Level(o.opts.LogLevel).With().Timestamp().Str("run_id", out.RunID).Logger()
	params := o.opts.Params.WithLogger(log)

	units := []deskew.Unit{}
	for _, p := range paths {
		list, err := o.opts.ListUnits(p)
		if err != nil {
			log.Warn().Err(err).Str("file", p).Msg("skipping")
			continue
		}
		units = append(units, list...)
	}
	out.Units = len(units)
	if len(units) == 0 {
		return out, ErrNoInputs
	}
	o.setState(log, Running)
	log.Info().Int("files", len(paths)).Int("units", len(units)).Int("workers", o.opts.Workers).Msg("starting")

	type job struct {
		index int
		unit  deskew.Unit
	}
	jobs := make(chan job)
	// Buffered to the unit count, so that workers abandoned after the grace period never block
	results := make(chan completed, len(units))

	go func() {
		defer close(jobs)
		for i, u := range units {
			if ctx.Err() != nil {
				return
			}
			select {
			case jobs <- job{i, u}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range o.opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- completed{j.index, o.runUnit(ctx, params, j.unit)}
			}
		}()
	}
	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	ordered := make([]deskew.Result, len(units))
	for done := 0; done < len(units); {
		if ctx.Err() != nil {
			return o.abort(log, out, finished, done, len(units))
		}
		select {
		case c := <-results:
			done++
			ordered[c.index] = c.result
			if o.opts.Progress != nil {
				o.opts.Progress(done, len(units), c.result)
			}
		case <-ctx.Done():
			return o.abort(log, out, finished, done, len(units))
		}
	}
	<-finished

	o.setState(log, Done)
	out.State = Done
	out.Results = ordered
	o.observeRun(Done)
	log.Info().Int("units", len(units)).Msg("run finished")
	return out, nil
}

func (o *Orchestrator) abort(log zerolog.Logger, out Outcome, finished <-chan struct{}, done, total int) (Outcome, error) {
	o.drain(log, finished)
	out.State = Aborted
	o.observeRun(Aborted)
	log.Warn().Int("completed", done).Int("units", total).Msg("run aborted")
	return out, nil
}

func (o *Orchestrator) drain(log zerolog.Logger, finished <-chan struct{}) {
	o.setState(log, Draining)
	timer := time.NewTimer(o.opts.Grace)
	defer timer.Stop()
	select {
	case <-finished:
	case <-timer.C:
		log.Warn().Dur("grace", o.opts.Grace).Msg("abandoning workers that are still busy")
	}
	o.setState(log, Aborted)
}

func (o *Orchestrator) observeRun(s State) {
	if o.opts.Metrics != nil {
		o.opts.Metrics.ObserveRun(s.String())
	}
}

// runUnit analyses one unit. Errors and panics are logged and turn the unit into a failed result.
func (o *Orchestrator) runUnit(ctx context.Context, params *deskew.Params, u deskew.Unit) (res deskew.Result) {
	start := time.Now()
	log := params.Log.With().Str("unit", u.String()).Logger()
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Bytes("stack", debug.Stack()).Msg("analysis crashed")
			res = failed(u)
		}
		if o.opts.Metrics != nil {
			angle, ok := res.Angle.Get()
			o.opts.Metrics.ObserveUnit(string(res.Method), time.Since(start), math.Abs(angle), ok)
		}
	}()

	res, err := o.opts.Analyze(ctx, u, params.WithLogger(log))
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("analysis failed")
		}
		return failed(u)
	}
	log.Info().Str("method", string(res.Method)).Str("angle", res.Angle.String()).Msg("analysed")
	return res
}

func failed(u deskew.Unit) deskew.Result {
	return deskew.Result{Path: u.Path, Page: u.Page, Method: deskew.MethodFailed}
}
