package compiler

import (
	"fmt"

	"mosa/internal/merr"
	"mosa/internal/trace"
)

// Stage is one step of the pipeline (spec.md §4.4: "Each stage exposes
// Initialize()/Run()/Finish()"). Initialize and Finish default to no-ops
// for stages with nothing to set up or tear down; Run does the actual
// mutation.
type Stage interface {
	Name() string
	Initialize(m *Method) error
	Run(m *Method) error
	Finish(m *Method) error
}

// baseStage gives every concrete stage a default Initialize/Finish so
// stage.go's implementations only need to define Run, matching the
// teacher's driver.phase_observer.go pattern of lightweight named steps.
type baseStage struct{ name string }

func (b baseStage) Name() string           { return b.name }
func (baseStage) Initialize(*Method) error { return nil }
func (baseStage) Finish(*Method) error     { return nil }

// Pipeline is the fixed, ordered stage list spec.md §4.4 names. Stages run
// strictly sequentially; a failing stage aborts the method (spec.md §7
// "errors are fatal for that method... do not retry").
type Pipeline struct {
	Stages []Stage
	Tracer trace.Tracer

	// Events, when set, receives one Event per stage transition so a
	// caller can drive a progress display. Modeled on the teacher's
	// buildpipeline.Event/ChannelSink: Compile never blocks if the
	// channel is full-tolerant (buffered) and never closes it, since
	// many methods share one Pipeline concurrently.
	Events chan<- Event
}

// EventStatus is one method's state within a single stage.
type EventStatus int

const (
	StatusQueued EventStatus = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event reports one method's progress through one stage.
type Event struct {
	Method string
	Stage  string
	Status EventStatus
}

func (p *Pipeline) emit(method, stage string, status EventStatus) {
	if p.Events == nil {
		return
	}
	select {
	case p.Events <- Event{Method: method, Stage: stage, Status: status}:
	default:
	}
}

// Compile runs every stage over m in order, stopping at the first error.
// A KindInvariant/KindNotSupported error only fails this method; a
// KindLinker/KindTypeSystem error is global (spec.md §7) and is returned
// to the caller so it can abort the whole build.
func (p *Pipeline) Compile(m *Method) error {
	driverSpan := trace.Begin(p.Tracer, trace.ScopeModule, "compile:"+m.Symbol, 0)
	defer driverSpan.End("")

	for _, stage := range p.Stages {
		if m.HasCompileError {
			break
		}
		p.emit(m.Symbol, stage.Name(), StatusWorking)
		span := trace.Begin(p.Tracer, trace.ScopePass, stage.Name(), driverSpan.ID())
		err := runStage(stage, m)
		span.End(errDetail(err))
		if err != nil {
			if me, ok := err.(*merr.Error); ok {
				m.Fail(me)
				p.emit(m.Symbol, stage.Name(), StatusError)
				if me.Kind.Fatal() {
					return me
				}
				return nil
			}
			m.Fail(merr.Invariant(stage.Name(), m.Symbol, "%v", err))
			p.emit(m.Symbol, stage.Name(), StatusError)
			return nil
		}
	}
	if !m.HasCompileError {
		p.emit(m.Symbol, "", StatusDone)
	}
	return nil
}

func runStage(stage Stage, m *Method) error {
	if err := stage.Initialize(m); err != nil {
		return err
	}
	if err := stage.Run(m); err != nil {
		return err
	}
	return stage.Finish(m)
}

func errDetail(err error) string {
	if err == nil {
		return "ok"
	}
	return fmt.Sprintf("error: %v", err)
}
