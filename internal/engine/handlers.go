package engine

import (
	"context"
	"errors"

	"github.com/roach88/stepfield/internal/canvas"
	"github.com/roach88/stepfield/internal/generator"
	"github.com/roach88/stepfield/internal/geom"
)

func (e *Engine) isStartTrigger(el canvas.Element) bool {
	return !el.IsLabel() && e.classify.IsStartTrigger(el)
}

func (e *Engine) isSound(el canvas.Element) bool {
	return !el.IsLabel() && e.classify.IsSoundProducing(el)
}

func (e *Engine) onClockStart(ctx context.Context, ev ClockStart) error {
	if ev.NumSteps <= 0 {
		return &RuntimeError{Code: ErrCodeInvalidEvent, Message: "clock-start needs a positive step count"}
	}
	e.numSteps = ev.NumSteps
	e.record(ctx, OpNumSteps, "", "", "", ev.NumSteps)
	e.logger.Info("clock started", "num_steps", ev.NumSteps)
	return nil
}

func (e *Engine) onElementCreated(ctx context.Context, ev ElementCreated) error {
	el, ok := e.index.Get(ev.Element.ID)
	if !ok {
		e.logger.Debug("created element no longer on canvas", "element", ev.Element.ID)
		return nil
	}

	// A classifier may report an element as both kinds.
	var errs []error
	if e.isStartTrigger(el) {
		errs = append(errs, e.adoptTrigger(ctx, el))
	}
	if e.isSound(el) {
		errs = append(errs, e.placeSound(ctx, el, false))
	}
	return errors.Join(errs...)
}

// adoptTrigger gets or creates the generator owned by el and registers
// every sound already in its range.
func (e *Engine) adoptTrigger(ctx context.Context, el canvas.Element) error {
	g, ok := e.dir.Get(el.ID)
	if !ok {
		g = generator.New(el.ID, e.numSteps, e.subdivision, e.maxRange)
		if err := e.dir.Add(g); err != nil {
			return newInvariantError(el.ID, err)
		}
		e.record(ctx, OpGeneratorAdd, g.ID, "", "", g.Subdivision())
		e.logger.Info("generator created",
			"generator", g.ID,
			"num_steps", g.StepCount(),
			"subdivision", g.Subdivision(),
		)
	}
	return e.sweep(ctx, g, el.Position, false)
}

// sweep reconciles every sound on the canvas against g placed at origin.
func (e *Engine) sweep(ctx context.Context, g *generator.Generator, origin geom.Point, prune bool) error {
	var errs []error
	for _, s := range e.index.Filter(e.isSound) {
		if err := e.reconcile(ctx, g, origin, s, prune); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// placeSound reconciles el against every generator whose position is known.
func (e *Engine) placeSound(ctx context.Context, el canvas.Element, prune bool) error {
	var errs []error
	for _, g := range e.dir.All() {
		origin, ok := e.index.Position(g.ID)
		if !ok {
			e.logger.Debug("generator shape not on canvas", "generator", g.ID)
			continue
		}
		if err := e.reconcile(ctx, g, origin, el, prune); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reconcile brings one (generator, element) pair in line with the current
// geometry. In range: the element sits on its computed step and a connector
// exists. Out of range with prune: connectors are erased and the element is
// unregistered. Out of range without prune: nothing happens.
func (e *Engine) reconcile(ctx context.Context, g *generator.Generator, origin geom.Point, el canvas.Element, prune bool) error {
	step, ok := g.CalculateStepNumber(origin, el.Position)
	if !ok {
		if !prune {
			return nil
		}
		return e.release(ctx, g, el.ID)
	}

	if cur, had := g.GetStepNumFromSound(el.ID); !had || cur != step {
		if err := g.UpdateElement(step, el.ID); err != nil {
			return newInvariantError(g.ID, err)
		}
		e.touch(g.ID)
		e.record(ctx, OpRegister, g.ID, el.ID, "", step)
	}
	return e.connectOnce(ctx, g.ID, el.ID)
}

// release erases the connectors from g to element and unregisters it.
func (e *Engine) release(ctx context.Context, g *generator.Generator, element string) error {
	err := e.disconnectAll(ctx, g.ID, element)
	if step, had := g.GetStepNumFromSound(element); had {
		g.RemoveElement(element)
		e.touch(g.ID)
		e.record(ctx, OpUnregister, g.ID, element, "", step)
	}
	return err
}

func (e *Engine) connectOnce(ctx context.Context, generatorID, element string) error {
	if len(e.conns.Between(generatorID, element)) > 0 {
		return nil
	}
	id, err := e.conns.Connect(generatorID, element)
	if err != nil {
		if errors.Is(err, canvas.ErrUnknownElement) {
			e.logger.Debug("connect skipped: endpoint gone",
				"generator", generatorID,
				"element", element,
			)
			return nil
		}
		return newHostError(generatorID, element, err)
	}
	e.record(ctx, OpConnect, generatorID, element, id, 0)
	return nil
}

func (e *Engine) disconnectAll(ctx context.Context, generatorID, element string) error {
	var errs []error
	for _, id := range e.conns.Between(generatorID, element) {
		if err := e.conns.Disconnect(id); err != nil {
			if errors.Is(err, canvas.ErrUnknownConnection) {
				continue
			}
			errs = append(errs, newHostError(generatorID, element, err))
			continue
		}
		e.record(ctx, OpDisconnect, generatorID, element, id, 0)
	}
	return errors.Join(errs...)
}

func (e *Engine) onElementRemoved(ctx context.Context, ev ElementRemoved) error {
	el := ev.Element

	if e.isStartTrigger(el) {
		if e.dir.Remove(el.ID) {
			e.record(ctx, OpGeneratorRemove, el.ID, "", "", 0)
			e.logger.Info("generator removed", "generator", el.ID)
		} else {
			e.logger.Debug("removed trigger had no generator", "generator", el.ID)
		}
	}

	if e.isSound(el) {
		for _, g := range e.dir.All() {
			step, ok := g.GetStepNumFromSound(el.ID)
			if !ok {
				continue
			}
			g.RemoveSound(step, el.ID)
			e.touch(g.ID)
			e.record(ctx, OpUnregister, g.ID, el.ID, "", step)
		}
	}
	return nil
}

func (e *Engine) onElementMoved(ctx context.Context, ev ElementMoved) error {
	el, ok := e.index.Get(ev.Element.ID)
	if !ok {
		e.logger.Debug("moved element no longer on canvas", "element", ev.Element.ID)
		return nil
	}

	var errs []error
	if e.isSound(el) {
		errs = append(errs, e.placeSound(ctx, el, true))
	}
	if e.isStartTrigger(el) {
		if g, ok := e.dir.Get(el.ID); ok {
			errs = append(errs, e.sweep(ctx, g, el.Position, true))
		} else {
			e.logger.Debug("moved trigger has no generator", "generator", el.ID)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) onAttributesChanged(ctx context.Context, ev AttributesChanged) error {
	var errs []error
	for _, changed := range ev.Elements {
		el, ok := e.index.Get(changed.ID)
		if !ok || !e.isStartTrigger(el) {
			continue
		}
		g, ok := e.dir.Get(el.ID)
		if !ok {
			e.logger.Debug("attribute change for trigger without generator", "generator", el.ID)
			continue
		}

		sub := el.Subdivision
		if sub <= 0 {
			sub = e.subdivision
		}
		if sub == g.Subdivision() {
			continue
		}
		if err := e.resubdivide(ctx, g, sub); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// resubdivide re-quantizes g under a new subdivision. Elements that fall
// out of range are disconnected just as if they had been moved away.
func (e *Engine) resubdivide(ctx context.Context, g *generator.Generator, sub int) error {
	from := g.Subdivision()
	prev := make(map[string]int, g.Len())
	for _, step := range g.Steps() {
		for _, el := range g.Occupants(step) {
			prev[el] = step
		}
	}

	dropped, err := g.UpdateSubdivision(sub, e.index)
	e.touch(g.ID)
	if err != nil {
		return newInvariantError(g.ID, err)
	}
	e.record(ctx, OpSubdivision, g.ID, "", "", sub)

	for _, step := range g.Steps() {
		for _, el := range g.Occupants(step) {
			e.record(ctx, OpRegister, g.ID, el, "", step)
		}
	}

	var errs []error
	for _, el := range dropped {
		e.record(ctx, OpUnregister, g.ID, el, "", prev[el])
		if err := e.disconnectAll(ctx, g.ID, el); err != nil {
			errs = append(errs, err)
		}
	}

	e.logger.Info("generator resubdivided",
		"generator", g.ID,
		"from", from,
		"to", sub,
		"dropped", len(dropped),
	)
	return errors.Join(errs...)
}
