package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "cms"

// Config controls which events an Emitter forwards.
type Config struct {
	Enabled bool
	// Channel replaces DefaultChannel for events without one.
	Channel string
	// Verbs limits emission to the listed verbs. Empty forwards every verb.
	Verbs []string
}

// Emitter is the entry point page, revision and template services use to
// publish events. A nil *Emitter is valid and drops everything.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
	verbs   map[string]bool
}

func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	e := &Emitter{channel: strings.TrimSpace(cfg.Channel)}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	for _, hook := range hooks {
		if hook != nil {
			e.hooks = append(e.hooks, hook)
		}
	}
	for _, verb := range cfg.Verbs {
		if verb = strings.TrimSpace(verb); verb != "" {
			if e.verbs == nil {
				e.verbs = map[string]bool{}
			}
			e.verbs[verb] = true
		}
	}
	e.enabled = cfg.Enabled && len(e.hooks) > 0
	return e
}

// Enabled reports whether Emit will reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit applies the default channel and forwards event to the hooks. Events
// whose verb is filtered out are dropped silently.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if e.verbs != nil && !e.verbs[strings.TrimSpace(event.Verb)] {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
