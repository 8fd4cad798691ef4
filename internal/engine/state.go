package engine

import (
	"sync"

	"github.com/genricoloni/synremote/internal/domain"
	"github.com/samber/lo"
)

// RemoteState is the read-only view of the remote control exposed to the UI
type RemoteState struct {
	Target *domain.TargetSession
	// Playback is the reconciled state of the target, nil until the first poll
	Playback        *domain.DisplayState
	Sessions        []domain.TargetSession
	IsLoading       bool
	ErrorMessage    string
	SessionNotFound bool
}

// State returns the current remote state
func (e *Engine) State() RemoteState {
	var state RemoteState

	if target, ok := e.selector.Target(); ok {
		state.Target = &target
		if display, ok := e.reconciler.Display(); ok {
			state.Playback = &display
		}
	}
	state.Sessions = e.selector.Sessions()

	e.mu.Lock()
	state.IsLoading = e.loading
	state.SessionNotFound = e.notFound && state.Target != nil
	state.ErrorMessage, _ = lo.Coalesce(e.commandErr, e.pollErr, e.listErr)
	e.mu.Unlock()

	return state
}

// Subscribe registers fn to receive the full state after every change.
// fn is called synchronously by whichever goroutine caused the change and
// must neither block nor call back into the engine.
func (e *Engine) Subscribe(fn func(RemoteState)) func() {
	e.subMu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	e.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.subMu.Lock()
			delete(e.subscribers, id)
			e.subMu.Unlock()
		})
	}
}

// publish delivers a fresh state to every subscriber. Building and delivery
// happen under publishMu so subscribers never see states out of order.
func (e *Engine) publish() {
	e.publishMu.Lock()
	defer e.publishMu.Unlock()

	e.subMu.Lock()
	subs := lo.Values(e.subscribers)
	e.subMu.Unlock()
	if len(subs) == 0 {
		return
	}

	state := e.State()
	for _, fn := range subs {
		fn(state)
	}
}
