package domain

import "errors"

var (
	// ErrNoQuorum is returned by leader election when no agent has
	// heartbeated within the liveness window. Fatal to that election
	// call only; callers retry later.
	ErrNoQuorum = errors.New("no live agents for leader election")

	// ErrNoCapacity is returned by allocation when no active agent is
	// under the resource threshold. Recoverable: triggers the
	// offload-then-queue path.
	ErrNoCapacity = errors.New("no agent with available capacity")

	// ErrUnknownAgent is returned for operations addressing an agent id
	// that was never registered.
	ErrUnknownAgent = errors.New("unknown agent")
)
