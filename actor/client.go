/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package actor

import (
	"context"

	"inkwell.dev/typeset/internal/logging"
	"inkwell.dev/typeset/shadow"
)

// Client is the remote handle to the actor: it holds the two sender
// halves and injects memory events and "steal" closures. It never touches
// actor state directly.
type Client struct {
	memoryCh chan<- shadow.MemoryEvent
	stealCh  chan<- func(*Actor)
}

// AddMemoryChanges enqueues a memory event onto the memory channel. The
// channel holds up to 256 events; once that many are queued, the call
// blocks until the actor drains one.
func (c *Client) AddMemoryChanges(event shadow.MemoryEvent) {
	c.memoryCh <- event
}

// Steal runs f inside the actor loop with exclusive access to the actor,
// blocking the caller until the reply arrives. Go's lack of type
// parameters on methods means this is a package-level generic function
// rather than a Client method.
func Steal[T any](c *Client, f func(*Actor) T) T {
	reply := make(chan T, 1)
	c.stealCh <- func(a *Actor) {
		reply <- f(a)
	}
	return <-reply
}

// StealAsync is identical to Steal but returns a channel the caller can
// select on, and honours ctx cancellation: if the reply is never read
// because the caller cancelled, the task still completes and the actor's
// state change (if any) still stands. Only the reply delivery is
// cancelled, logged at warn.
func StealAsync[T any](ctx context.Context, c *Client, f func(*Actor) T) <-chan T {
	reply := make(chan T, 1)
	c.stealCh <- func(a *Actor) {
		result := f(a)
		select {
		case reply <- result:
		default:
		}
		select {
		case <-ctx.Done():
			logging.Warning("compile actor: steal_async reply receiver cancelled; actor state change still applied")
		default:
		}
	}
	return reply
}
