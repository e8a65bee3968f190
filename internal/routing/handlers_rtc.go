package routing

import (
	"context"

	"tabletop/internal/protocol"
)

// handleRTCSignal forwards an opaque signal to one peer. Missing or not yet
// open targets are dropped silently.
func (r *Router) handleRTCSignal(_ context.Context, rc *Context, msg protocol.Message) *Result {
	var p protocol.RTCSignalPayload
	if !r.bind(rc, msg, &p) || p.Target == "" {
		return nil
	}
	r.sendTo(p.Target, protocol.RTCRelay{
		T:      protocol.TypeRTCSignal,
		From:   rc.SenderUID(),
		Signal: p.Signal,
	})
	return nil
}
