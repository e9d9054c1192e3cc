package chat

import "go.uber.org/zap"

// DeliveryReport summarizes one publish: how many members got the frame and
// which ones failed and were removed. Callers that only want best-effort
// delivery may ignore it.
type DeliveryReport struct {
	Delivered int
	Removed   []Member
}

// BroadcastEngine delivers one frame to every current member of a room. It
// only ever reads membership snapshots; removal of dead members goes back
// through the registry.
type BroadcastEngine struct {
	registry *RoomRegistry
}

func NewBroadcastEngine(registry *RoomRegistry) *BroadcastEngine {
	return &BroadcastEngine{registry: registry}
}

// Publish sends the frame to each member of the room. The room's send guard
// is held for the whole pass so two publishes to the same room cannot
// interleave partial writes; publishes to different rooms proceed
// independently. A member whose send fails never aborts the pass: it is
// recorded, and after the guard is released it is removed from the room and
// its transport closed.
func (e *BroadcastEngine) Publish(roomID string, frame any) DeliveryReport {
	r := e.registry.entry(roomID)
	if r == nil {
		return DeliveryReport{}
	}

	r.sendMu.Lock()
	members := e.registry.membersOf(r)

	var report DeliveryReport
	for _, m := range members {
		if err := m.Send(frame); err != nil {
			zap.L().Debug("broadcast.send_failed",
				zap.String("room", roomID),
				zap.String("peer", m.Identity()),
				zap.Error(err))
			report.Removed = append(report.Removed, m)
			continue
		}
		report.Delivered++
	}
	r.sendMu.Unlock()

	// Reap outside the send guard.
	for _, m := range report.Removed {
		e.registry.Leave(roomID, m)
		m.Close()
	}
	return report
}
