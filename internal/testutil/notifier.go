package testutil

import (
	"sync"
	"time"

	"invoicely-service/internal/domain/user"
)

// RecordingNotifier captures realtime events instead of pushing them to sockets.
type RecordingNotifier struct {
	mu           sync.Mutex
	PlanChanges  map[string]user.Plan
	ForceLogouts []string
	Invalidated  []string
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{PlanChanges: map[string]user.Plan{}}
}

func (n *RecordingNotifier) NotifyPlanChanged(userID string, plan user.Plan, _ *time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.PlanChanges[userID] = plan
}

func (n *RecordingNotifier) ForceLogout(userID, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ForceLogouts = append(n.ForceLogouts, userID)
}

func (n *RecordingNotifier) StatsInvalidated(reason, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Invalidated = append(n.Invalidated, reason)
}
