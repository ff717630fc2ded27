package movement

import (
	"github.com/gridt-app/gridt/internal/announcement"
	"github.com/gridt-app/gridt/internal/identity"
	"github.com/gridt-app/gridt/internal/signal"
)

// LeaderView is a user projection enriched with the leader's newest
// signal in the movement, when one exists.
type LeaderView struct {
	identity.JSON
	LastSignal *signal.JSON `json:"last_signal,omitempty"`
}

// SubscriberDetails carries the view keys that exist only for viewers
// with an active subscription.
type SubscriberDetails struct {
	LastSignalSent *signal.JSON `json:"last_signal_sent"`
	Leaders        []LeaderView `json:"leaders"`
}

// View is the composed movement projection for a given viewer. The
// subscriber keys are absent entirely, not null, for non-subscribers.
type View struct {
	JSON
	Subscribed       bool               `json:"subscribed"`
	LastAnnouncement *announcement.JSON `json:"last_announcement"`
	*SubscriberDetails
}
