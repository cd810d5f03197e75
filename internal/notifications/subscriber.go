package notifications

import (
	"fmt"

	"github.com/borsetrader/rotation-backend/internal/signal"
)

// Subscriber renders bus events as webhook messages. Register with
// bus.Subscribe(sub.Handle).
type Subscriber struct {
	sender *Sender
}

func NewSubscriber(sender *Sender) *Subscriber {
	return &Subscriber{sender: sender}
}

func (s *Subscriber) Handle(ev signal.Event) {
	switch ev.Type {
	case signal.EventNewSignal:
		rec := ev.Recommendation
		if rec == nil {
			return
		}
		s.sender.Send(fmt.Sprintf(
			"ROTATION SIGNAL: %s -> %s | delta %.2f%% | potential %.2f EUR, net %.2f EUR | confidence %.0f%%",
			rec.FromETF, rec.ToETF, rec.Delta, rec.PotentialGain, rec.NetGain, rec.Confidence))

	case signal.EventTradeExecuted:
		s.sender.Send(fmt.Sprintf("Trade executed: %s", ev.Message))

	case signal.EventRefreshCompleted:
		if ev.Succeeded < ev.Total {
			s.sender.Send(fmt.Sprintf("Quote refresh completed with %d/%d successes", ev.Succeeded, ev.Total))
		}

	case signal.EventError:
		s.sender.Send(fmt.Sprintf("Error [%s]: %v", ev.Code, ev.Err))
	}
}
