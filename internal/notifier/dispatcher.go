package notifier

import (
	"context"
	"sync"

	"github.com/lab007/webalert/internal/models"

	"github.com/rs/zerolog"
)

// ChannelNotifier is what the dispatcher fans out through: a Notifier that
// names the delivery channel it serves.
type ChannelNotifier interface {
	Notifier
	Channel
}

// channelNotifier pairs a Notifier with the channel it serves.
type channelNotifier struct {
	channel  models.DeliveryChannel
	notifier Notifier
}

// DeliveryMarker is the slice of the store the dispatcher needs: recording
// that a change reached at least one subscriber on a channel.
type DeliveryMarker interface {
	MarkDelivered(ctx context.Context, recordID int64, channel models.DeliveryChannel) error
}

// Dispatcher fans notifications out to subscribers. Every subscriber-channel
// pair is an independent, concurrent, best-effort delivery: one failure never
// blocks or cancels the others, and there is no retry.
type Dispatcher struct {
	notifiers []channelNotifier
	store     DeliveryMarker
	logger    zerolog.Logger
}

// NewDispatcher creates a Dispatcher over the given notifiers, each serving
// the channel it reports.
func NewDispatcher(store DeliveryMarker, logger zerolog.Logger, notifiers ...ChannelNotifier) *Dispatcher {
	d := &Dispatcher{
		store:  store,
		logger: logger.With().Str("component", "Dispatcher").Logger(),
	}
	for _, n := range notifiers {
		d.notifiers = append(d.notifiers, channelNotifier{n.Channel(), n})
	}
	return d
}

// channelsFor returns the notifiers applicable to one subscriber: email
// always, SMS only when a phone number is on file.
func (d *Dispatcher) channelsFor(sub models.Subscriber) []channelNotifier {
	applicable := make([]channelNotifier, 0, len(d.notifiers))
	for _, cn := range d.notifiers {
		if cn.channel == models.ChannelSMS && !sub.HasPhone() {
			continue
		}
		applicable = append(applicable, cn)
	}
	return applicable
}

// fanOut runs one send function per subscriber-channel pair concurrently and
// collects every outcome before returning.
func (d *Dispatcher) fanOut(subs []models.Subscriber, send func(models.Subscriber, channelNotifier) error) []models.DeliveryOutcome {
	var wg sync.WaitGroup
	results := make(chan models.DeliveryOutcome, len(subs)*len(d.notifiers))

	for _, sub := range subs {
		for _, cn := range d.channelsFor(sub) {
			wg.Add(1)
			go func(sub models.Subscriber, cn channelNotifier) {
				defer wg.Done()
				err := send(sub, cn)
				results <- models.DeliveryOutcome{
					SubscriberID: sub.ID,
					Channel:      cn.channel,
					Err:          err,
				}
			}(sub, cn)
		}
	}

	wg.Wait()
	close(results)

	outcomes := make([]models.DeliveryOutcome, 0, len(subs)*len(d.notifiers))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// DispatchChange fans a change alert out to the eligible subscribers and
// records, per channel, whether at least one delivery succeeded. The returned
// outcomes cover every attempted subscriber-channel pair.
func (d *Dispatcher) DispatchChange(ctx context.Context, subs []models.Subscriber, event models.ChangeEvent) []models.DeliveryOutcome {
	outcomes := d.fanOut(subs, func(sub models.Subscriber, cn channelNotifier) error {
		return cn.notifier.SendChangeAlert(ctx, sub, event)
	})

	delivered := make(map[models.DeliveryChannel]bool)
	for _, outcome := range outcomes {
		if outcome.Success() {
			delivered[outcome.Channel] = true
			continue
		}
		d.logger.Warn().
			Err(outcome.Err).
			Int64("subscriber_id", outcome.SubscriberID).
			Str("channel", string(outcome.Channel)).
			Int64("record_id", event.RecordID).
			Msg("Change alert delivery failed")
	}

	for channel := range delivered {
		if err := d.store.MarkDelivered(ctx, event.RecordID, channel); err != nil {
			d.logger.Error().Err(err).
				Int64("record_id", event.RecordID).
				Str("channel", string(channel)).
				Msg("Failed to mark change delivery")
		}
	}
	return outcomes
}

// DispatchSummary fans the end-of-monitoring report out to the given
// subscribers (all subscribers ever, per retirement semantics).
func (d *Dispatcher) DispatchSummary(ctx context.Context, subs []models.Subscriber, event models.SummaryEvent) []models.DeliveryOutcome {
	outcomes := d.fanOut(subs, func(sub models.Subscriber, cn channelNotifier) error {
		return cn.notifier.SendSummary(ctx, sub, event)
	})
	for _, outcome := range outcomes {
		if !outcome.Success() {
			d.logger.Warn().
				Err(outcome.Err).
				Int64("subscriber_id", outcome.SubscriberID).
				Str("channel", string(outcome.Channel)).
				Msg("Summary delivery failed")
		}
	}
	return outcomes
}

// SendWelcome delivers the subscription confirmation to one subscriber on
// every applicable channel. Best effort; failures are logged only.
func (d *Dispatcher) SendWelcome(ctx context.Context, sub models.Subscriber, event models.WelcomeEvent) []models.DeliveryOutcome {
	outcomes := d.fanOut([]models.Subscriber{sub}, func(sub models.Subscriber, cn channelNotifier) error {
		return cn.notifier.SendWelcome(ctx, sub, event)
	})
	for _, outcome := range outcomes {
		if !outcome.Success() {
			d.logger.Warn().
				Err(outcome.Err).
				Int64("subscriber_id", outcome.SubscriberID).
				Str("channel", string(outcome.Channel)).
				Msg("Welcome delivery failed")
		}
	}
	return outcomes
}
