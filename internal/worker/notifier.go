package worker

import (
	"context"

	"github.com/Domenick1991/flightshop/internal/kafka"
	"github.com/sirupsen/logrus"
)

type TicketSender interface {
	Send(ctx context.Context, event kafka.BookingEvent) error
}

// TicketNotifier turns booking_confirmed events into ticket emails. Delivery
// failures are logged and the message is committed anyway.
func TicketNotifier(sender TicketSender, log logrus.FieldLogger) func(context.Context, kafka.BookingEvent) error {
	return func(ctx context.Context, event kafka.BookingEvent) error {
		if event.Type != kafka.EventBookingConfirmed {
			return nil
		}
		entry := log.WithFields(logrus.Fields{
			"order_id":          event.OrderID,
			"booking_reference": event.BookingReference,
		})
		if err := sender.Send(ctx, event); err != nil {
			entry.WithError(err).Error("ticket email failed")
			return nil
		}
		entry.Info("ticket email sent")
		return nil
	}
}
