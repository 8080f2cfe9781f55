package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"p9e.in/logibook/config"
	"p9e.in/logibook/pkg/booking"
	"p9e.in/logibook/pkg/courier"
	"p9e.in/logibook/pkg/events"
	"p9e.in/logibook/pkg/postal"
	"p9e.in/logibook/pkg/rateengine"
	"p9e.in/logibook/pkg/storage"
)

// Clients the handlers share. Init wires them from config.Env; tests replace
// them directly.
var (
	Postal    *postal.Client
	Countries *postal.Countries
	Courier   *courier.Client
	Store     storage.Store
	Events    events.Publisher = events.NopPublisher{}
	Notifier  events.Notifier  = events.LogNotifier{}
	RateCard                   = rateengine.DefaultRateCard()
)

// Init builds every outbound client from the loaded settings.
func Init(ctx context.Context, s config.Settings) error {
	var err error
	httpClient := &http.Client{Timeout: 15 * time.Second}

	if Postal, err = postal.NewClient(s.PostalAPIURL, httpClient, 4096); err != nil {
		return err
	}
	if Countries, err = postal.NewCountries(s.CountriesAPIURL, httpClient); err != nil {
		return err
	}
	Courier = courier.New(s.CourierAPIURL, booking.Credentials{
		Username: s.CourierUsername,
		Password: s.CourierPassword,
	}, nil)
	if s.CourierAPIURL == "" {
		config.Log.Warn("COURIER_API_URL not set, export bookings and import rates are disabled")
	}

	if Store, err = storage.New(ctx, storage.Config{
		UseGCS:   s.UseGCS,
		Bucket:   s.GCSBucket,
		LocalDir: s.UploadDir,
	}); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	if RateCard, err = rateengine.LoadRateCard(s.RateCardFile); err != nil {
		return fmt.Errorf("load rate card: %w", err)
	}

	if s.KafkaBroker != "" {
		Events = events.NewKafkaProducer(s.KafkaBroker, s.KafkaTopic, config.Log)
		config.Log.Info("booking events enabled", zap.String("broker", s.KafkaBroker), zap.String("topic", s.KafkaTopic))
	}

	Notifier = events.LogNotifier{Log: config.Log}
	if s.RabbitMQURL != "" {
		n, err := events.DialRabbitNotifier(s.RabbitMQURL, events.NotificationQueue)
		if err != nil {
			config.Log.Warn("rabbitmq unavailable, notifications will only be logged", zap.Error(err))
		} else {
			Notifier = n
		}
	}
	return nil
}

// announceTimeout bounds one background publish, broker retries included.
const announceTimeout = 10 * time.Second

var announcing sync.WaitGroup

// goAnnounce runs fn in the background so broker latency never delays a
// response. fn keeps the request's values but not its cancellation.
func goAnnounce(ctx context.Context, fn func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), announceTimeout)
	announcing.Add(1)
	go func() {
		defer announcing.Done()
		defer cancel()
		fn(ctx)
	}()
}

// Close waits for pending announcements, then releases the broker
// connections and the upload store.
func Close() {
	announcing.Wait()
	if err := Events.Close(); err != nil {
		config.Log.Warn("close event publisher", zap.Error(err))
	}
	if err := Notifier.Close(); err != nil {
		config.Log.Warn("close notifier", zap.Error(err))
	}
	if c, ok := Store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			config.Log.Warn("close upload store", zap.Error(err))
		}
	}
}
