package metrics

import (
	"github.com/prohmpiriya/storefront/pkg/telemetry"
)

// Metrics holds the service-level instruments
type Metrics struct {
	CheckoutTotal    *telemetry.Counter
	CheckoutDuration *telemetry.Histogram
	OrdersByStatus   *telemetry.Counter
}

// New registers the storefront instruments
func New() (*Metrics, error) {
	checkoutTotal, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "storefront.checkout.total",
		Description: "Checkout attempts by outcome",
		Unit:        "{checkout}",
	})
	if err != nil {
		return nil, err
	}

	checkoutDuration, err := telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "storefront.checkout.duration",
		Description: "Checkout transaction duration",
		Unit:        "ms",
	})
	if err != nil {
		return nil, err
	}

	ordersByStatus, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "storefront.orders.status_transitions",
		Description: "Order status transitions by target status",
		Unit:        "{transition}",
	})
	if err != nil {
		return nil, err
	}

	return &Metrics{
		CheckoutTotal:    checkoutTotal,
		CheckoutDuration: checkoutDuration,
		OrdersByStatus:   ordersByStatus,
	}, nil
}
