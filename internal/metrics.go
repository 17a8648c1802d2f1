package internal

import "expvar"

var (
	requestsTotal  = expvar.NewMap("sentryrelay_requests_total")
	parseErrors    = expvar.NewMap("sentryrelay_parse_errors_total")
	deliveryErrors = expvar.NewMap("sentryrelay_delivery_errors_total")
)

func IncOutcome(outcome Outcome) {
	requestsTotal.Add(string(outcome), 1)
}

func IncParseError(reason string) {
	parseErrors.Add(reason, 1)
}

func IncDeliveryError(host string) {
	deliveryErrors.Add(host, 1)
}
