package observability

// Metric names shared between wiring and call sites.
const (
	MProcessorRequests  = "processor_requests_total"
	MProcessorDuration  = "processor_operation_duration_seconds"
	MProviderRequests   = "provider_requests_total"
	MProviderDuration   = "provider_request_duration_seconds"
	MHookEmissions      = "hook_emissions_total"
	MHTTPRequests       = "http_requests_total"
	MHTTPRequestLatency = "http_request_duration_seconds"
)
