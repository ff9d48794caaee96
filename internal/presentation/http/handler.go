package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/lanepay/lanepay/internal/application/processor"
	"github.com/lanepay/lanepay/internal/domain/billing"
	"github.com/lanepay/lanepay/internal/domain/money"
	"github.com/lanepay/lanepay/internal/observability"
	"github.com/lanepay/lanepay/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
)

type Handler struct {
	proc *processor.Processor
	log  observability.Logger
	tel  observability.Telemetry
}

func NewHandler(proc *processor.Processor, logger observability.Logger, tel observability.Telemetry) *Handler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = observability.NopLogger()
	}
	return &Handler{
		proc: proc,
		log:  baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:  tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.muxHandle(mux, http.MethodPost, "/customers", h.handleCreateCustomer)
	h.muxHandle(mux, http.MethodGet, "/customers/{id}", h.handleGetCustomer)
	h.muxHandle(mux, http.MethodPost, "/customers/{id}/payment-methods", h.handleAddPaymentMethod)
	h.muxHandle(mux, http.MethodPost, "/payments", h.handleCreatePayment)
	h.muxHandle(mux, http.MethodGet, "/payments", h.handleListPayments)
	h.muxHandle(mux, http.MethodGet, "/payments/{id}", h.handleGetPayment)
	h.muxHandle(mux, http.MethodGet, "/payments/{id}/refunds", h.handleListRefunds)
	h.muxHandle(mux, http.MethodPost, "/refunds", h.handleCreateRefund)
	h.muxHandle(mux, http.MethodPost, "/plans", h.handleCreatePlan)
	h.muxHandle(mux, http.MethodGet, "/plans/{id}", h.handleGetPlan)
	h.muxHandle(mux, http.MethodPost, "/subscriptions", h.handleCreateSubscription)
	h.muxHandle(mux, http.MethodGet, "/subscriptions/{id}", h.handleGetSubscription)
	h.muxHandle(mux, http.MethodPost, "/subscriptions/{id}/cancel", h.handleCancelSubscription)
	h.muxHandle(mux, http.MethodPost, "/subscriptions/{id}/pause", h.handlePauseSubscription)
	h.muxHandle(mux, http.MethodPost, "/subscriptions/{id}/resume", h.handleResumeSubscription)
	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	return mux
}

// muxHandle wires a route with the middleware chain:
// Trace → ObservabilityMiddleware (request logger + metrics) → Access log → Handler
func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, handler http.HandlerFunc) {
	mux.HandleFunc(method+" "+route, func(w http.ResponseWriter, r *http.Request) {
		// Store stable route template for low-cardinality labels
		ctx := contextWithRoute(r.Context(), route)
		r = r.WithContext(ctx)

		wrapped := h.withTrace(
			ObservabilityMiddleware(
				logctx.FromOr(ctx, h.log),
				func(r *http.Request) string {
					return r.Header.Get(headerRequestID)
				},
				h.tel,
			)(
				h.withAccessLog(http.HandlerFunc(handler)),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

type createCustomerRequest struct {
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

type customerResponse struct {
	ID                   string                  `json:"id"`
	Email                string                  `json:"email"`
	Name                 string                  `json:"name,omitempty"`
	PaymentMethods       []paymentMethodResponse `json:"payment_methods"`
	DefaultPaymentMethod string                  `json:"default_payment_method,omitempty"`
	Metadata             map[string]string       `json:"metadata,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
}

type paymentMethodResponse struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	LastFour string            `json:"last_four,omitempty"`
	Brand    string            `json:"brand,omitempty"`
	ExpMonth int               `json:"exp_month,omitempty"`
	ExpYear  int               `json:"exp_year,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func toCustomerResponse(c *billing.Customer) customerResponse {
	methods := make([]paymentMethodResponse, 0, len(c.PaymentMethods))
	for _, m := range c.PaymentMethods {
		methods = append(methods, toPaymentMethodResponse(m))
	}
	return customerResponse{
		ID:                   c.ID,
		Email:                c.Email,
		Name:                 c.Name,
		PaymentMethods:       methods,
		DefaultPaymentMethod: c.DefaultPaymentMethod,
		Metadata:             c.Metadata,
		CreatedAt:            c.CreatedAt,
	}
}

func toPaymentMethodResponse(m *billing.PaymentMethodInfo) paymentMethodResponse {
	return paymentMethodResponse{
		ID:       m.ID,
		Type:     string(m.Type),
		LastFour: m.LastFour,
		Brand:    m.Brand,
		ExpMonth: m.ExpMonth,
		ExpYear:  m.ExpYear,
		Metadata: m.Metadata,
	}
}

func (h *Handler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	customer, err := h.proc.CreateCustomer(r.Context(), processor.CreateCustomerInput{
		Email:    req.Email,
		Name:     req.Name,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(customer))
}

func (h *Handler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.proc.GetCustomer(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(customer))
}

type addPaymentMethodRequest struct {
	Type     string            `json:"type"`
	LastFour string            `json:"last_four"`
	Brand    string            `json:"brand"`
	ExpMonth int               `json:"exp_month"`
	ExpYear  int               `json:"exp_year"`
	Metadata map[string]string `json:"metadata"`
}

func (h *Handler) handleAddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req addPaymentMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	method, err := h.proc.AddPaymentMethod(r.Context(), processor.AddPaymentMethodInput{
		CustomerID: r.PathValue("id"),
		Type:       billing.PaymentMethodType(req.Type),
		LastFour:   req.LastFour,
		Brand:      req.Brand,
		ExpMonth:   req.ExpMonth,
		ExpYear:    req.ExpYear,
		Metadata:   req.Metadata,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentMethodResponse(method))
}

type createPaymentRequest struct {
	CustomerID      string `json:"customer_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	PaymentMethodID string `json:"payment_method_id"`
	Description     string `json:"description"`
}

type paymentResponse struct {
	ID              string            `json:"id"`
	CustomerID      string            `json:"customer_id"`
	Amount          money.Money       `json:"amount"`
	Status          string            `json:"status"`
	PaymentMethodID string            `json:"payment_method_id"`
	Description     string            `json:"description,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	Error           string            `json:"error,omitempty"`
}

func toPaymentResponse(p *billing.Payment) paymentResponse {
	return paymentResponse{
		ID:              p.ID,
		CustomerID:      p.CustomerID,
		Amount:          p.Amount,
		Status:          string(p.Status),
		PaymentMethodID: p.PaymentMethodID,
		Description:     p.Description,
		Metadata:        p.Metadata,
		CreatedAt:       p.CreatedAt,
		CompletedAt:     p.CompletedAt,
		Error:           p.Error,
	}
}

func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	payment, err := h.proc.CreatePayment(r.Context(), processor.CreatePaymentInput{
		CustomerID:      req.CustomerID,
		Amount:          amount,
		Currency:        money.Currency(req.Currency),
		PaymentMethodID: req.PaymentMethodID,
		Description:     req.Description,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.proc.GetPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.proc.ListPayments(r.Context(), r.URL.Query().Get("customer_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type createRefundRequest struct {
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
	Reason    string `json:"reason"`
}

type refundResponse struct {
	ID        string      `json:"id"`
	PaymentID string      `json:"payment_id"`
	Amount    money.Money `json:"amount"`
	Reason    string      `json:"reason,omitempty"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

func toRefundResponse(r *billing.Refund) refundResponse {
	return refundResponse{
		ID:        r.ID,
		PaymentID: r.PaymentID,
		Amount:    r.Amount,
		Reason:    r.Reason,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

func (h *Handler) handleCreateRefund(w http.ResponseWriter, r *http.Request) {
	var req createRefundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	in := processor.CreateRefundInput{
		PaymentID: req.PaymentID,
		Reason:    req.Reason,
	}
	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		in.Amount = &amount
	}

	refund, err := h.proc.CreateRefund(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRefundResponse(refund))
}

func (h *Handler) handleListRefunds(w http.ResponseWriter, r *http.Request) {
	refunds, err := h.proc.ListRefunds(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]refundResponse, 0, len(refunds))
	for _, rf := range refunds {
		out = append(out, toRefundResponse(rf))
	}
	writeJSON(w, http.StatusOK, out)
}

type createPlanRequest struct {
	Name          string            `json:"name"`
	Amount        string            `json:"amount"`
	Currency      string            `json:"currency"`
	Interval      string            `json:"interval"`
	IntervalCount int               `json:"interval_count"`
	TrialDays     int               `json:"trial_days"`
	Features      []string          `json:"features"`
	Metadata      map[string]string `json:"metadata"`
}

type planResponse struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Amount        money.Money       `json:"amount"`
	Interval      string            `json:"interval"`
	IntervalCount int               `json:"interval_count"`
	TrialDays     int               `json:"trial_days"`
	Features      []string          `json:"features,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func toPlanResponse(p *billing.Plan) planResponse {
	return planResponse{
		ID:            p.ID,
		Name:          p.Name,
		Amount:        p.Amount,
		Interval:      string(p.Interval),
		IntervalCount: p.IntervalCount,
		TrialDays:     p.TrialDays,
		Features:      p.Features,
		Metadata:      p.Metadata,
	}
}

func (h *Handler) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	intervalCount := req.IntervalCount
	if intervalCount == 0 {
		intervalCount = 1
	}

	plan, err := h.proc.CreatePlan(r.Context(), processor.CreatePlanInput{
		Name:          req.Name,
		Amount:        amount,
		Currency:      money.Currency(req.Currency),
		Interval:      billing.BillingInterval(req.Interval),
		IntervalCount: intervalCount,
		TrialDays:     req.TrialDays,
		Features:      req.Features,
		Metadata:      req.Metadata,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanResponse(plan))
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.proc.GetPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResponse(plan))
}

type createSubscriptionRequest struct {
	CustomerID string `json:"customer_id"`
	PlanID     string `json:"plan_id"`
}

type subscriptionResponse struct {
	ID                 string     `json:"id"`
	CustomerID         string     `json:"customer_id"`
	PlanID             string     `json:"plan_id"`
	Status             string     `json:"status"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	TrialEnd           *time.Time `json:"trial_end,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
}

func toSubscriptionResponse(s *billing.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:                 s.ID,
		CustomerID:         s.CustomerID,
		PlanID:             s.PlanID,
		Status:             string(s.Status),
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		TrialEnd:           s.TrialEnd,
		CancelledAt:        s.CancelledAt,
	}
}

func (h *Handler) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sub, err := h.proc.CreateSubscription(r.Context(), processor.CreateSubscriptionInput{
		CustomerID: req.CustomerID,
		PlanID:     req.PlanID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

func (h *Handler) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.proc.GetSubscription(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (h *Handler) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	h.subscriptionAction(w, r, h.proc.CancelSubscription)
}

func (h *Handler) handlePauseSubscription(w http.ResponseWriter, r *http.Request) {
	h.subscriptionAction(w, r, h.proc.PauseSubscription)
}

func (h *Handler) handleResumeSubscription(w http.ResponseWriter, r *http.Request) {
	h.subscriptionAction(w, r, h.proc.ResumeSubscription)
}

func (h *Handler) subscriptionAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id string) error) {
	id := r.PathValue("id")
	if err := action(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	sub, err := h.proc.GetSubscription(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("lanepay.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := r.Method + " " + route
		if route == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrCustomerNotFound),
		errors.Is(err, billing.ErrPaymentNotFound),
		errors.Is(err, billing.ErrPlanNotFound),
		errors.Is(err, billing.ErrSubscriptionNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, billing.ErrValidation),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, money.ErrUnsupportedCurrency):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, billing.ErrNoPaymentMethod),
		errors.Is(err, billing.ErrPaymentNotRefundable),
		errors.Is(err, billing.ErrRefundExceedsPayment),
		errors.Is(err, billing.ErrSubscriptionNotActive),
		errors.Is(err, billing.ErrSubscriptionNotPaused):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
