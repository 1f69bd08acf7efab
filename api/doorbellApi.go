package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kindo-app/doorbell/clients"
	"github.com/kindo-app/doorbell/clients/backend"
	"github.com/kindo-app/doorbell/delivery"
	"github.com/kindo-app/doorbell/invitation"
	"github.com/kindo-app/doorbell/metrics"
	"github.com/kindo-app/doorbell/models"
)

type (
	Api struct {
		Store      clients.StoreClient
		invites    Inviter
		probe      Prober
		relay      Relay
		templates  models.Templates
		metrics    *metrics.Metrics
		backend    backend.Config
		baseLogger *zap.SugaredLogger
		Config     Config
	}
	Config struct {
		SendMode      string `envconfig:"DOORBELL_SEND_MODE" default:"simulate"`
		MailTransport string `envconfig:"DOORBELL_MAIL_TRANSPORT" default:"backend"`
	}

	// Inviter runs the invitation workflow
	Inviter interface {
		Invite(ctx context.Context, req models.InvitationRequest) (*invitation.Invitation, error)
	}

	// Prober runs the connectivity probe channels
	Prober interface {
		Dispatch(ctx context.Context, msg delivery.Message) (delivery.Outcome, error)
	}

	// Relay is the mail transport used by send-invitation in relay mode
	Relay interface {
		clients.Notifier
	}

	Params struct {
		fx.In

		Config    Config
		Backend   backend.Config
		Store     clients.StoreClient
		Inviter   Inviter
		Prober    Prober
		Relay     Relay `optional:"true"`
		Templates models.Templates
		Metrics   *metrics.Metrics
		Logger    *zap.SugaredLogger
	}
)

const (
	SendModeSimulate = "simulate"
	SendModeRelay    = "relay"

	MailTransportBackend = "backend"
	MailTransportSES     = "ses"
	MailTransportSMTP    = "smtp"
	MailTransportNull    = "null"

	STATUS_ERR_DECODING_REQUEST          = "Error decoding the request"
	STATUS_ERR_FINDING_RECONCILIATION    = "Error finding the reconciliation"
	STATUS_ERR_INVITING                  = "Error processing invitation"
	STATUS_ERR_SAVING_RECONCILIATION     = "Error saving the reconciliation"
	STATUS_ERR_SENDING_EMAIL             = "Error sending email"
	STATUS_ERR_SENDING_TEST_EMAIL        = "Error in test email function"
	STATUS_ERR_RELAY_NOT_CONFIGURED      = "The mail relay is not configured"
	STATUS_ERR_UNEXPECTED                = "Unexpected error"
	STATUS_RECONCILIATION_NOT_FOUND      = "No matching reconciliation was found"
	STATUS_SIMULATED                     = "Email sending simulated successfully"
	STATUS_TEST_EMAIL_SENT               = "Test email sent using multiple methods. Please check your inbox (and spam folder)."
	STATUS_TEST_EMAIL_FAILED             = "Failed to send email. Please check if your email configuration is set up correctly."
	STATUS_UNAUTHORIZED                  = "Not authorized for requested operation"
	STATUS_INVALID_RECONCILIATION_STATUS = "Unknown reconciliation status"
	STATUS_OK                            = "OK"
	STATUS_OPTIONS_OK                    = "ok"

	CORS_ALLOW_HEADERS = "authorization, x-client-info, apikey, content-type"
)

func NewApi(p Params) *Api {
	return &Api{
		Store:      p.Store,
		invites:    p.Inviter,
		probe:      p.Prober,
		relay:      p.Relay,
		templates:  p.Templates,
		metrics:    p.Metrics,
		backend:    p.Backend,
		baseLogger: p.Logger,
		Config:     p.Config,
	}
}

func ConfigProvider() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return Config{}, err
	}
	switch config.SendMode {
	case SendModeSimulate, SendModeRelay:
	default:
		return Config{}, fmt.Errorf("unknown DOORBELL_SEND_MODE %q", config.SendMode)
	}
	return config, nil
}

func routerProvider(api *Api) *mux.Router {
	rtr := mux.NewRouter()
	api.SetHandlers("", rtr)
	return rtr
}

// RouterModule build a router
var RouterModule = fx.Options(fx.Provide(routerProvider, NewApi))

type ctxLoggerKey struct{}

func (a *Api) logger(ctx context.Context) *zap.SugaredLogger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*zap.SugaredLogger); ok {
		return logger
	}
	return a.cloneLogger()
}

func (a *Api) cloneLogger() *zap.SugaredLogger {
	return a.baseLogger.WithOptions()
}

func (a *Api) ctxLoggerHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origCtx := r.Context()
		ctxLog := a.cloneLogger().With(zap.String("method", r.Method), zap.String("path", r.URL.Path))
		ctxWithLog := context.WithValue(origCtx, ctxLoggerKey{}, ctxLog)
		rWithLog := r.WithContext(ctxWithLog)
		h.ServeHTTP(w, rWithLog)
	})
}

// corsHandler adds the cross-origin headers to every response and answers pre-flight requests
func (a *Api) corsHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", CORS_ALLOW_HEADERS)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(STATUS_OPTIONS_OK))
			return
		}
		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (a *Api) metricsHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		h.ServeHTTP(recorder, r)
		a.metrics.RecordHTTPRequest(route, recorder.status, time.Since(start))
	})
}

func (a *Api) SetHandlers(prefix string, rtr *mux.Router) {
	rtr.Use(mux.MiddlewareFunc(a.ctxLoggerHandler))
	rtr.Use(mux.MiddlewareFunc(a.corsHandler))
	rtr.Use(mux.MiddlewareFunc(a.metricsHandler))

	rtr.HandleFunc(prefix+"/status", a.IsReady).Methods("GET")
	rtr.HandleFunc(prefix+"/ready", a.IsReady).Methods("GET")
	rtr.HandleFunc(prefix+"/live", a.IsAlive).Methods("GET")
	rtr.Handle(prefix+"/metrics", promhttp.Handler()).Methods("GET")

	// POST /invite
	// POST /send-invitation
	// POST /test-delivery
	// each also answers OPTIONS and keeps the path it had as a hosted function
	functions := rtr.PathPrefix("/functions/v1").Subrouter()
	for path, handler := range map[string]http.HandlerFunc{
		"/invite-user":           a.InviteUser,
		"/send-invitation-email": a.SendInvitation,
		"/test-email":            a.TestDelivery,
	} {
		functions.HandleFunc(path, handler).Methods("POST", "OPTIONS")
	}
	rtr.HandleFunc(prefix+"/invite", a.InviteUser).Methods("POST", "OPTIONS")
	rtr.HandleFunc(prefix+"/send-invitation", a.SendInvitation).Methods("POST", "OPTIONS")
	rtr.HandleFunc(prefix+"/test-delivery", a.TestDelivery).Methods("POST", "OPTIONS")

	// GET /reconciliations?status=pending
	// PUT /reconciliations/:id/resolve
	rtr.HandleFunc(prefix+"/reconciliations", a.requireServiceKey(a.GetReconciliations)).Methods("GET")
	rtr.HandleFunc(prefix+"/reconciliations/{id}/resolve", a.requireServiceKey(a.ResolveReconciliation)).Methods("PUT")
}

func (a *Api) IsReady(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	if err := a.Store.Ping(ctx); err != nil {
		a.sendError(ctx, res, http.StatusInternalServerError, "store connectivity failure", err)
		return
	}
	res.WriteHeader(http.StatusOK)
	res.Write([]byte(STATUS_OK))
}

func (a *Api) IsAlive(res http.ResponseWriter, req *http.Request) {
	res.WriteHeader(http.StatusOK)
	res.Write([]byte(STATUS_OK))
}

// recoverWith is deferred by handlers: a panic is logged and answered through write
func (a *Api) recoverWith(ctx context.Context, write func(reason string)) {
	if r := recover(); r != nil {
		a.logger(ctx).Errorw("recovered from panic", "panic", fmt.Sprint(r), zap.Stack("stack"))
		write(fmt.Sprint(r))
	}
}

func (a *Api) decode(req *http.Request, v interface{}) error {
	if req.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	return json.NewDecoder(req.Body).Decode(v)
}

func (a *Api) sendModelAsResWithStatus(ctx context.Context, res http.ResponseWriter, model interface{}, statusCode int) {
	if jsonDetails, err := json.Marshal(model); err != nil {
		a.logger(ctx).With("model", model, zap.Error(err)).Errorf("trying to send model")
		http.Error(res, "Error marshaling data for response", http.StatusInternalServerError)
	} else {
		res.Header().Set("content-type", "application/json")
		res.WriteHeader(statusCode)
		res.Write(jsonDetails)
	}
}

// sendError answers with {error: reason} and logs the extras
func (a *Api) sendError(ctx context.Context, res http.ResponseWriter, statusCode int, reason string, extras ...interface{}) {
	a.sendErrorLog(ctx, statusCode, reason, extras...)
	a.sendModelAsResWithStatus(ctx, res, models.ErrorResponse{Error: reason}, statusCode)
}

func (a *Api) sendErrorLog(ctx context.Context, code int, reason string, extras ...interface{}) {
	details := splitExtrasAndErrorsAndFields(extras)
	log := a.logger(ctx).WithOptions(zap.AddCallerSkip(2)).
		Desugar().With(details.Fields...).Sugar().
		With(zap.Int("code", code))
	if len(details.NonErrors) > 0 {
		log = log.With(zap.Array("extras", zapArrayAny(details.NonErrors)))
	}
	if len(details.Errors) == 1 {
		log = log.With(zap.Error(details.Errors[0]))
	} else if len(details.Errors) > 1 {
		log = log.With(zap.Errors("errors", details.Errors))
	}
	if code < http.StatusInternalServerError || len(details.Errors) == 0 {
		// if there are no errors, use info to skip the stack trace, as it's
		// probably not useful
		log.Info(reason)
	} else {
		log.Error(reason)
	}
}

type extrasDetails struct {
	Errors    []error
	NonErrors []interface{}
	Fields    []zap.Field
}

func splitExtrasAndErrorsAndFields(extras []interface{}) extrasDetails {
	details := extrasDetails{
		Errors:    []error{},
		NonErrors: []interface{}{},
		Fields:    []zap.Field{},
	}
	for _, extra := range extras {
		if err, ok := extra.(error); ok {
			if err != nil {
				details.Errors = append(details.Errors, err)
			}
		} else if field, ok := extra.(zap.Field); ok {
			details.Fields = append(details.Fields, field)
		} else if extraErrs, ok := extra.([]error); ok {
			if len(extraErrs) > 0 {
				details.Errors = append(details.Errors, extraErrs...)
			}
		} else {
			details.NonErrors = append(details.NonErrors, extra)
		}
	}
	return details
}

// zapArrayAny helps convert extras to strings for inclusion in a structured
// log message.
func zapArrayAny(extras []interface{}) zapcore.ArrayMarshalerFunc {
	return zapcore.ArrayMarshalerFunc(func(enc zapcore.ArrayEncoder) error {
		for _, extra := range extras {
			enc.AppendString(fmt.Sprintf("%v", extra))
		}
		return nil
	})
}

func bearerToken(req *http.Request) string {
	if auth := req.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return req.Header.Get("apikey")
}
