package apihttp

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"power-assets/internal/audit"
	"power-assets/internal/auth"
	"power-assets/internal/export"
	importapp "power-assets/internal/importer/application"
	inventoryapp "power-assets/internal/inventory/application"
	lifecycleapp "power-assets/internal/lifecycle/application"
	powerchainapp "power-assets/internal/powerchain/application"
)

// Deps are the services behind the HTTP surface.
type Deps struct {
	Devices     *inventoryapp.DeviceService
	Connections *inventoryapp.ConnectionService
	Rules       *lifecycleapp.RuleService
	Status      *lifecycleapp.StatusService
	Importer    *importapp.Service
	Chains      *powerchainapp.Service
	Exports     *export.Service
	Verifier    auth.Verifier
	Audit       audit.Logger
	Logger      logrus.FieldLogger

	// TokenSecret enables admin tokens from /api/verify-password.
	TokenSecret    []byte
	TokenTTL       time.Duration
	MaxUploadBytes int64
}

// Handler serves the asset API.
type Handler struct {
	deps Deps
	now  func() time.Time
}

// NewHandler constructs a handler.
func NewHandler(deps Deps) (*Handler, error) {
	switch {
	case deps.Devices == nil, deps.Connections == nil:
		return nil, errors.New("api handler: nil inventory service")
	case deps.Rules == nil, deps.Status == nil:
		return nil, errors.New("api handler: nil lifecycle service")
	case deps.Importer == nil:
		return nil, errors.New("api handler: nil importer")
	case deps.Chains == nil:
		return nil, errors.New("api handler: nil chain service")
	case deps.Exports == nil:
		return nil, errors.New("api handler: nil export service")
	case deps.Verifier == nil:
		return nil, errors.New("api handler: nil verifier")
	}
	if deps.Audit == nil {
		deps.Audit = audit.NopLogger{}
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.TokenTTL <= 0 {
		deps.TokenTTL = 12 * time.Hour
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 32 << 20
	}
	return &Handler{deps: deps, now: time.Now}, nil
}

// Routes registers every API route.
func (h *Handler) Routes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/verify-password", h.verifyPassword).Methods(http.MethodPost)

	api.HandleFunc("/devices", h.listDevices).Methods(http.MethodGet)
	api.HandleFunc("/devices", h.createDevice).Methods(http.MethodPost)
	api.HandleFunc("/devices/facets", h.deviceFacets).Methods(http.MethodGet)
	api.HandleFunc("/devices/lifecycle-status", h.lifecycleStatus).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id:[0-9]+}", h.getDevice).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id:[0-9]+}", h.updateDevice).Methods(http.MethodPut)
	api.HandleFunc("/devices/{id:[0-9]+}", h.deleteDevice).Methods(http.MethodDelete)

	api.HandleFunc("/device-types", h.deviceTypes).Methods(http.MethodGet)
	api.HandleFunc("/device-types/suggestions", h.deviceTypeSuggestions).Methods(http.MethodGet)

	api.HandleFunc("/connections", h.listConnections).Methods(http.MethodGet)
	api.HandleFunc("/connections", h.createConnection).Methods(http.MethodPost)
	api.HandleFunc("/connections/{id:[0-9]+}", h.getConnection).Methods(http.MethodGet)
	api.HandleFunc("/connections/{id:[0-9]+}", h.deleteConnection).Methods(http.MethodDelete)

	api.HandleFunc("/lifecycle-rules", h.listRules).Methods(http.MethodGet)
	api.HandleFunc("/lifecycle-rules", h.createRule).Methods(http.MethodPost)
	api.HandleFunc("/lifecycle-rules/{id:[0-9]+}", h.getRule).Methods(http.MethodGet)
	api.HandleFunc("/lifecycle-rules/{id:[0-9]+}", h.updateRule).Methods(http.MethodPut)
	api.HandleFunc("/lifecycle-rules/{id:[0-9]+}", h.deleteRule).Methods(http.MethodDelete)

	api.HandleFunc("/import", h.importWorkbook).Methods(http.MethodPost)
	api.HandleFunc("/graph/{id:[0-9]+}", h.graph).Methods(http.MethodGet)
	api.HandleFunc("/export/devices.xlsx", h.exportDevices).Methods(http.MethodGet)
	api.HandleFunc("/export/lifecycle.pdf", h.exportLifecycle).Methods(http.MethodGet)
}

// NewRouter assembles the API, health and metrics endpoints behind the
// credential gate and access log.
func NewRouter(h *Handler, gate *auth.Middleware, logger logrus.FieldLogger) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	h.Routes(r)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	return loggingMiddleware(limitBody(gate.Wrap(r), h.deps.MaxUploadBytes), logger)
}

// ExemptPaths lists the mutating routes reachable without a credential.
var ExemptPaths = []string{"/api/verify-password"}

// limitBody caps request bodies before the credential check reads a form.
func limitBody(next http.Handler, limit int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.deps.Logger.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) logAudit(r *http.Request, action, resourceType string, resourceID int64, metadata any) {
	id := ""
	if resourceID > 0 {
		id = strconv.FormatInt(resourceID, 10)
	}
	entry := audit.FromRequest(r, auth.SubjectFromContext(r.Context()), action, resourceType, id, metadata)
	if err := h.deps.Audit.Log(r.Context(), entry); err != nil {
		h.deps.Logger.WithError(err).WithField("action", action).Warn("audit log failed")
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadRequest
	}
	return id, nil
}

func loggingMiddleware(next http.Handler, logger logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   resp.status,
			"duration": time.Since(start).String(),
		}).Info("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
