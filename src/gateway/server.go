package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kalemarkets/settler/src/contracts/enterprise"
	"github.com/kalemarkets/settler/src/contracts/eventbus"
	"github.com/kalemarkets/settler/src/contracts/factory"
	"github.com/kalemarkets/settler/src/contracts/market"
	"github.com/kalemarkets/settler/src/contracts/staking"
	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/gateway/response"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"
	"github.com/kalemarkets/settler/src/utils/monitoring"
	"github.com/kalemarkets/settler/src/utils/task"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/ratelimit"
)

const principalKey = "principal"

// Contracts bundles the deployed contract instances the gateway fronts.
type Contracts struct {
	Enterprise *enterprise.Contract
	Staking    *staking.Contract
	Factory    *factory.Contract
	Bus        *eventbus.Contract
	Markets    *market.Deployer
}

// Rest API server. Translates authenticated HTTP calls into contract entry
// points and streams accepted bus events over a websocket.
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	monitor   monitoring.Monitor
	limiter   ratelimit.Limiter
	auth      *host.SessionAuthorizer
	contracts Contracts
	hub       *hub

	// Contract calls run one at a time, matching the ledger's serialized
	// execution model
	callMtx sync.Mutex
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.limiter = ratelimit.New(config.Gateway.RequestsPerSecond)
	self.hub = newHub(config)

	self.Task = task.NewTask(config, "gateway").
		WithSubtaskFunc(self.run).
		WithSubtaskFunc(self.broadcast).
		WithOnStop(self.stop)

	self.Router = gin.New()
	self.Router.Use(gin.Recovery())

	self.httpServer = &http.Server{
		Addr:    config.Gateway.ListenAddress,
		Handler: self.Router,
	}

	return
}

func (self *Server) WithMonitor(monitor monitoring.Monitor) *Server {
	self.monitor = monitor
	return self
}

func (self *Server) WithAuthorizer(auth *host.SessionAuthorizer) *Server {
	self.auth = auth
	return self
}

func (self *Server) WithContracts(contracts Contracts) *Server {
	self.contracts = contracts
	return self
}

// WithEventStream attaches the channel the websocket hub broadcasts from.
func (self *Server) WithEventStream(events <-chan types.ContractEvent) *Server {
	self.hub.input = events
	return self
}

func (self *Server) run() (err error) {
	if !self.Config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	self.Router.Use(self.requestID(), self.pace(), self.measure())

	registry := prometheus.NewRegistry()
	if collector := self.monitor.GetPrometheusCollector(); collector != nil {
		registry.MustRegister(collector)
	}

	v1 := self.Router.Group("v1")
	{
		v1.GET("health", self.onHealth)
		v1.GET("metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

		authed := v1.Group("", self.authenticate())
		{
			self.oracleRoutes(authed.Group("oracle"))
			self.enterpriseRoutes(authed.Group("enterprise"))
			self.stakingRoutes(authed.Group("staking"))
			self.marketRoutes(authed.Group("markets"))
			self.eventRoutes(authed.Group("events"))
		}
	}

	if self.Config.Profiler.Enabled {
		pprof.Register(self.Router)
	}

	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start REST server")
		return
	}
	return nil
}

func (self *Server) broadcast() (err error) {
	self.hub.run(self.Ctx, func(err error) {
		self.Log.WithError(err).Warn("Websocket write failed, dropping client")
	})
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown REST server")
		return
	}
}

func (self *Server) onHealth(c *gin.Context) {
	c.JSON(http.StatusOK, response.Health{
		Status: "ok",
		Report: self.monitor.GetReport(),
	})
}

// Middleware

func (self *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Request-Id", uuid.NewString())
		c.Next()
	}
}

func (self *Server) pace() gin.HandlerFunc {
	return func(c *gin.Context) {
		self.limiter.Take()
		c.Next()
	}
}

func (self *Server) measure() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		self.monitor.GetReport().Gateway.State.RequestsServed.Inc()
		if monitor, ok := self.monitor.(interface{ OnRequestLatency(float64) }); ok {
			monitor.OnRequestLatency(float64(time.Since(start).Microseconds()) / 1000)
		}
	}
}

// authenticate verifies the bearer token and stores its subject as the
// call principal. Websocket clients may pass the token as a query param.
func (self *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			self.unauthorized(c, "missing token")
			return
		}

		token, err := jwt.Parse(
			[]byte(raw),
			jwt.WithVerify(jwa.HS256, []byte(self.Config.Gateway.JWTSecret)),
			jwt.WithValidate(true),
		)
		if err != nil {
			self.unauthorized(c, "invalid token")
			return
		}
		if token.Subject() == "" {
			self.unauthorized(c, "token has no subject")
			return
		}

		c.Set(principalKey, types.Address(token.Subject()))
		c.Next()
	}
}

func (self *Server) unauthorized(c *gin.Context, msg string) {
	self.monitor.GetReport().Gateway.Errors.Unauthorized.Inc()
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error{Error: msg})
}

func (self *Server) principal(c *gin.Context) types.Address {
	return c.MustGet(principalKey).(types.Address)
}

// call runs one contract entry point as the request's principal, serialized
// against every other call.
func (self *Server) call(c *gin.Context, fn func(principal types.Address) error) {
	principal := self.principal(c)

	self.callMtx.Lock()
	self.auth.SetPrincipal(principal)
	err := fn(principal)
	self.auth.Clear()
	self.callMtx.Unlock()

	if err != nil {
		self.monitor.GetReport().Gateway.Errors.ContractCall.Inc()
		c.JSON(statusOf(err), response.Error{Error: err.Error()})
	}
}

func (self *Server) badRequest(c *gin.Context, err error) {
	self.monitor.GetReport().Gateway.Errors.BadRequest.Inc()
	c.JSON(http.StatusBadRequest, response.Error{Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, types.ErrMarketNotFound),
		errors.Is(err, types.ErrStakeNotFound),
		errors.Is(err, types.ErrBetNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidAmount),
		errors.Is(err, types.ErrInvalidOutcome),
		errors.Is(err, types.ErrInvalidTimestamp):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrMarketClosed),
		errors.Is(err, types.ErrMarketAlreadyResolved),
		errors.Is(err, types.ErrAlreadyClaimed),
		errors.Is(err, types.ErrInsufficientBalance),
		errors.Is(err, types.ErrInsufficientStake):
		return http.StatusConflict
	case errors.Is(err, types.ErrOracleError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
