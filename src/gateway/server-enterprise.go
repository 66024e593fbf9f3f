package gateway

import (
	"net/http"
	"strconv"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/gateway/request"

	"github.com/gin-gonic/gin"
)

func (self *Server) enterpriseRoutes(g *gin.RouterGroup) {
	g.POST("clients", self.onRegisterClient)
	g.DELETE("clients/:address", self.onDeactivateClient)
	g.GET("clients", self.onGetClients)
	g.GET("clients/:address", self.onGetClient)
	g.GET("prices/:asset", self.onGetEnterprisePrice)
	g.POST("prices/batch", self.onGetBatchPrices)
	g.POST("prices", self.onUpdatePriceEnterprise)
	g.GET("metrics", self.onGetEnterpriseMetrics)
	g.GET("health", self.onGetOracleHealth)
	g.POST("subscriptions", self.onSubscribeEnterprise)
	g.GET("ratelimit", self.onGetRateLimit)
}

func (self *Server) onRegisterClient(c *gin.Context) {
	var in request.RegisterClient
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		err := self.contracts.Enterprise.RegisterClient(principal, types.Address(in.Address), in.Name, in.Tier, in.RateLimit)
		if err != nil {
			return err
		}
		c.Status(http.StatusCreated)
		return nil
	})
}

func (self *Server) onDeactivateClient(c *gin.Context) {
	self.call(c, func(principal types.Address) error {
		err := self.contracts.Enterprise.DeactivateClient(principal, types.Address(c.Param("address")))
		if err != nil {
			return err
		}
		c.Status(http.StatusNoContent)
		return nil
	})
}

func (self *Server) onGetClients(c *gin.Context) {
	self.call(c, func(types.Address) error {
		clients, err := self.contracts.Enterprise.GetClients()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, clients)
		return nil
	})
}

func (self *Server) onGetClient(c *gin.Context) {
	self.call(c, func(types.Address) error {
		client, err := self.contracts.Enterprise.GetClient(types.Address(c.Param("address")))
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, client)
		return nil
	})
}

// onGetEnterprisePrice serves the enriched feed. The caller may tighten the
// confidence and staleness gates through query params.
func (self *Server) onGetEnterprisePrice(c *gin.Context) {
	minConfidence, err := strconv.ParseUint(c.DefaultQuery("min_confidence", "0"), 10, 32)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	maxAge, err := strconv.ParseUint(c.DefaultQuery("max_age", "0"), 10, 64)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		feed, err := self.contracts.Enterprise.GetEnterprisePrice(principal, c.Param("asset"), uint32(minConfidence), maxAge)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, feed)
		return nil
	})
}

func (self *Server) onGetBatchPrices(c *gin.Context) {
	var in request.BatchPrices
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	minConfidence, err := strconv.ParseUint(c.DefaultQuery("min_confidence", "0"), 10, 32)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		feeds, err := self.contracts.Enterprise.GetBatchPrices(principal, in.AssetNames, uint32(minConfidence))
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, feeds)
		return nil
	})
}

func (self *Server) onUpdatePriceEnterprise(c *gin.Context) {
	var in request.SubmitPrice
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		err := self.contracts.Enterprise.UpdatePriceEnterprise(principal, in.AssetName, in.Price, in.Confidence, in.Source, types.PriceMetadata{})
		if err != nil {
			self.monitor.GetReport().Contracts.Errors.SubmissionRejected.Inc()
			return err
		}

		self.monitor.GetReport().Contracts.State.PriceSubmissions.Inc()
		c.Status(http.StatusCreated)
		return nil
	})
}

func (self *Server) onGetEnterpriseMetrics(c *gin.Context) {
	self.call(c, func(types.Address) error {
		metrics, err := self.contracts.Enterprise.GetEnterpriseMetrics()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, metrics)
		return nil
	})
}

func (self *Server) onGetOracleHealth(c *gin.Context) {
	self.call(c, func(types.Address) error {
		total, active, avgReputation, avgLatency, err := self.contracts.Enterprise.GetOracleHealth()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{
			"total_nodes":        total,
			"active_nodes":       active,
			"average_reputation": avgReputation,
			"average_latency":    avgLatency,
		})
		return nil
	})
}

func (self *Server) onSubscribeEnterprise(c *gin.Context) {
	var in request.Subscribe
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		err := self.contracts.Enterprise.SubscribeEnterprise(principal, in.AssetName)
		if err != nil {
			return err
		}
		c.Status(http.StatusCreated)
		return nil
	})
}

func (self *Server) onGetRateLimit(c *gin.Context) {
	self.call(c, func(principal types.Address) error {
		limit, err := self.contracts.Enterprise.GetRateLimit(principal)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, limit)
		return nil
	})
}
