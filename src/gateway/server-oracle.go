package gateway

import (
	"net/http"
	"strconv"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/gateway/request"

	"github.com/gin-gonic/gin"
)

func (self *Server) oracleRoutes(g *gin.RouterGroup) {
	g.POST("prices", self.onSubmitPrice)
	g.POST("prices/batch", self.onBatchSubmitPrices)
	g.GET("prices/:asset", self.onGetPrice)
	g.GET("prices/:asset/available", self.onIsPriceAvailable)
	g.GET("prices/:asset/fallback", self.onPriceWithFallback)
	g.POST("events", self.onSubmitEventOutcome)
	g.GET("events/:id", self.onGetEventData)
	g.POST("nodes", self.onAddNode)
	g.DELETE("nodes/:address", self.onRemoveNode)
	g.GET("nodes", self.onGetNodes)
	g.GET("nodes/:address", self.onGetNode)
	g.POST("subscriptions", self.onSubscribe)
	g.DELETE("subscriptions/:asset", self.onUnsubscribe)
	g.GET("subscriptions/:asset", self.onGetSubscribers)
	g.GET("config", self.onGetOracleConfig)
	g.PUT("config", self.onUpdateOracleConfig)
}

func (self *Server) onSubmitPrice(c *gin.Context) {
	var in request.SubmitPrice
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		err := self.contracts.Enterprise.SubmitPrice(principal, in.AssetName, in.Price, in.Confidence, in.Source)
		if err != nil {
			self.monitor.GetReport().Contracts.Errors.SubmissionRejected.Inc()
			return err
		}

		self.monitor.GetReport().Contracts.State.PriceSubmissions.Inc()
		c.Status(http.StatusCreated)
		return nil
	})
}

func (self *Server) onBatchSubmitPrices(c *gin.Context) {
	var in request.BatchSubmitPrices
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		result := self.contracts.Enterprise.BatchSubmitPrices(principal, in.AssetNames, in.Prices, in.Confidences, in.Source)
		c.JSON(http.StatusOK, result)
		return nil
	})
}

func (self *Server) onGetPrice(c *gin.Context) {
	self.call(c, func(types.Address) error {
		feed, err := self.contracts.Enterprise.GetPrice(c.Param("asset"))
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, feed)
		return nil
	})
}

func (self *Server) onIsPriceAvailable(c *gin.Context) {
	self.call(c, func(types.Address) error {
		c.JSON(http.StatusOK, gin.H{
			"available": self.contracts.Enterprise.IsPriceAvailable(c.Param("asset")),
		})
		return nil
	})
}

func (self *Server) onPriceWithFallback(c *gin.Context) {
	fallback, err := strconv.ParseInt(c.DefaultQuery("fallback", "0"), 10, 64)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(types.Address) error {
		c.JSON(http.StatusOK, self.contracts.Enterprise.PriceWithFallback(c.Param("asset"), fallback))
		return nil
	})
}

func (self *Server) onSubmitEventOutcome(c *gin.Context) {
	var in request.SubmitEventOutcome
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		err := self.contracts.Enterprise.SubmitEventOutcome(principal, in.EventID, types.MarketOutcome(in.Outcome), in.Confidence, "gateway")
		if err != nil {
			return err
		}
		c.Status(http.StatusCreated)
		return nil
	})
}

func (self *Server) onGetEventData(c *gin.Context) {
	self.call(c, func(types.Address) error {
		data, err := self.contracts.Enterprise.GetEventData(c.Param("id"))
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, data)
		return nil
	})
}

func (self *Server) onAddNode(c *gin.Context) {
	var in request.AddNode
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		err := self.contracts.Enterprise.AddNode(principal, types.Address(in.Address))
		if err != nil {
			return err
		}
		c.Status(http.StatusCreated)
		return nil
	})
}

func (self *Server) onRemoveNode(c *gin.Context) {
	self.call(c, func(principal types.Address) error {
		err := self.contracts.Enterprise.RemoveNode(principal, types.Address(c.Param("address")))
		if err != nil {
			return err
		}
		c.Status(http.StatusNoContent)
		return nil
	})
}

func (self *Server) onGetNodes(c *gin.Context) {
	self.call(c, func(types.Address) error {
		nodes, err := self.contracts.Enterprise.GetNodes()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, nodes)
		return nil
	})
}

func (self *Server) onGetNode(c *gin.Context) {
	self.call(c, func(types.Address) error {
		node, err := self.contracts.Enterprise.GetNode(types.Address(c.Param("address")))
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, node)
		return nil
	})
}

func (self *Server) onSubscribe(c *gin.Context) {
	var in request.Subscribe
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		if in.Threshold == 0 {
			err := self.contracts.Enterprise.Subscribe(principal, in.AssetName)
			if err != nil {
				return err
			}
			c.Status(http.StatusCreated)
			return nil
		}

		result := self.contracts.Enterprise.SubscribeWithThreshold(principal, in.AssetName, in.Threshold, types.Condition(in.Condition))
		c.JSON(http.StatusOK, result)
		return nil
	})
}

func (self *Server) onUnsubscribe(c *gin.Context) {
	self.call(c, func(principal types.Address) error {
		err := self.contracts.Enterprise.Unsubscribe(principal, c.Param("asset"))
		if err != nil {
			return err
		}
		c.Status(http.StatusNoContent)
		return nil
	})
}

func (self *Server) onGetSubscribers(c *gin.Context) {
	self.call(c, func(types.Address) error {
		subs, err := self.contracts.Enterprise.GetSubscribers(c.Param("asset"))
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, subs)
		return nil
	})
}

func (self *Server) onGetOracleConfig(c *gin.Context) {
	self.call(c, func(types.Address) error {
		minConfidence, maxPriceAge, err := self.contracts.Enterprise.GetConfig()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{
			"min_confidence": minConfidence,
			"max_price_age":  maxPriceAge,
		})
		return nil
	})
}

func (self *Server) onUpdateOracleConfig(c *gin.Context) {
	var in request.UpdateOracleConfig
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		err := self.contracts.Enterprise.UpdateConfig(principal, in.MinConfidence, in.MaxPriceAge)
		if err != nil {
			return err
		}
		c.Status(http.StatusNoContent)
		return nil
	})
}
