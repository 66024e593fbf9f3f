package gateway

import (
	"net/http"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/gateway/request"

	"github.com/gin-gonic/gin"
)

func (self *Server) eventRoutes(g *gin.RouterGroup) {
	g.POST("query", self.onQueryEvents)
	g.GET("stats", self.onGetEventStats)
	g.GET("registry", self.onGetContractRegistry)
	g.POST("subscriptions", self.onSubscribeEvents)
	g.DELETE("subscriptions", self.onUnsubscribeEvents)
	g.GET("ws", self.onEventStream)
}

func (self *Server) onQueryEvents(c *gin.Context) {
	var in request.QueryEvents
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	filter := types.EventFilter{
		FromTimestamp: in.FromTimestamp,
		ToTimestamp:   in.ToTimestamp,
	}
	for _, name := range in.EventTypes {
		eventType, ok := types.ParseEventType(name)
		if !ok {
			self.badRequest(c, types.ErrInvalidOutcome)
			return
		}
		filter.EventTypes = append(filter.EventTypes, eventType)
	}
	for _, addr := range in.ContractAddresses {
		filter.ContractAddresses = append(filter.ContractAddresses, types.Address(addr))
	}

	self.call(c, func(types.Address) error {
		events, err := self.contracts.Bus.QueryEvents(filter)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, events)
		return nil
	})
}

func (self *Server) onGetEventStats(c *gin.Context) {
	self.call(c, func(types.Address) error {
		stats, err := self.contracts.Bus.GetEventStats()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, stats)
		return nil
	})
}

func (self *Server) onGetContractRegistry(c *gin.Context) {
	self.call(c, func(types.Address) error {
		registry, err := self.contracts.Bus.GetContractRegistry()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, registry)
		return nil
	})
}

func (self *Server) onSubscribeEvents(c *gin.Context) {
	var in request.SubscribeEvents
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	contracts := make([]types.Address, 0, len(in.ContractAddresses))
	for _, addr := range in.ContractAddresses {
		contracts = append(contracts, types.Address(addr))
	}

	self.call(c, func(principal types.Address) error {
		err := self.contracts.Bus.SubscribeToEvents(principal, in.EventTypes, contracts)
		if err != nil {
			return err
		}
		c.Status(http.StatusCreated)
		return nil
	})
}

func (self *Server) onUnsubscribeEvents(c *gin.Context) {
	self.call(c, func(principal types.Address) error {
		err := self.contracts.Bus.UnsubscribeFromEvents(principal)
		if err != nil {
			return err
		}
		c.Status(http.StatusNoContent)
		return nil
	})
}
