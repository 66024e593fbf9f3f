package gateway

import (
	"net/http"

	"github.com/kalemarkets/settler/src/contracts/market"
	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/gateway/request"
	"github.com/kalemarkets/settler/src/gateway/response"

	"github.com/gin-gonic/gin"
)

func (self *Server) marketRoutes(g *gin.RouterGroup) {
	g.POST("", self.onCreateMarket)
	g.GET("", self.onGetMarkets)
	g.GET("count", self.onGetMarketCount)
	g.GET("config", self.onGetFactoryConfig)
	g.PUT("config", self.onUpdateFactoryConfig)
	g.POST("fees/withdraw", self.onWithdrawFees)
	g.GET(":address", self.onGetMarketInfo)
	g.POST(":address/bets", self.onPlaceBet)
	g.POST(":address/resolve", self.onResolveMarket)
	g.POST(":address/claim", self.onClaimWinnings)
	g.GET(":address/bets/:user", self.onGetUserBets)
	g.GET(":address/totals", self.onGetTotals)
}

func (self *Server) market(c *gin.Context) (*market.Contract, bool) {
	deployed, ok := self.contracts.Markets.Get(types.Address(c.Param("address")))
	if !ok {
		c.JSON(http.StatusNotFound, response.Error{Error: types.ErrMarketNotFound.Error()})
		return nil, false
	}
	return deployed, true
}

func (self *Server) onCreateMarket(c *gin.Context) {
	var in request.CreateMarket
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		addr, err := self.contracts.Factory.CreateMarket(
			principal,
			in.EventDescription,
			in.OracleAsset,
			in.TargetPrice,
			in.Condition,
			in.ResolveTime,
			in.MinBetAmount,
			in.MaxBetAmount,
			in.CreatorFeeRate,
		)
		if err != nil {
			self.monitor.GetReport().Contracts.Errors.CreateMarketFailure.Inc()
			return err
		}

		self.monitor.GetReport().Contracts.State.MarketsCreated.Inc()
		c.JSON(http.StatusCreated, response.CreateMarket{Address: string(addr)})
		return nil
	})
}

func (self *Server) onGetMarkets(c *gin.Context) {
	self.call(c, func(types.Address) error {
		markets, err := self.contracts.Factory.GetMarkets()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, markets)
		return nil
	})
}

func (self *Server) onGetMarketCount(c *gin.Context) {
	self.call(c, func(types.Address) error {
		count, err := self.contracts.Factory.GetMarketCount()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
		return nil
	})
}

func (self *Server) onGetFactoryConfig(c *gin.Context) {
	self.call(c, func(types.Address) error {
		cfg, err := self.contracts.Factory.GetConfig()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, cfg)
		return nil
	})
}

func (self *Server) onUpdateFactoryConfig(c *gin.Context) {
	var in struct {
		CreatorFeeRate uint32 `json:"creator_fee_rate"`
		MinMarketFee   int64  `json:"min_market_fee"`
	}
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		err := self.contracts.Factory.UpdateConfig(principal, in.CreatorFeeRate, in.MinMarketFee)
		if err != nil {
			return err
		}
		c.Status(http.StatusNoContent)
		return nil
	})
}

func (self *Server) onWithdrawFees(c *gin.Context) {
	self.call(c, func(principal types.Address) error {
		err := self.contracts.Factory.WithdrawFees(principal, principal)
		if err != nil {
			return err
		}
		c.Status(http.StatusOK)
		return nil
	})
}

func (self *Server) onGetMarketInfo(c *gin.Context) {
	deployed, ok := self.market(c)
	if !ok {
		return
	}

	self.call(c, func(types.Address) error {
		info, err := deployed.GetMarketInfo()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, info)
		return nil
	})
}

func (self *Server) onPlaceBet(c *gin.Context) {
	deployed, ok := self.market(c)
	if !ok {
		return
	}

	var in request.PlaceBet
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		err := deployed.Bet(principal, in.Side, in.Amount)
		if err != nil {
			self.monitor.GetReport().Contracts.Errors.BetRejected.Inc()
			return err
		}

		self.monitor.GetReport().Contracts.State.BetsPlaced.Inc()
		c.Status(http.StatusCreated)
		return nil
	})
}

func (self *Server) onResolveMarket(c *gin.Context) {
	deployed, ok := self.market(c)
	if !ok {
		return
	}

	self.call(c, func(principal types.Address) error {
		err := deployed.Resolve(principal)
		if err != nil {
			self.monitor.GetReport().Contracts.Errors.ResolutionFailure.Inc()
			return err
		}

		self.monitor.GetReport().Contracts.State.MarketsResolved.Inc()
		c.Status(http.StatusOK)
		return nil
	})
}

func (self *Server) onClaimWinnings(c *gin.Context) {
	deployed, ok := self.market(c)
	if !ok {
		return
	}

	self.call(c, func(principal types.Address) error {
		payout, err := deployed.ClaimWinnings(principal)
		if err != nil {
			self.monitor.GetReport().Contracts.Errors.ClaimRejected.Inc()
			return err
		}

		self.monitor.GetReport().Contracts.State.WinningsClaimed.Inc()
		c.JSON(http.StatusOK, response.Claim{Payout: payout})
		return nil
	})
}

func (self *Server) onGetUserBets(c *gin.Context) {
	deployed, ok := self.market(c)
	if !ok {
		return
	}

	self.call(c, func(types.Address) error {
		forAmount, againstAmount, err := deployed.GetUserBets(types.Address(c.Param("user")))
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, response.UserBets{For: forAmount, Against: againstAmount})
		return nil
	})
}

func (self *Server) onGetTotals(c *gin.Context) {
	deployed, ok := self.market(c)
	if !ok {
		return
	}

	self.call(c, func(types.Address) error {
		totalFor, totalAgainst, err := deployed.GetTotals()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, response.Totals{TotalFor: totalFor, TotalAgainst: totalAgainst})
		return nil
	})
}
