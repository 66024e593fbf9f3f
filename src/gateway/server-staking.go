package gateway

import (
	"net/http"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/gateway/request"
	"github.com/kalemarkets/settler/src/gateway/response"

	"github.com/gin-gonic/gin"
)

func (self *Server) stakingRoutes(g *gin.RouterGroup) {
	g.POST("stake", self.onStake)
	g.POST("unstake", self.onUnstake)
	g.POST("claim", self.onClaimRewards)
	g.POST("rewards", self.onAddRewards)
	g.GET("info/:address", self.onGetStakeInfo)
	g.GET("stakers", self.onGetStakers)
	g.GET("total", self.onGetTotalStaked)
	g.GET("pool", self.onGetRewardPool)
	g.GET("apy", self.onGetAPY)
}

func (self *Server) onStake(c *gin.Context) {
	var in request.Stake
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		err := self.contracts.Staking.Stake(principal, in.Amount)
		if err != nil {
			self.monitor.GetReport().Contracts.Errors.StakeRejected.Inc()
			return err
		}

		self.monitor.GetReport().Contracts.State.TokensStaked.Add(in.Amount)
		c.Status(http.StatusCreated)
		return nil
	})
}

func (self *Server) onUnstake(c *gin.Context) {
	var in request.Unstake
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		err := self.contracts.Staking.Unstake(principal, in.Amount)
		if err != nil {
			self.monitor.GetReport().Contracts.Errors.StakeRejected.Inc()
			return err
		}

		self.monitor.GetReport().Contracts.State.TokensStaked.Sub(in.Amount)
		c.Status(http.StatusOK)
		return nil
	})
}

func (self *Server) onClaimRewards(c *gin.Context) {
	self.call(c, func(principal types.Address) error {
		paid, err := self.contracts.Staking.ClaimRewards(principal)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, response.ClaimRewards{Paid: paid})
		return nil
	})
}

func (self *Server) onAddRewards(c *gin.Context) {
	var in request.AddRewards
	err := c.ShouldBindJSON(&in)
	if err != nil {
		self.badRequest(c, err)
		return
	}

	self.call(c, func(principal types.Address) error {
		err := self.contracts.Staking.AddRewards(principal, in.Amount)
		if err != nil {
			return err
		}
		c.Status(http.StatusCreated)
		return nil
	})
}

func (self *Server) onGetStakeInfo(c *gin.Context) {
	self.call(c, func(types.Address) error {
		stake, err := self.contracts.Staking.GetStakeInfo(types.Address(c.Param("address")))
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, stake)
		return nil
	})
}

func (self *Server) onGetStakers(c *gin.Context) {
	self.call(c, func(types.Address) error {
		stakers, err := self.contracts.Staking.GetStakers()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, stakers)
		return nil
	})
}

func (self *Server) onGetTotalStaked(c *gin.Context) {
	self.call(c, func(types.Address) error {
		total, err := self.contracts.Staking.GetTotalStaked()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{"total_staked": total})
		return nil
	})
}

func (self *Server) onGetRewardPool(c *gin.Context) {
	self.call(c, func(types.Address) error {
		pool, err := self.contracts.Staking.GetRewardPool()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{"reward_pool": pool})
		return nil
	})
}

func (self *Server) onGetAPY(c *gin.Context) {
	self.call(c, func(types.Address) error {
		apy, err := self.contracts.Staking.GetCurrentAPY()
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, response.APY{BasisPoints: apy})
		return nil
	})
}
