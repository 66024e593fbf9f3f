package sources

import (
	"context"
	"fmt"

	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/logger"

	"github.com/go-resty/resty/v2"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

type sourceResponse struct {
	Name   string `json:"name"`
	Price  int64  `json:"price"`
	Volume int64  `json:"volume"`
	Spread int64  `json:"spread"`
}

// HTTPProvider polls a set of HTTP endpoints for observations. Responses are
// cached for a short TTL so repeated aggregation within one window does not
// refetch.
type HTTPProvider struct {
	config *config.Sources
	log    *logrus.Entry
	client *resty.Client
	cache  *cache.Cache
}

func NewHTTPProvider(cfg *config.Config) *HTTPProvider {
	return &HTTPProvider{
		config: &cfg.Sources,
		log:    logger.NewSublogger("sources"),
		client: resty.New().
			SetTimeout(cfg.Sources.RequestTimeout),
		cache: cache.New(cfg.Sources.CacheTTL, cfg.Sources.CacheCleanup),
	}
}

func (self *HTTPProvider) Observations(ctx context.Context, assetName string) ([]Observation, error) {
	if cached, ok := self.cache.Get(assetName); ok {
		return cached.([]Observation), nil
	}

	observations := make([]Observation, 0, len(self.config.Endpoints))
	for _, endpoint := range self.config.Endpoints {
		observation, err := self.fetch(ctx, endpoint, assetName)
		if err != nil {
			// One dead source must not take down aggregation
			self.log.WithError(err).
				WithField("endpoint", endpoint).
				Warn("Failed to fetch observation")
			continue
		}
		observations = append(observations, observation)
	}

	if len(observations) == 0 {
		return nil, ErrNoObservations
	}

	self.cache.Set(assetName, observations, cache.DefaultExpiration)
	return observations, nil
}

func (self *HTTPProvider) fetch(ctx context.Context, endpoint, assetName string) (observation Observation, err error) {
	var response sourceResponse
	resp, err := self.client.R().
		SetContext(ctx).
		SetQueryParam("asset", assetName).
		SetResult(&response).
		Get(endpoint)
	if err != nil {
		return
	}
	if resp.IsError() {
		err = fmt.Errorf("source %s returned status %d", endpoint, resp.StatusCode())
		return
	}

	observation = Observation{
		Name:    response.Name,
		Price:   response.Price,
		Latency: uint32(resp.Time().Milliseconds()),
		Volume:  response.Volume,
		Spread:  response.Spread,
	}
	if observation.Name == "" {
		observation.Name = endpoint
	}
	return
}
