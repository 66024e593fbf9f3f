package report

type Report struct {
	Run            *RunReport            `json:"run,omitempty"`
	Contracts      *ContractsReport      `json:"contracts,omitempty"`
	Gateway        *GatewayReport        `json:"gateway,omitempty"`
	RedisPublisher *RedisPublisherReport `json:"redis_publisher,omitempty"`
	Archiver       *ArchiverReport       `json:"archiver,omitempty"`
}
