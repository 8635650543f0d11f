package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/messaging/kafka"
)

// initOrderPublisher создаёт Kafka producer, если брокеры заданы.
// Ошибка подключения не останавливает сайт: заказы оформляются без событий.
func initOrderPublisher(cfg Config, logger *log.Entry) *kafka.Producer {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return nil
	}

	producer, err := kafka.NewProducer(brokers, cfg.KafkaTopic, logger.WithField("component", "kafka-producer"))
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil
	}

	logger.WithFields(log.Fields{
		"brokers": brokers,
		"topic":   producer.Topic(),
	}).Info("kafka producer initialized")
	return producer
}

// closeOrderPublisher закрывает producer, если он был создан.
func closeOrderPublisher(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	logger.Info("kafka producer closed")
}
