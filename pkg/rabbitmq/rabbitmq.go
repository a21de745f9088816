package rabbitmq

import (
	"errors"
	"log"
	"time"

	"watchpost/config"

	"github.com/rabbitmq/amqp091-go"
)

func NewConnection(rmqCfg *config.RabbitMQConfig) (*amqp091.Connection, error) {

	var conn *amqp091.Connection
	var err error
	for i := 0; i < 5; i++ {
		conn, err = amqp091.Dial(rmqCfg.BrokerURL)
		if err == nil {
			return conn, nil
		}
		time.Sleep(2 * time.Second)
		log.Printf("rabbitmq reconnection attempt %v", i+1)
	}
	log.Printf("failed to connect to rabbitmq, after %v attempts: %v", 5, err)
	return nil, errors.New("failed to connect to rabbitmq")
}

// SetupTopology declares the two boundaries of the engine: the
// check-result queue fed by executors, and the audit exchange consumed
// by analytics.
func SetupTopology(conn *amqp091.Connection, rmqCfg *config.RabbitMQConfig) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		rmqCfg.ExchangeName,
		rmqCfg.ExchangeType,
		true, false, false, false, nil,
	); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(
		rmqCfg.ResultQueue,
		true, false, false, false, nil,
	); err != nil {
		return err
	}

	if err = ch.QueueBind(
		rmqCfg.ResultQueue,
		rmqCfg.ResultRoutingKey,
		rmqCfg.ExchangeName,
		false, nil,
	); err != nil {
		return err
	}

	if rmqCfg.AuditExchange != "" {
		if err := ch.ExchangeDeclare(
			rmqCfg.AuditExchange,
			"fanout",
			true, false, false, false, nil,
		); err != nil {
			return err
		}
	}

	return nil
}
