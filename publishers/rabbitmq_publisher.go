package publishers

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/streadway/amqp"
)

// PropertyMessage representa un mensaje sobre una propiedad
// El search-api consume estos mensajes para mantener su índice al día
type PropertyMessage struct {
	Action     string `json:"action"` // "create", "update", "delete"
	PropertyID string `json:"property_id"`
}

// PropertyPublisher define la interfaz para publicar eventos de propiedades
type PropertyPublisher interface {
	PublishPropertyEvent(action string, propertyID uint) error
	Close() error
}

// RabbitMQPublisher publica mensajes de propiedades en RabbitMQ
type RabbitMQPublisher struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	queueName  string
}

// NewRabbitMQPublisher crea una nueva instancia de RabbitMQPublisher
func NewRabbitMQPublisher(rabbitURL, queueName string) (*RabbitMQPublisher, error) {
	log.Printf("Connecting to RabbitMQ at %s", rabbitURL)

	// Conectar con RabbitMQ
	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	// Crear channel
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declarar la queue con los mismos argumentos que el consumidor
	if queueName == "" {
		queueName = "properties_queue"
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	log.Printf("Queue '%s' declared successfully", queueName)

	return &RabbitMQPublisher{
		connection: conn,
		channel:    ch,
		queueName:  queueName,
	}, nil
}

// PublishPropertyEvent publica un evento de escritura sobre una propiedad
func (p *RabbitMQPublisher) PublishPropertyEvent(action string, propertyID uint) error {
	message := PropertyMessage{
		Action:     action,
		PropertyID: strconv.FormatUint(uint64(propertyID), 10),
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal property message: %w", err)
	}

	err = p.channel.Publish(
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.Printf("Property event published: action=%s, property_id=%s", message.Action, message.PropertyID)
	return nil
}

// Close cierra el channel y la conexión con RabbitMQ
func (p *RabbitMQPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.connection.Close()
		return fmt.Errorf("failed to close channel: %w", err)
	}
	return p.connection.Close()
}
