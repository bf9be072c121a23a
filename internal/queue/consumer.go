// Package queue also contains the background consumer that listens to the
// seat.events queue and writes structured lines to logs/reservation.log.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BrokerURL resolves the AMQP connection string from the environment.  An
// empty result means no broker is configured and the audit trail is off.
func BrokerURL() string {
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		return url
	}
	return os.Getenv("AMQP_URL")
}

// StartSeatEventConsumer connects to RabbitMQ, declares the seat.events
// queue (durable) and consumes audit events, appending each one to
// logs/reservation.log.  It runs a reconnect loop with capped backoff and
// never returns under normal operation; processing errors reject the
// offending message without requeueing so the loop cannot spin on a bad
// payload.
func StartSeatEventConsumer(url string) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("seat-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("seat-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("seat-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(SeatEventQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(SeatEventQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("seat-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var ev SeatEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "reservation.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	nums := make([]string, len(ev.SeatNumbers))
	for i, n := range ev.SeatNumbers {
		nums[i] = fmt.Sprint(n)
	}
	line := fmt.Sprintf("[%s] seat %s | seats=[%s] | by=%q", ev.OccurredAt, ev.Action, strings.Join(nums, ","), ev.Principal)
	if ev.FriendLabel != "" {
		line += fmt.Sprintf(" | friend=%q", ev.FriendLabel)
	}
	if ev.EndTimeMs != 0 {
		line += fmt.Sprintf(" | until=%s", time.UnixMilli(ev.EndTimeMs).UTC().Format(time.RFC3339))
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
