package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	nc "github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/visioneer/core/internal/chunkmodel"
)

// Bus is a typed publish/subscribe client over the embedded event bus
// server, adapted from the teacher's Client in internal/nats/client.go:
// same reconnect/disconnect/closed handler wiring, but logging through
// zap instead of fmt.Printf, and a typed Publish*/Subscribe* surface
// instead of raw subject strings.
type Bus struct {
	conn     *nc.Conn
	clientID string
	log      *zap.Logger
}

// Connect dials the embedded event bus server.
func Connect(url, clientID string, log *zap.Logger) (*Bus, error) {
	opts := []nc.Option{
		nc.Name(clientID),
		nc.ReconnectWait(2 * time.Second),
		nc.MaxReconnects(-1),
		nc.DisconnectErrHandler(func(_ *nc.Conn, err error) {
			if err != nil {
				log.Warn("event bus disconnected", zap.String("client_id", clientID), zap.Error(err))
			}
		}),
		nc.ReconnectHandler(func(conn *nc.Conn) {
			log.Info("event bus reconnected", zap.String("client_id", clientID), zap.String("url", conn.ConnectedUrl()))
		}),
		nc.ClosedHandler(func(*nc.Conn) {
			log.Debug("event bus connection closed", zap.String("client_id", clientID))
		}),
	}

	conn, err := nc.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event bus: %w", err)
	}

	return &Bus{conn: conn, clientID: clientID, log: log}, nil
}

// Close closes the connection.
func (b *Bus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

func (b *Bus) publishJSON(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", subject, err)
	}
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// PublishTick announces a tick advance.
func (b *Bus) PublishTick(projectID string, tick chunkmodel.Tick) error {
	return b.publishJSON(tickSubject(projectID), TickEvent{ProjectID: projectID, Tick: tick, Timestamp: time.Now().UTC()})
}

// PublishTaskStatus announces a task status transition.
func (b *Bus) PublishTaskStatus(projectID, taskID, title string, status chunkmodel.TaskStatus) error {
	return b.publishJSON(taskSubject(projectID), TaskStatusEvent{
		ProjectID: projectID, TaskID: taskID, Title: title, Status: status, Timestamp: time.Now().UTC(),
	})
}

// PublishWarning announces a coherence warning.
func (b *Bus) PublishWarning(projectID, taskID, concern string) error {
	return b.publishJSON(warningSubject(projectID), WarningEvent{
		ProjectID: projectID, TaskID: taskID, Concern: concern, Timestamp: time.Now().UTC(),
	})
}

// PublishGoal announces a goal activation or supersession.
func (b *Bus) PublishGoal(projectID, goalID, goalText string, status chunkmodel.GoalStatus) error {
	return b.publishJSON(goalSubject(projectID), GoalEvent{
		ProjectID: projectID, GoalID: goalID, GoalText: goalText, Status: status, Timestamp: time.Now().UTC(),
	})
}

// PublishActivity mirrors an activity log append.
func (b *Bus) PublishActivity(projectID, action, details string) error {
	return b.publishJSON(activitySubject(projectID), ActivityEvent{
		ProjectID: projectID, Action: action, Details: details, Timestamp: time.Now().UTC(),
	})
}

// SubscribeTicks subscribes to tick events for a project.
func (b *Bus) SubscribeTicks(projectID string, handler func(TickEvent)) (*nc.Subscription, error) {
	return b.conn.Subscribe(tickSubject(projectID), func(msg *nc.Msg) {
		var ev TickEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.log.Warn("failed to unmarshal tick event", zap.Error(err))
			return
		}
		handler(ev)
	})
}

// SubscribeTaskStatus subscribes to task status events for a project.
func (b *Bus) SubscribeTaskStatus(projectID string, handler func(TaskStatusEvent)) (*nc.Subscription, error) {
	return b.conn.Subscribe(taskSubject(projectID), func(msg *nc.Msg) {
		var ev TaskStatusEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.log.Warn("failed to unmarshal task status event", zap.Error(err))
			return
		}
		handler(ev)
	})
}

// SubscribeWarnings subscribes to coherence warning events for a
// project.
func (b *Bus) SubscribeWarnings(projectID string, handler func(WarningEvent)) (*nc.Subscription, error) {
	return b.conn.Subscribe(warningSubject(projectID), func(msg *nc.Msg) {
		var ev WarningEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.log.Warn("failed to unmarshal warning event", zap.Error(err))
			return
		}
		handler(ev)
	})
}

// SubscribeGoals subscribes to goal events for a project.
func (b *Bus) SubscribeGoals(projectID string, handler func(GoalEvent)) (*nc.Subscription, error) {
	return b.conn.Subscribe(goalSubject(projectID), func(msg *nc.Msg) {
		var ev GoalEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.log.Warn("failed to unmarshal goal event", zap.Error(err))
			return
		}
		handler(ev)
	})
}

// SubscribeActivity subscribes to activity events for a project.
func (b *Bus) SubscribeActivity(projectID string, handler func(ActivityEvent)) (*nc.Subscription, error) {
	return b.conn.Subscribe(activitySubject(projectID), func(msg *nc.Msg) {
		var ev ActivityEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.log.Warn("failed to unmarshal activity event", zap.Error(err))
			return
		}
		handler(ev)
	})
}

// IsConnected reports whether the bus connection is live.
func (b *Bus) IsConnected() bool {
	return b.conn != nil && b.conn.IsConnected()
}
