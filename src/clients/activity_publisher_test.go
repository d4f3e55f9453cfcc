package clients

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sikep-admin-svc/src/internal/config"
	"sikep-admin-svc/src/internal/models"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (c *recordingChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.exchange = exchange
	c.key = key
	c.msg = msg
	return c.err
}

func TestPublishActivity_EncodesMessage(t *testing.T) {
	ch := &recordingChannel{}
	cfg := &config.Configuration{Queue: config.QueueConfig{RabbitMQ: config.RabbitMQConfig{
		Exchange:   "sikep.activity",
		RoutingKey: "admin.activity",
	}}}
	p := NewActivityPublisher(cfg, ch)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	err := p.PublishActivity("7", "sess-1", models.ServiceSession, models.ActionLogin, map[string]string{"ip": "10.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, "sikep.activity", ch.exchange)
	assert.Equal(t, "admin.activity", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var decoded models.ActivityMessage
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, "7", decoded.UserID)
	assert.Equal(t, models.ActionLogin, decoded.Action)
	assert.Equal(t, "10.0.0.1", decoded.Metadata["ip"])
	assert.True(t, fixed.Equal(decoded.Timestamp))
}

func TestPublishActivity_WrapsChannelError(t *testing.T) {
	ch := &recordingChannel{err: errors.New("channel closed")}
	p := NewActivityPublisher(&config.Configuration{}, ch)

	err := p.PublishActivity("7", "sess-1", models.ServiceSession, models.ActionLogout, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}
