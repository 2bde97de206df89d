package mqtt

import (
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flybeeper/gps-filter/internal/config"
	"github.com/flybeeper/gps-filter/pkg/utils"
)

// fakeToken завершенный токен paho
type fakeToken struct {
	err      error
	finished bool
}

func (t *fakeToken) Wait() bool                     { return t.finished }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.finished }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if t.finished {
		close(ch)
	}
	return ch
}

// fakeClient записывает публикации
type fakeClient struct {
	mqtt.Client
	connected bool
	token     *fakeToken
	topics    []string
	qos       []byte
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Publish(topic string, qos byte, _ bool, _ interface{}) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.qos = append(c.qos, qos)
	return c.token
}

func newTestClient(t *testing.T, fake *fakeClient) *Client {
	t.Helper()
	c, err := NewClient(&config.MQTTConfig{URL: "tcp://localhost:1883", ClientID: "test", QoS: 1},
		utils.NewLogger("error", "text"))
	require.NoError(t, err)
	c.client = fake
	return c
}

func TestClient_Publish(t *testing.T) {
	fake := &fakeClient{connected: true, token: &fakeToken{finished: true}}
	c := newTestClient(t, fake)
	c.setConnected(true)

	require.NoError(t, c.Publish("gpsfilter/a/filtered", []byte("{}")))
	assert.Equal(t, []string{"gpsfilter/a/filtered"}, fake.topics)
	assert.Equal(t, []byte{1}, fake.qos)
}

func TestClient_PublishErrors(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		c := newTestClient(t, &fakeClient{token: &fakeToken{finished: true}})
		assert.Error(t, c.Publish("a", nil))
	})

	t.Run("timeout", func(t *testing.T) {
		c := newTestClient(t, &fakeClient{connected: true, token: &fakeToken{}})
		c.setConnected(true)
		assert.ErrorContains(t, c.Publish("a", nil), "timed out")
	})

	t.Run("broker error", func(t *testing.T) {
		c := newTestClient(t, &fakeClient{connected: true, token: &fakeToken{finished: true, err: errors.New("denied")}})
		c.setConnected(true)
		assert.ErrorContains(t, c.Publish("a", nil), "denied")
	})
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil, utils.NewLogger("error", "text"))
	assert.Error(t, err)
	_, err = NewClient(&config.MQTTConfig{}, nil)
	assert.Error(t, err)
}
