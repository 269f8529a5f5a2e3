package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/coursebot/core/config"
)

func TestBuildPollerLongPoll(t *testing.T) {
	p := BuildPoller(PollerOptions{})
	lp, ok := p.(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, defaultLongPollTimeout, lp.Timeout)

	lp, ok = BuildPoller(PollerOptions{RunMode: "longpoll", LongPollTimeoutSeconds: 30}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, lp.Timeout)
}

func TestBuildPollerWebhook(t *testing.T) {
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{RunMode: "Webhook"},
		Webhook:  coreconfig.WebhookConfig{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.org/hook"},
	}
	wh, ok := BuildPoller(PollerOptionsFrom(cfg)).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "https://bot.example.org/hook", wh.Endpoint.PublicURL)

	attrs := describePoller(wh)
	require.NotEmpty(t, attrs)
	assert.Equal(t, "webhook", attrs[0].Value.String())
}

func TestBuildPollerFilter(t *testing.T) {
	p := BuildPoller(PollerOptions{Filter: FromUsers})
	mw, ok := p.(*tele.MiddlewarePoller)
	require.True(t, ok)
	assert.IsType(t, &tele.LongPoller{}, mw.Poller)

	attrs := describePoller(p)
	assert.Equal(t, "polling", attrs[0].Value.String())
	assert.Equal(t, "filtered", attrs[len(attrs)-1].Key)
}

func TestFromUsers(t *testing.T) {
	user := &tele.User{ID: 1}
	assert.True(t, FromUsers(&tele.Update{Message: &tele.Message{Sender: user}}))
	assert.True(t, FromUsers(&tele.Update{Callback: &tele.Callback{Sender: user}}))
	assert.True(t, FromUsers(&tele.Update{EditedMessage: &tele.Message{Sender: user}}))
	assert.False(t, FromUsers(&tele.Update{Message: &tele.Message{}}))
	assert.False(t, FromUsers(&tele.Update{ChannelPost: &tele.Message{}}))
	assert.False(t, FromUsers(nil))
}
