package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTelegramRequiresConfig(t *testing.T) {
	assert.ErrorIs(t, RunTelegram(context.Background(), RunOptions{}), ErrNilConfig)
}

func TestDeleteWebhook(t *testing.T) {
	var form string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/deleteWebhook", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		form = r.PostForm.Get("drop_pending_updates")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	require.NoError(t, deleteWebhook(context.Background(), srv.Client(), srv.URL, true))
	assert.Equal(t, "true", form)
}

func TestDeleteWebhookFailures(t *testing.T) {
	assert.Error(t, deleteWebhook(context.Background(), http.DefaultClient, apiURL(" "), false))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	assert.ErrorContains(t, deleteWebhook(context.Background(), srv.Client(), srv.URL, false), "401")
}

func TestAPIURL(t *testing.T) {
	assert.Equal(t, "https://api.telegram.org/bot1:x", apiURL("1:x"))
	assert.Empty(t, apiURL(" "))
}
