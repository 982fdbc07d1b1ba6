package messaging_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/prodline/internal/adapter/messaging"
)

func TestFallbackLink(t *testing.T) {
	got := messaging.FallbackLink("wa.me", "966501234567", "You have a new task: Ep 1 - Writing")
	assert.Equal(t, "https://wa.me/966501234567/?text=You+have+a+new+task%3A+Ep+1+-+Writing", got)
}

func TestNewNotifier_NoopWithoutAccount(t *testing.T) {
	n := messaging.NewNotifier(messaging.Config{})
	res := n.Notify(context.Background(), "15550001111", "hi")
	assert.False(t, res.Delivered)
	assert.Equal(t, "https://wa.me/15550001111/?text=hi", res.FallbackLink)
	assert.NotEmpty(t, res.Error)
}

func TestGateway_Delivered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "whatsapp:+15550001111", r.PostForm.Get("To"))
		assert.Equal(t, "whatsapp:+14155238886", r.PostForm.Get("From"))
		assert.Equal(t, "hello", r.PostForm.Get("Body"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42","status":"queued"}`))
	}))
	defer srv.Close()

	n := messaging.NewNotifier(messaging.Config{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+14155238886",
		APIBase:    srv.URL,
	})
	res := n.Notify(context.Background(), "15550001111", "hello")
	assert.True(t, res.Delivered)
	assert.Equal(t, "SM42", res.MessageID)
	assert.NotEmpty(t, res.FallbackLink)
	assert.Empty(t, res.Error)
}

func TestGateway_FailuresBecomeFallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":21211,"message":"Invalid 'To' Phone Number"}`))
			},
			wantErr: "Invalid 'To' Phone Number",
		},
		{
			name: "non-json error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("upstream down"))
			},
			wantErr: "upstream down",
		},
		{
			name: "missing sid",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{}`))
			},
			wantErr: "no message id",
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(200 * time.Millisecond)
				w.WriteHeader(http.StatusCreated)
			},
			wantErr: "send message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			n := messaging.NewNotifier(messaging.Config{
				AccountSID: "AC123",
				AuthToken:  "secret",
				From:       "whatsapp:+14155238886",
				APIBase:    srv.URL,
				Timeout:    50 * time.Millisecond,
			})
			res := n.Notify(context.Background(), "15550001111", "hello")
			assert.False(t, res.Delivered)
			assert.Equal(t, "https://wa.me/15550001111/?text=hello", res.FallbackLink)
			assert.Contains(t, res.Error, tt.wantErr)
		})
	}
}
