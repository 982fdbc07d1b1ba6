package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	portnotifier "github.com/alanyang/prodline/internal/port/notifier"
)

const (
	userAgent = "prodline/1.0"

	DefaultAPIBase         = "https://api.twilio.com"
	DefaultFallbackGateway = "wa.me"
	DefaultChannelPrefix   = "whatsapp:+"
	DefaultTimeout         = 10 * time.Second
)

// Config describes a Twilio-compatible messages endpoint.
type Config struct {
	AccountSID      string
	AuthToken       string
	From            string
	APIBase         string
	FallbackGateway string
	// ChannelPrefix is prepended to the bare recipient handle, e.g. "whatsapp:+".
	ChannelPrefix string
	Timeout       time.Duration
}

func (c Config) withDefaults() Config {
	if c.APIBase == "" {
		c.APIBase = DefaultAPIBase
	}
	if c.FallbackGateway == "" {
		c.FallbackGateway = DefaultFallbackGateway
	}
	if c.ChannelPrefix == "" {
		c.ChannelPrefix = DefaultChannelPrefix
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// NewNotifier returns a gateway-backed notifier, or a noop one that only
// produces fallback links when no account is configured.
func NewNotifier(cfg Config) portnotifier.Notifier {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.AccountSID) == "" {
		return Noop{FallbackGateway: cfg.FallbackGateway}
	}
	return &Gateway{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// FallbackLink is a click-to-chat link a human can use to send body by hand.
func FallbackLink(gateway, handle, body string) string {
	return fmt.Sprintf("https://%s/%s/?text=%s", gateway, handle, url.QueryEscape(body))
}

// Gateway posts messages to the Messages resource of a Twilio-style REST API.
type Gateway struct {
	cfg    Config
	client *http.Client
}

type messageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Notify never returns an error: any failure yields Delivered=false with the
// reason in Error. FallbackLink is always set.
func (g *Gateway) Notify(ctx context.Context, recipientHandle, body string) portnotifier.DeliveryResult {
	res := portnotifier.DeliveryResult{FallbackLink: FallbackLink(g.cfg.FallbackGateway, recipientHandle, body)}

	sid, err := g.send(ctx, recipientHandle, body)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Delivered = true
	res.MessageID = sid
	return res
}

func (g *Gateway) send(ctx context.Context, handle, body string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	form := url.Values{}
	form.Set("To", g.cfg.ChannelPrefix+handle)
	form.Set("From", g.from())
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(g.cfg.APIBase, "/"), url.PathEscape(g.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build message request: %w", err)
	}
	req.SetBasicAuth(g.cfg.AccountSID, g.cfg.AuthToken)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out messageResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode >= 300 {
		if out.Message != "" {
			return "", fmt.Errorf("gateway returned %d (code %d): %s", resp.StatusCode, out.Code, out.Message)
		}
		return "", fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out.SID == "" {
		return "", fmt.Errorf("gateway response carried no message id")
	}
	return out.SID, nil
}

// from applies the channel prefix to a bare sender number so both
// "14155238886" and "whatsapp:+14155238886" are accepted in config.
func (g *Gateway) from() string {
	from := strings.TrimSpace(g.cfg.From)
	if strings.HasPrefix(from, g.cfg.ChannelPrefix) || strings.Contains(from, ":") {
		return from
	}
	return g.cfg.ChannelPrefix + strings.TrimPrefix(from, "+")
}

// Noop never sends; it hands back the fallback link so the message can still
// be delivered manually.
type Noop struct {
	FallbackGateway string
}

func (n Noop) Notify(_ context.Context, recipientHandle, body string) portnotifier.DeliveryResult {
	gw := n.FallbackGateway
	if gw == "" {
		gw = DefaultFallbackGateway
	}
	return portnotifier.DeliveryResult{
		FallbackLink: FallbackLink(gw, recipientHandle, body),
		Error:        "messaging gateway not configured",
	}
}
