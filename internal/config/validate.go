package config

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var portPattern = regexp.MustCompile(`^[0-9]{1,5}$`)

func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required, validation.Match(portPattern)),
		validation.Field(&s.ShutdownTimeout, validation.Min(1)),
	)
}

func (d Database) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(DriverPostgres, DriverMemory)),
		validation.Field(&d.URL, validation.When(d.Driver == DriverPostgres, validation.Required)),
	)
}

func (p Pipeline) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.MaxAttempts, validation.Required, validation.Min(1), validation.Max(20)),
		validation.Field(&p.RetryBackoffMS, validation.Min(0), validation.Max(10000)),
	)
}

func (n Notifier) Validate() error {
	twilio := n.Provider == ProviderTwilio
	return validation.ValidateStruct(&n,
		validation.Field(&n.Provider, validation.Required, validation.In(ProviderTwilio, ProviderNone)),
		validation.Field(&n.AccountSID, validation.When(twilio, validation.Required)),
		validation.Field(&n.AuthToken, validation.When(twilio, validation.Required)),
		validation.Field(&n.From, validation.When(twilio, validation.Required)),
		validation.Field(&n.APIBase, validation.When(twilio, validation.Required)),
		validation.Field(&n.FallbackGateway, validation.Required),
		validation.Field(&n.TimeoutSeconds, validation.Required, validation.Min(1), validation.Max(120)),
	)
}

func (l Log) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
	)
}

// Validate checks every section; nested errors are keyed by section name.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Database),
		validation.Field(&c.Pipeline),
		validation.Field(&c.Notifier),
		validation.Field(&c.Log),
	)
}
