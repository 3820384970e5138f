package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const localSessionSecret = "innkeep-local-session-secret"

var (
	cacheDrivers     = []string{"redis", "memory", "noop"}
	messagingDrivers = []string{"kafka", "memory", "noop"}
)

// normalize fills defaults and rejects settings the app cannot start with.
func (c *Config) normalize() error {
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.GRPC.Port <= 0 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	if err := c.Cache.normalize(); err != nil {
		return err
	}
	if err := c.Observability.normalize(); err != nil {
		return err
	}
	if err := c.Messaging.normalize(); err != nil {
		return err
	}
	if err := c.Database.normalize(); err != nil {
		return err
	}
	if err := c.Auth.normalize(c.Observability.Environment); err != nil {
		return err
	}
	c.Orders.normalize()
	return nil
}

func (c *Cache) normalize() error {
	if !c.Enabled {
		c.Driver = "noop"
	}
	if !slices.Contains(cacheDrivers, c.Driver) {
		return fmt.Errorf("unsupported cache driver: %s", c.Driver)
	}
	if c.Driver == "redis" && c.Redis.Addr == "" {
		return errors.New("missing REDIS_ADDR for redis cache")
	}
	if c.DefaultTTL < 0 {
		c.DefaultTTL = 5 * time.Minute
	}
	return nil
}

func (o *Observability) normalize() error {
	o.LogLevel = lowerOr(o.LogLevel, "info")
	o.LogEncoding = lowerOr(o.LogEncoding, "json")
	o.TraceExporter = lowerOr(o.TraceExporter, "stdout")
	o.MetricsExporter = lowerOr(o.MetricsExporter, "prometheus")

	if o.TraceSampleRate < 0 || o.TraceSampleRate > 1 {
		return errors.New("OBS_TRACE_SAMPLE_RATE must be within [0,1]")
	}
	switch {
	case o.PrometheusPath == "":
		o.PrometheusPath = "/metrics"
	case !strings.HasPrefix(o.PrometheusPath, "/"):
		o.PrometheusPath = "/" + o.PrometheusPath
	}
	return nil
}

func (m *Messaging) normalize() error {
	if !m.Enabled {
		m.Driver = "noop"
	}
	if !slices.Contains(messagingDrivers, m.Driver) {
		return fmt.Errorf("unsupported messaging driver: %s", m.Driver)
	}
	if m.Driver == "kafka" {
		switch {
		case len(m.Kafka.Brokers) == 0:
			return errors.New("KAFKA_BROKERS must be provided")
		case m.Kafka.Topic == "":
			return errors.New("KAFKA_TOPIC must be provided")
		case m.ConsumerGroup == "":
			return errors.New("KAFKA_CONSUMER_GROUP must be provided")
		}
	}

	m.Workers.Concurrency = max(m.Workers.Concurrency, 1)
	m.Workers.MaxAttempts = max(m.Workers.MaxAttempts, 1)
	m.Workers.RetryDelay = max(m.Workers.RetryDelay, 0)
	return nil
}

func (d *Database) normalize() error {
	if d.WriterDSN == "" {
		return errors.New("missing DB_WRITER_DSN")
	}
	if d.ReaderDSN == "" {
		d.ReaderDSN = d.WriterDSN
	}
	return nil
}

func (a *Auth) normalize(environment string) error {
	if a.AdminUsername == "" || a.AdminPassword == "" {
		return errors.New("AUTH_ADMIN_USERNAME and AUTH_ADMIN_PASSWORD must be provided")
	}
	if a.SessionSecret == "" {
		if environment != "local" {
			return errors.New("AUTH_SESSION_SECRET must be provided outside local environment")
		}
		a.SessionSecret = localSessionSecret
	}
	if a.SessionTTL <= 0 {
		a.SessionTTL = 12 * time.Hour
	}
	if a.CookieName == "" {
		a.CookieName = "innkeep_session"
	}
	return nil
}

func (o *Orders) normalize() {
	if o.PageSize <= 0 {
		o.PageSize = 10
	}
	o.CreateRetries = max(o.CreateRetries, 1)
	if o.TrendDays <= 0 {
		o.TrendDays = 7
	}
	if o.RevenueDays <= 0 {
		o.RevenueDays = 30
	}
}

func lowerOr(v, fallback string) string {
	if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
		return v
	}
	return fallback
}
