package worklens

import "time"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs               []string
	password            string
	embedder            Embedder
	projectAliases      map[string]string
	rrfK                int
	candidateMultiplier int
	readinessTimeout    time.Duration
}

// WithRedis sets the Redis addresses to connect to.
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
	}
}

// WithPassword sets the Redis password.
func WithPassword(password string) Option {
	return func(c *clientConfig) {
		c.password = password
	}
}

// WithEmbedder enables semantic ranking. Without it the client indexes
// and searches lexical-only.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithProjectAliases seeds the query parser with extra project-name
// aliases, e.g. {"checkout": "Checkout"}.
func WithProjectAliases(aliases map[string]string) Option {
	return func(c *clientConfig) {
		c.projectAliases = aliases
	}
}

// WithRanking overrides the rank fusion constant and the candidate set
// multiplier. Zero keeps the default.
func WithRanking(rrfK, candidateMultiplier int) Option {
	return func(c *clientConfig) {
		c.rrfK = rrfK
		c.candidateMultiplier = candidateMultiplier
	}
}

// WithReadinessTimeout bounds the initial connection wait.
func WithReadinessTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.readinessTimeout = d
	}
}
