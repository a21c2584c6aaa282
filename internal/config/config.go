// Package config provides configuration for the proxy.
package config

import (
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AgentEntry is one configured Bedrock agent, in registration order.
type AgentEntry struct {
	ModelID string
	AgentID string
	AliasID string
}

// Config holds the proxy configuration.
type Config struct {
	// Server settings
	HTTPPort int
	Host     string

	// API key accepted on inbound requests. Empty or "none" disables the check.
	APIKey string

	// Agents
	DefaultAgent string
	Agents       []AgentEntry

	// AWS settings
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Database
	DatabaseURL string

	// Policy
	PolicyFile string

	// Timeouts
	InvokeTimeout time.Duration

	// Logging
	LogLevel string
}

// agentIDPattern matches AGENT_<NAME>_ID environment variables. The alias is
// expected under AGENT_<NAME>_ALIAS_ID.
var agentIDPattern = regexp.MustCompile(`^AGENT_([A-Z0-9_]+)_ID=`)

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:           getEnvInt("PORT", 5000),
		Host:               getEnv("HOST", "0.0.0.0"),
		APIKey:             getEnv("API_KEY", "bedrock-agent-proxy-key"),
		DefaultAgent:       getEnv("DEFAULT_AGENT", "COBWEBAI-ALIAS"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		DatabaseURL:        getEnv("DATABASE_URL", "file:proxy.db?cache=shared&mode=rwc"),
		PolicyFile:         os.Getenv("POLICY_FILE"),
		InvokeTimeout:      time.Duration(getEnvInt("INVOKE_TIMEOUT_MS", 300000)) * time.Millisecond,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
	cfg.Agents = scanAgents(os.Environ())
	return cfg
}

// scanAgents builds the agent entries from AGENT_<NAME>_ID /
// AGENT_<NAME>_ALIAS_ID pairs. Underscores in NAME become hyphens in the
// model id. Entries missing either half are dropped.
func scanAgents(environ []string) []AgentEntry {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	var entries []AgentEntry
	for _, kv := range environ {
		m := agentIDPattern.FindStringSubmatch(kv)
		if m == nil {
			continue
		}
		name := m[1]
		agentID := vars["AGENT_"+name+"_ID"]
		aliasID := vars["AGENT_"+name+"_ALIAS_ID"]
		if agentID == "" || aliasID == "" {
			continue
		}
		modelID := strings.ReplaceAll(name, "_", "-")
		entries = append(entries, AgentEntry{
			ModelID: modelID,
			AgentID: agentID,
			AliasID: aliasID,
		})
		log.Printf("Loaded agent configuration for %s", modelID)
	}
	return entries
}

// AuthDisabled reports whether the inbound API key check is turned off.
func (c *Config) AuthDisabled() bool {
	return c.APIKey == "" || strings.EqualFold(c.APIKey, "none")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
