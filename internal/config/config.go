// Package config loads the pipeline's operator-tunable settings from the
// environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// DefaultTopicKeywords is the built-in topic profile used when TOPIC_KEYWORDS
// is not set.
var DefaultTopicKeywords = []string{
	"triathlon", "ironman", "70.3", "marathon training",
	"cycling", "running shoes", "swim technique", "race nutrition",
	"training plan", "zone 2", "ftp test", "brick workout",
}

// Config holds application configuration
type Config struct {
	Port          string
	WebhookSecret string
	AdminPassword string

	TopicKeywords []string
	MinRelevance  int
	RankWindow    int // posts ranked per platform per tick
	TickCap       int // candidates generated per tick across all platforms

	RedditCronSpec    string
	TwitterCronSpec   string
	InstagramCronSpec string
}

// Load reads configuration from environment variables, applying defaults for
// anything unset.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		TopicKeywords: getEnvList("TOPIC_KEYWORDS", DefaultTopicKeywords),
		MinRelevance:  getEnvInt("MIN_RELEVANCE", 40),
		RankWindow:    getEnvInt("RANK_WINDOW", 20),
		TickCap:       getEnvInt("TICK_CANDIDATE_CAP", 3),

		RedditCronSpec:    getEnv("REDDIT_SCAN_CRON", "0 */4 * * *"),
		TwitterCronSpec:   getEnv("TWITTER_SCAN_CRON", "0 */2 * * *"),
		InstagramCronSpec: getEnv("INSTAGRAM_SCAN_CRON", "0 8 * * *"),
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			list = append(list, p)
		}
	}
	if len(list) == 0 {
		return defaultValue
	}
	return list
}
