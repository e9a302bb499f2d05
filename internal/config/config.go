package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultReactionKinds is the reaction set used when REACTION_KINDS is not
// configured, as kind:glyph pairs.
var DefaultReactionKinds = map[string]string{
	"like":  "\U0001F44D",
	"love":  "❤️",
	"haha":  "\U0001F602",
	"wow":   "\U0001F62E",
	"sad":   "\U0001F622",
	"angry": "\U0001F620",
}

// CommentConfig groups the comment-specific knobs.
type CommentConfig struct {
	ReactionsEnabled bool // whether comment listings carry reaction summaries
	MaxDepth         int  // reply nesting limit, 0 = unlimited
	PerPage          int  // default page size for top-level listings
	EditTimeout      int  // seconds after creation during which edit is allowed, 0 = unlimited
}

// NotificationConfig groups the notification gating flags (see the notifier
// for evaluation order).
type NotificationConfig struct {
	Enabled            bool
	AdminEmail         string
	NotifyOwner        bool
	NotifyParentAuthor bool
	NotifyOnReplies    bool
	NotifyOnDelete     bool
	Queue              bool // dispatch through Redis Streams instead of in-process goroutines
}

// SMTPConfig holds mail delivery settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL string

	ServerPort string

	JWTSecret string

	AccessTokenMaxAge  int
	RefreshTokenMaxAge int

	// ReactionKinds maps every allowed reaction kind to its display glyph.
	// react() validates against this set.
	ReactionKinds map[string]string

	Comments      CommentConfig
	Notifications NotificationConfig
	SMTP          SMTPConfig
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RedisURL: envString("REDIS_URL", "redis://localhost:6379"),

		ServerPort: envString("SERVER_PORT", "8080"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AccessTokenMaxAge:  envInt("ACCESS_TOKEN_MAX_AGE", 900),
		RefreshTokenMaxAge: envInt("REFRESH_TOKEN_MAX_AGE", 2592000),

		ReactionKinds: parseReactionKinds(os.Getenv("REACTION_KINDS")),

		Comments: CommentConfig{
			ReactionsEnabled: envBool("COMMENTS_REACTIONS_ENABLED", true),
			MaxDepth:         envInt("COMMENTS_MAX_DEPTH", 1),
			PerPage:          envInt("COMMENTS_PER_PAGE", 10),
			EditTimeout:      envInt("COMMENTS_EDIT_TIMEOUT", 0),
		},

		Notifications: NotificationConfig{
			Enabled:            envBool("NOTIFICATIONS_ENABLED", false),
			AdminEmail:         os.Getenv("NOTIFICATIONS_ADMIN_EMAIL"),
			NotifyOwner:        envBool("NOTIFICATIONS_NOTIFY_OWNER", true),
			NotifyParentAuthor: envBool("NOTIFICATIONS_NOTIFY_PARENT_AUTHOR", true),
			NotifyOnReplies:    envBool("NOTIFICATIONS_NOTIFY_ON_REPLIES", true),
			NotifyOnDelete:     envBool("NOTIFICATIONS_NOTIFY_ON_DELETE", false),
			Queue:              envBool("NOTIFICATIONS_QUEUE", false),
		},

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
			FromName: envString("SMTP_FROM_NAME", "Engagement"),
			TLS:      envBool("SMTP_TLS", true),
		},
	}, nil
}

// parseReactionKinds parses "like:👍,love:❤️" into a kind→glyph map.
// Entries without a glyph keep the kind name as display text.
func parseReactionKinds(raw string) map[string]string {
	if strings.TrimSpace(raw) == "" {
		kinds := make(map[string]string, len(DefaultReactionKinds))
		for k, v := range DefaultReactionKinds {
			kinds[k] = v
		}
		return kinds
	}

	kinds := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		kind, glyph, found := strings.Cut(entry, ":")
		kind = strings.TrimSpace(kind)
		if kind == "" {
			continue
		}
		if !found || strings.TrimSpace(glyph) == "" {
			kinds[kind] = kind
			continue
		}
		kinds[kind] = strings.TrimSpace(glyph)
	}
	return kinds
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
