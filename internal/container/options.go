package container

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/serroba/linkkeeper/internal/mail"
	"go.uber.org/zap"
)

// DefaultPort is used when neither --port, SERVICE_PORT nor PORT is set.
const DefaultPort = 8888

// Options are the process settings, read once at startup.
type Options struct {
	Port         int    `default:"8888"           help:"Port to listen on"                                short:"p"`
	CodeLength   int    `default:"8"              help:"Length of generated short codes"                  short:"c"`
	CodeAttempts int    `default:"5"              help:"Short codes tried before giving up on collisions"`
	RedisAddr    string `default:"localhost:6379" help:"Redis server address"                             short:"r"`
	DBURL        string `help:"PostgreSQL URL; empty keeps data in memory" name:"db-url"`
	DBName       string `help:"Database name, overrides the one in db-url" name:"db-name"`
	JWTKey       string `help:"Secret used to sign session tokens"         name:"jwt-key"`
	TokenTTL     int    `default:"0"              help:"Session token lifetime in seconds, 0 for no expiry"`
	CacheTTL     int    `default:"3600"           help:"Seconds a resolved link stays in the Redis cache"`
	LogFormat    string `default:"console"        help:"Log output: console or json"`
	MailSender   string `default:"log"            help:"Mail delivery: log or ses"`
	MailFrom     string `default:"no-reply@localhost" help:"Sender address of outgoing mail"`
	SESRegion    string `default:"us-east-1"      help:"AWS region of the SES endpoint" name:"ses-region"`
	SESKeyID     string `help:"Static AWS access key id for SES; empty uses the default chain" name:"ses-access-key-id"`
	SESSecret    string `help:"Static AWS secret access key for SES" name:"ses-secret-access-key"`
	PublicURL    string `help:"Public base URL; defaults to http://localhost:<port>" name:"public-url"`
	Config       string `help:"YAML file with link and mail text settings"`
}

// ApplyEnv fills options left at their defaults from the plain PORT,
// DB_URL, DB_NAME and JWT_KEY variables.
func (o *Options) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("PORT"); ok && o.Port == DefaultPort {
		if port, err := strconv.Atoi(v); err == nil {
			o.Port = port
		}
	}

	fill := func(target *string, key string) {
		if *target != "" {
			return
		}

		if v, ok := lookup(key); ok {
			*target = v
		}
	}

	fill(&o.DBURL, "DB_URL")
	fill(&o.DBName, "DB_NAME")
	fill(&o.JWTKey, "JWT_KEY")
}

// BaseURL is the public URL links and short URLs are built on.
func (o *Options) BaseURL() string {
	if o.PublicURL != "" {
		return strings.TrimRight(o.PublicURL, "/")
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

func (o *Options) tokenTTL() time.Duration {
	return time.Duration(o.TokenTTL) * time.Second
}

func (o *Options) cacheTTL() time.Duration {
	return time.Duration(o.CacheTTL) * time.Second
}

// SESConfig selects the SES region and, when both keys are set, static
// credentials.
func (o *Options) SESConfig() mail.SESConfig {
	return mail.SESConfig{
		Region:          o.SESRegion,
		AccessKeyID:     o.SESKeyID,
		SecretAccessKey: o.SESSecret,
	}
}

// NewLogger builds a production (json) or development (console) logger.
func NewLogger(format string) (*zap.Logger, error) {
	if format == "json" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}
