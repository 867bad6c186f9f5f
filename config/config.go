// Package config provides configuration management for the agent.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// ErrMissingSetting is returned by Validate when required secrets are absent.
var ErrMissingSetting = errors.New("missing required setting")

// Config holds all application configuration.
type Config struct {
	Model    ModelConfig
	Weather  WeatherConfig
	Search   SearchConfig
	Agent    AgentConfig
	Telegram TelegramConfig
	Verbose  bool
}

type ModelConfig struct {
	URL     string
	APIKey  string
	Name    string
	Timeout time.Duration
}

type WeatherConfig struct {
	URL    string
	APIKey string
}

type SearchConfig struct {
	Provider   string
	URL        string
	APIKey     string
	EngineID   string
	MaxResults int
	Depth      string
	MaxTokens  int
}

type AgentConfig struct {
	MaxTurns     int
	SystemPrompt string
}

type TelegramConfig struct {
	Token string
}

// YamlSource implements cli.ValueSource for a map loaded from YAML
type YamlSource struct {
	data map[string]any
	key  string
}

func (y *YamlSource) Lookup() (string, bool) {
	if v, ok := y.data[y.key]; ok {
		if slice, ok := v.([]any); ok {
			var strs []string
			for _, item := range slice {
				strs = append(strs, fmt.Sprintf("%v", item))
			}
			return strings.Join(strs, ","), true
		}
		return fmt.Sprintf("%v", v), true
	}
	return "", false
}

func (y *YamlSource) String() string   { return "yaml" }
func (y *YamlSource) GoString() string { return "yaml" }

// Flags returns the global flags. The YAML file named by --config or
// TOOLAGENT_CONFIG is read up front so it can act as a value source.
func Flags() []cli.Flag {
	data, err := loadFile(configPath(os.Args))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return flagsFrom(data)
}

func loadFile(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return data, nil
}

func flagsFrom(configData map[string]any) []cli.Flag {
	// EnvVar > YAML > Default
	src := func(key string, env ...string) cli.ValueSourceChain {
		chain := cli.ValueSourceChain{}
		for _, e := range env {
			chain.Chain = append(chain.Chain, cli.EnvVar(e))
		}
		if configData != nil {
			chain.Chain = append(chain.Chain, &YamlSource{data: configData, key: key})
		}
		return chain
	}

	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "use the named YAML configuration file", Sources: cli.EnvVars("TOOLAGENT_CONFIG")},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"V"}, Usage: "enable debug logging", Sources: src("verbose", "TOOLAGENT_VERBOSE")},

		// Model
		&cli.StringFlag{Name: "modelkey", Usage: "model provider API key", Sources: src("modelkey", "TOGETHER_API_KEY", "TOOLAGENT_MODELKEY")},
		&cli.StringFlag{Name: "modelurl", Value: "https://api.together.xyz/v1", Usage: "OpenAI-compatible API base URL", Sources: src("modelurl", "TOOLAGENT_MODELURL")},
		&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Value: "meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo", Usage: "model identifier", Sources: src("model", "TOOLAGENT_MODEL")},
		&cli.DurationFlag{Name: "apitimeout", Aliases: []string{"t"}, Value: 2 * time.Minute, Usage: "timeout for each model request", Sources: src("apitimeout", "TOOLAGENT_APITIMEOUT")},

		// Weather
		&cli.StringFlag{Name: "weatherkey", Usage: "weatherapi.com API key", Sources: src("weatherkey", "WEATHER_API_KEY")},
		&cli.StringFlag{Name: "weatherurl", Value: "http://api.weatherapi.com", Usage: "weather provider base URL", Sources: src("weatherurl", "TOOLAGENT_WEATHERURL")},

		// Search
		&cli.StringFlag{Name: "searchprovider", Value: "tavily", Usage: "search provider: tavily or google", Sources: src("searchprovider", "TOOLAGENT_SEARCHPROVIDER")},
		&cli.StringFlag{Name: "searchkey", Usage: "search provider API key", Sources: src("searchkey", "TAVILY_API_KEY", "TOOLAGENT_SEARCHKEY")},
		&cli.StringFlag{Name: "searchurl", Value: "https://api.tavily.com", Usage: "search provider base URL", Sources: src("searchurl", "TOOLAGENT_SEARCHURL")},
		&cli.StringFlag{Name: "searchengine", Usage: "Google Programmable Search engine id (cx)", Sources: src("searchengine", "TOOLAGENT_SEARCHENGINE")},
		&cli.IntFlag{Name: "searchresults", Value: 2, Usage: "maximum number of search results", Sources: src("searchresults", "TOOLAGENT_SEARCHRESULTS")},
		&cli.StringFlag{Name: "searchdepth", Value: "advanced", Usage: "search depth: basic or advanced", Sources: src("searchdepth", "TOOLAGENT_SEARCHDEPTH")},
		&cli.IntFlag{Name: "searchtokens", Value: 1000, Usage: "token budget for search result content", Sources: src("searchtokens", "TOOLAGENT_SEARCHTOKENS")},

		// Agent
		&cli.IntFlag{Name: "maxturns", Value: 20, Usage: "maximum model invocations per conversation", Sources: src("maxturns", "TOOLAGENT_MAXTURNS")},
		&cli.StringFlag{Name: "prompt", Usage: "optional system prompt", Sources: src("prompt", "TOOLAGENT_PROMPT")},

		// Telegram
		&cli.StringFlag{Name: "telegramtoken", Usage: "Telegram bot token", Sources: src("telegramtoken", "TELEGRAM_BOT_TOKEN")},
	}
}

func configPath(args []string) string {
	if v := os.Getenv("TOOLAGENT_CONFIG"); v != "" {
		return v
	}
	for i, arg := range args {
		if arg == "--config" || arg == "-c" {
			if i+1 < len(args) {
				return args[i+1]
			}
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

// FromCommand builds the configuration from parsed flags.
func FromCommand(c *cli.Command) *Config {
	return &Config{
		Model: ModelConfig{
			URL:     c.String("modelurl"),
			APIKey:  c.String("modelkey"),
			Name:    c.String("model"),
			Timeout: c.Duration("apitimeout"),
		},
		Weather: WeatherConfig{
			URL:    c.String("weatherurl"),
			APIKey: c.String("weatherkey"),
		},
		Search: SearchConfig{
			Provider:   strings.ToLower(c.String("searchprovider")),
			URL:        c.String("searchurl"),
			APIKey:     c.String("searchkey"),
			EngineID:   c.String("searchengine"),
			MaxResults: c.Int("searchresults"),
			Depth:      c.String("searchdepth"),
			MaxTokens:  c.Int("searchtokens"),
		},
		Agent: AgentConfig{
			MaxTurns:     c.Int("maxturns"),
			SystemPrompt: c.String("prompt"),
		},
		Telegram: TelegramConfig{
			Token: c.String("telegramtoken"),
		},
		Verbose: c.Bool("verbose"),
	}
}

// Validate reports every missing secret at once.
func (c *Config) Validate() error {
	var missing []string
	if c.Weather.APIKey == "" {
		missing = append(missing, "WEATHER_API_KEY")
	}
	if c.Search.APIKey == "" {
		missing = append(missing, "TAVILY_API_KEY")
	}
	if c.Model.APIKey == "" {
		missing = append(missing, "TOGETHER_API_KEY")
	}
	switch c.Search.Provider {
	case "tavily":
	case "google":
		if c.Search.EngineID == "" {
			missing = append(missing, "TOOLAGENT_SEARCHENGINE")
		}
	default:
		return fmt.Errorf("unknown search provider %q", c.Search.Provider)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

// Redacted masks a secret for display, keeping the last three characters.
func Redacted(secret string) string {
	if len(secret) <= 3 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-3) + secret[len(secret)-3:]
}

// String prints the effective configuration with secrets masked.
func (c *Config) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "model: %s\n", c.Model.Name)
	fmt.Fprintf(&sb, "modelurl: %s\n", c.Model.URL)
	fmt.Fprintf(&sb, "modelkey: %s\n", Redacted(c.Model.APIKey))
	fmt.Fprintf(&sb, "apitimeout: %s\n", c.Model.Timeout)
	fmt.Fprintf(&sb, "weatherurl: %s\n", c.Weather.URL)
	fmt.Fprintf(&sb, "weatherkey: %s\n", Redacted(c.Weather.APIKey))
	fmt.Fprintf(&sb, "searchprovider: %s\n", c.Search.Provider)
	fmt.Fprintf(&sb, "searchurl: %s\n", c.Search.URL)
	fmt.Fprintf(&sb, "searchkey: %s\n", Redacted(c.Search.APIKey))
	fmt.Fprintf(&sb, "searchengine: %s\n", c.Search.EngineID)
	fmt.Fprintf(&sb, "searchresults: %d\n", c.Search.MaxResults)
	fmt.Fprintf(&sb, "searchdepth: %s\n", c.Search.Depth)
	fmt.Fprintf(&sb, "searchtokens: %d\n", c.Search.MaxTokens)
	fmt.Fprintf(&sb, "maxturns: %d\n", c.Agent.MaxTurns)
	fmt.Fprintf(&sb, "prompt: %s\n", c.Agent.SystemPrompt)
	fmt.Fprintf(&sb, "telegramtoken: %s\n", Redacted(c.Telegram.Token))
	fmt.Fprintf(&sb, "verbose: %t\n", c.Verbose)
	return sb.String()
}
