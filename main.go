package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"toolagent/agent"
	"toolagent/config"
	"toolagent/llm"
	"toolagent/logger"
	"toolagent/telegram"
	"toolagent/tools"
)

const version = "0.1.0"

const (
	tasksPrompt = `
    Given only the tools at your disposal, mention tool calls for the following tasks:
    Do not change the query given for any search tasks
        1. What is the current weather in Bengaluru today
        2. Can you tell me about Kolkata
        3. Why is the sky blue?
    `
	graphPrompt = "Will it rain in Bengaluru today?"
	askPrompt   = "What are the recent news in India?"
)

func main() {
	// A missing .env is fine; the environment may already carry the keys.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp(os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the command tree. Output meant for the user goes to out.
func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "toolagent",
		Usage:   "a language model agent that can check the weather and search the web",
		Version: version,
		Flags:   config.Flags(),
		Commands: []*cli.Command{
			{
				Name:      "graph",
				Usage:     "run the model/tool loop and print every transcript message",
				ArgsUsage: "[question]",
				Action:    withAgent(out, runGraph),
			},
			{
				Name:      "ask",
				Usage:     "run the model/tool loop and print only the final answer",
				ArgsUsage: "[question]",
				Action:    withAgent(out, runAsk),
			},
			{
				Name:      "plan",
				Usage:     "ask the model once and print the tool calls it requests, without running them",
				ArgsUsage: "[prompt]",
				Action:    withAgent(out, runPlan),
			},
			{
				Name:   "telegram",
				Usage:  "answer Telegram messages",
				Action: withAgent(out, runTelegram),
			},
			{
				Name:  "config",
				Usage: "print the effective configuration",
				Action: func(_ context.Context, c *cli.Command) error {
					fmt.Fprint(out, config.FromCommand(c).String())
					return nil
				},
			},
		},
		DefaultCommand: "graph",
	}
}

type agentAction func(ctx context.Context, out io.Writer, cfg *config.Config, a *agent.Agent, args []string) error

// withAgent loads and validates configuration, sets up logging and the tool
// registry, then hands a ready agent to action.
func withAgent(out io.Writer, action agentAction) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		cfg := config.FromCommand(c)

		l, err := logger.Init(cfg.Verbose)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		defer l.Sync() //nolint:errcheck

		if err := cfg.Validate(); err != nil {
			return err
		}

		registry, err := buildRegistry(ctx, cfg)
		if err != nil {
			return err
		}
		zap.S().Debugf("Registered tools: %d", len(registry.All()))

		model := llm.NewClient(cfg.Model.URL, cfg.Model.APIKey, cfg.Model.Name, cfg.Model.Timeout)
		a := agent.New(model, registry, cfg.Agent.MaxTurns)
		a.SystemPrompt = cfg.Agent.SystemPrompt

		return action(ctx, out, cfg, a, c.Args().Slice())
	}
}

func buildRegistry(ctx context.Context, cfg *config.Config) (*tools.Registry, error) {
	registry := tools.NewRegistry()

	var search tools.Tool
	switch cfg.Search.Provider {
	case "google":
		g, err := tools.NewGoogleSearchTool(ctx, cfg.Search.APIKey, cfg.Search.EngineID, "", cfg.Search.MaxResults)
		if err != nil {
			return nil, err
		}
		search = g
	default:
		search = tools.NewSearchTool(ctx, tools.SearchOptions{
			BaseURL:    cfg.Search.URL,
			APIKey:     cfg.Search.APIKey,
			MaxResults: cfg.Search.MaxResults,
			Depth:      cfg.Search.Depth,
			MaxTokens:  cfg.Search.MaxTokens,
		})
	}

	for _, t := range []tools.Tool{search, tools.NewWeatherTool(cfg.Weather.URL, cfg.Weather.APIKey)} {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func promptOr(args []string, fallback string) string {
	if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
		return q
	}
	return fallback
}

func runGraph(ctx context.Context, out io.Writer, _ *config.Config, a *agent.Agent, args []string) error {
	a.OnMessage = func(m agent.Message) {
		fmt.Fprintln(out, m.String())
	}
	a.OnTransition = func(from, to agent.State) {
		zap.S().Debugf("[graph] %s -> %s", from, to)
	}

	_, err := a.Converse(ctx, promptOr(args, graphPrompt))
	return err
}

func runAsk(ctx context.Context, out io.Writer, _ *config.Config, a *agent.Agent, args []string) error {
	answer, err := a.Run(ctx, promptOr(args, askPrompt))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, answer)
	return nil
}

func runPlan(ctx context.Context, out io.Writer, _ *config.Config, a *agent.Agent, args []string) error {
	calls, err := a.Plan(ctx, promptOr(args, tasksPrompt))
	if err != nil {
		return err
	}
	if len(calls) == 0 {
		fmt.Fprintln(out, "[]")
		return nil
	}
	for _, tc := range calls {
		fmt.Fprintf(out, "{name: %s, args: %s, id: %s}\n", tc.Name, string(tc.Arguments), tc.ID)
	}
	return nil
}

func runTelegram(ctx context.Context, _ io.Writer, cfg *config.Config, a *agent.Agent, _ []string) error {
	bot, err := telegram.New(cfg.Telegram.Token, a)
	if err != nil {
		return err
	}
	err = bot.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
