package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccastromar/aos-research-team/internal/app"
	"github.com/ccastromar/aos-research-team/internal/config"
	"github.com/ccastromar/aos-research-team/internal/guard"
	"github.com/ccastromar/aos-research-team/internal/llm"
	"github.com/ccastromar/aos-research-team/internal/logx"
	"github.com/ccastromar/aos-research-team/internal/tools"
)

// runner is the minimal interface our app must satisfy for running.
type runner interface{ Run(context.Context) error }

// topicRunner runs the team once.
type topicRunner interface {
	Run(ctx context.Context, topic string) (string, []string, error)
}

// appCtor is a constructor indirection to enable testing without launching the real app.
var appCtor = func(env *config.EnvVars) (runner, error) { return app.New(env) }

// teamCtor builds the team for one-off runs.
var teamCtor = func(env *config.EnvVars) (topicRunner, error) {
	a, err := app.NewWithOptions(env, app.Options{SkipToolDiscovery: true})
	if err != nil {
		return nil, err
	}
	return a.Team(), nil
}

// clientCtor builds the client used by the check command.
var clientCtor = llm.New

// fatalf indirection allows testing fatal paths without exiting the test process.
var fatalf = log.Fatalf

// loadEnv reads .env files and the environment.
var loadEnv = func() (*config.EnvVars, error) { return config.LoadEnv() }

type cli struct {
	env       *config.EnvVars
	configDir string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "team",
		Short:         "Research team: a sequential researcher, writer, reviewer and finalizer pipeline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return fmt.Errorf("failed to load environment: %w", err)
			}
			if c.configDir != "" {
				env.ConfigDir = c.configDir
			}
			if c.logLevel != "" {
				env.LogLevel = c.logLevel
			}
			logx.Setup(env.LogLevel, env.LogColor && logx.UseColor(env.AppEnv))
			c.env = env
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&c.configDir, "config", "", "directory with agents.yaml, tasks.yaml and tools.yaml (default $CONFIG_DIR)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL)")

	root.AddCommand(c.serveCmd(), c.runCmd(), c.checkCmd(), c.toolsCmd())
	return root
}

func (c *cli) serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI and JSON API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				c.env.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			serve(ctx, c.env)
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "HTTP port to listen on (default $PORT)")
	return cmd
}

func serve(ctx context.Context, env *config.EnvVars) {
	a, err := appCtor(env)
	if err != nil {
		fatalf("error initializing app: %v", err)
		return
	}
	if err := a.Run(ctx); err != nil {
		fatalf("error running app: %v", err)
		return
	}
}

func (c *cli) runCmd() *cobra.Command {
	var topic string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the team once and print the result followed by the captured logs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if topic == "" {
				topic = c.env.DefaultTopic
			}
			cleaned, err := guard.ValidateTopic(topic)
			if err != nil {
				return err
			}
			t, err := teamCtor(c.env)
			if err != nil {
				return err
			}
			result, logs, err := t.Run(cmd.Context(), cleaned)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}
			return printRun(cmd.OutOrStdout(), result, logs)
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "topic to research (default $DEFAULT_TOPIC)")
	return cmd
}

func printRun(w io.Writer, result string, logs []string) error {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(result))
	b.WriteString("\n\n--- logs ---\n")
	if len(logs) == 0 {
		b.WriteString("No logs captured.\n")
	}
	for _, l := range logs {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (c *cli) checkCmd() *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Send one prompt to the default completion endpoint and print the reply.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ep := llm.Endpoint{
				Provider: c.env.LLMProvider,
				BaseURL:  c.env.LLMBaseURL,
				APIKey:   c.env.LLMAPIKey,
				Model:    c.env.LLMModel,
			}
			client, err := clientCtor(ep, c.env.LLMTimeout)
			if err != nil {
				return err
			}
			start := time.Now()
			reply, err := client.Complete(cmd.Context(), llm.Request{
				Model:       ep.Model,
				Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
				Temperature: c.env.LLMTemperature,
			})
			if err != nil {
				return err
			}
			logx.Debug("Check", "reply in %s", time.Since(start).Round(time.Millisecond))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(reply))
			return err
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "Say hello", "prompt to send")
	return cmd
}

func (c *cli) toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools exposed by the configured MCP sources.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromDir(c.env.ConfigDir)
			if err != nil {
				return err
			}
			return tools.Render(cmd.OutOrStdout(), app.DiscoverTools(cmd.Context(), cfg, c.env.ToolsTimeout))
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
