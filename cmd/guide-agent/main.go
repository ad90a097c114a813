// Package main is the entry point for the guide-agent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/hoangvvo/guide-agent/docsagent"
	"github.com/hoangvvo/guide-agent/guide"
	"github.com/hoangvvo/guide-agent/internal/config"
	"github.com/hoangvvo/guide-agent/internal/log"
	"github.com/hoangvvo/guide-agent/llm"
	"github.com/hoangvvo/guide-agent/llm/openai"
	"github.com/hoangvvo/guide-agent/memory"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "guide-agent",
		Short: "Documentation guide agent for A2A developers",
		Long: `guide-agent answers developer questions about building A2A agents with
canned guides selected by keyword routing, optionally through a language model.

Examples:
  guide-agent ask "how do I set up mastra"      # Print the matching guide
  guide-agent ask --language rust "help"        # Use a language hint
  guide-agent workflow "install"                # Setup and integration guides
  guide-agent chat "what is a2a"                # Ask the agent (needs OPENAI_API_KEY)
  guide-agent serve                             # HTTP, A2A and MCP server
  guide-agent mcp                               # MCP over stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "",
		"Path to a YAML config file")

	rootCmd.AddCommand(
		serveCmd(flags),
		askCmd(),
		routesCmd(),
		workflowCmd(),
		chatCmd(flags),
		scoreCmd(flags),
		mcpCmd(flags),
	)
	return rootCmd
}

// loadConfig loads configuration and applies the log level.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if err := log.SetLevelString(cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newModel returns the configured chat model, or nil without an API key.
func newModel(cfg *config.Config, modelID string) llm.LanguageModel {
	if !cfg.HasModel() {
		return nil
	}
	return openai.NewChatModel(modelID, openai.ChatModelOptions{
		BaseURL: cfg.Model.BaseURL,
		APIKey:  cfg.Model.APIKey,
	})
}

// runtime is the set of collaborators shared by the serve and chat commands.
type runtime struct {
	dispatcher *guide.Dispatcher
	store      *memory.Store
	runner     *docsagent.Runner
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	store, err := memory.New(cfg.Memory.Path)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}

	rt := &runtime{dispatcher: guide.Default(), store: store}
	if model := newModel(cfg, cfg.Model.Name); model != nil {
		rt.runner = &docsagent.Runner{
			Agent: docsagent.NewAgent(model, docsagent.Options{
				Dispatcher:  rt.dispatcher,
				MaxTurns:    cfg.Agent.MaxTurns,
				Temperature: cfg.Agent.Temperature,
				TopP:        cfg.Agent.TopP,
				MaxTokens:   cfg.Agent.MaxTokens,
			}),
			Store:       store,
			HistorySize: cfg.Agent.HistorySize,
		}
	}
	return rt, nil
}

func (rt *runtime) Close() {
	log.CloseError("memory store", rt.store.Close())
}
