package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/hoangvvo/guide-agent/docsagent"
	"github.com/hoangvvo/guide-agent/guide"
	"github.com/hoangvvo/guide-agent/internal/log"
	"github.com/hoangvvo/guide-agent/internal/telemetry"
	"github.com/hoangvvo/guide-agent/mcpserver"
	"github.com/hoangvvo/guide-agent/scorer"
	"github.com/hoangvvo/guide-agent/server"
	"github.com/hoangvvo/guide-agent/workflow"
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// outputFlags selects how a command prints its result.
type outputFlags struct {
	json bool
	dump bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&f.dump, "dump", false, "Dump the result as a Go value for debugging")
}

// print writes v as JSON or a litter dump when requested, otherwise calls
// text.
func (f *outputFlags) print(w io.Writer, v any, text func() string) error {
	switch {
	case f.dump:
		_, err := fmt.Fprintln(w, litter.Sdump(v))
		return err
	case f.json:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		_, err := io.WriteString(w, text())
		return err
	}
}

func askCmd() *cobra.Command {
	var language string
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Print the guide for a question",
		Long: `Select a guide for the question with keyword routing and print it.
No language model is involved.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := guide.Query{Text: strings.Join(args, " "), Language: language}
			g := guide.Dispatch(q)
			log.Debug("dispatched", "route", guide.Default().Match(q), "title", g.Title)
			return out.print(cmd.OutOrStdout(), g, g.Markdown)
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "Programming language hint, for example go or python")
	out.register(cmd)
	return cmd
}

func routesCmd() *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List guide routes in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			routes := guide.Default().Routes()
			return out.print(cmd.OutOrStdout(), routes, func() string {
				var b strings.Builder
				for i, r := range routes {
					fmt.Fprintf(&b, "%d. %s\n", i+1, r)
				}
				return b.String()
			})
		},
	}
	out.register(cmd)
	return cmd
}

func workflowCmd() *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "workflow <question>",
		Short: "Run the guide workflow: Mastra setup, then Agentverse integration",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf := workflow.NewGuideWorkflow(nil)
			res, err := wf.Run(cmd.Context(), workflow.Input{Query: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			return out.print(cmd.OutOrStdout(), res, func() string {
				return res.Setup.Markdown() + "\n---\n\n" + res.Integration.Markdown()
			})
		},
	}
	out.register(cmd)
	return cmd
}

func chatCmd(flags *rootFlags) *cobra.Command {
	var language, threadID string
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the guide agent through the configured language model",
		Long: `Run one agent turn. With --thread the conversation is stored in the
memory database (GUIDE_AGENT_DB) and later turns see the history.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()
			if rt.runner == nil {
				return errors.New("no language model is configured; set OPENAI_API_KEY")
			}

			res, err := rt.runner.Generate(cmd.Context(), docsagent.GenerateRequest{
				Text:     strings.Join(args, " "),
				Language: language,
				ThreadID: threadID,
			})
			if err != nil {
				return err
			}
			log.Debug("chat finished", "input_tokens", res.Usage.InputTokens, "output_tokens", res.Usage.OutputTokens)
			return out.print(cmd.OutOrStdout(), res.Response, func() string { return res.Text + "\n" })
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "Programming language hint")
	cmd.Flags().StringVarP(&threadID, "thread", "t", "", "Conversation thread to continue")
	out.register(cmd)
	return cmd
}

func scoreCmd(flags *rootFlags) *cobra.Command {
	var query, output, reference string
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Grade an answer with the scorer suite",
		Long: `Grade an answer. The rubric scorers need OPENAI_API_KEY; the content
similarity scorer needs --reference.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(output) == "" {
				return errors.New("--output is required")
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			suite := scorer.NewDefaultSuite(newModel(cfg, cfg.JudgeModelName()))
			scores, err := suite.Run(cmd.Context(), scorer.Input{Query: query, Output: output, Reference: reference})
			if err != nil {
				return err
			}
			return out.print(cmd.OutOrStdout(), scores, func() string {
				var b strings.Builder
				tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SCORER\tSCORE\tREASON")
				for _, s := range scores {
					fmt.Fprintf(tw, "%s\t%.2f\t%s\n", s.Scorer, s.Score, s.Reason)
				}
				_ = tw.Flush()
				return b.String()
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "The question that was asked")
	cmd.Flags().StringVarP(&output, "output", "o", "", "The answer to grade")
	cmd.Flags().StringVarP(&reference, "reference", "r", "", "A reference answer for the similarity scorer")
	out.register(cmd)
	return cmd
}

func serveCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST, A2A and MCP endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.Init(ctx, telemetry.Options{
				Endpoint:    cfg.Tracing.Endpoint,
				ServiceName: cfg.Tracing.ServiceName,
				Version:     version,
			})
			if err != nil {
				return err
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				log.CloseError("tracer provider", shutdownTracing(flushCtx))
			}()

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			var suite *scorer.Suite
			if judge := newModel(cfg, cfg.JudgeModelName()); judge != nil {
				suite = scorer.NewDefaultSuite(judge)
			}
			if rt.runner == nil {
				log.Warn("OPENAI_API_KEY is not set; agent routes will answer 503")
			}

			srv := server.New(server.Options{
				Dispatcher: rt.dispatcher,
				Runner:     rt.runner,
				Store:      rt.store,
				Suite:      suite,
				MCP:        mcpserver.NewHandler(mcpserver.NewServer(rt.dispatcher, version)),
				Version:    version,
			})
			return srv.ListenAndServe(ctx, cfg.Server.Addr, shutdownTimeout)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address, overrides the config")
	return cmd
}

func mcpCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the guide tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(flags); err != nil {
				return err
			}
			// stdout carries the protocol
			log.SetOutput(os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mcpserver.ServeStdio(ctx, mcpserver.NewServer(nil, version))
		},
	}
}
