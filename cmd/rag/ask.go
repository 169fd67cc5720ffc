package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/rag/report"
	"github.com/spf13/cobra"
)

var (
	topK        int
	backend     string
	debugPrompt bool
	styledTable bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed documents",
	Long: `Refresh the page file, retrieve the nearest chunks and ask the generation
backend to answer from them. The page table is printed first, then ---, then
the answer.

Examples:
  rag ask "How do I reset the device?"
  rag ask "warranty period" -k 3 --backend openai --debug-prompt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("backend") {
			useBackend(appCfg, backend)
		}
		svc, err := newRagService(cmd.Context(), appCfg, serviceOptions{generator: true, cache: true})
		if err != nil {
			return err
		}

		res, err := svc.Ask(cmd.Context(), strings.Join(args, " "), topK)
		if err != nil {
			return err
		}
		// the process exits right after printing, let the cache write land first
		defer svc.Flush()

		if debugPrompt {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", res.Prompt)
		}
		out := cmd.OutOrStdout()
		if err := printSources(out, res.Sources); err != nil {
			return err
		}
		fmt.Fprintln(out, "---")
		fmt.Fprintln(out, res.Answer)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <question>",
	Short: "Retrieve the nearest chunks without generating an answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newRagService(cmd.Context(), appCfg, serviceOptions{})
		if err != nil {
			return err
		}
		res, err := svc.Search(cmd.Context(), strings.Join(args, " "), topK)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if err := printSources(out, res.Sources); err != nil {
			return err
		}
		fmt.Fprintln(out, "---")
		fmt.Fprintln(out, res.Context)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{askCmd, searchCmd} {
		c.Flags().IntVarP(&topK, "k", "k", 0, "chunks to retrieve (default index.top_k)")
		c.Flags().BoolVar(&styledTable, "table", false, "draw the page table with borders")
	}
	askCmd.Flags().StringVar(&backend, "backend", "", "generation backend: ollama, openai or gemini")
	askCmd.Flags().BoolVar(&debugPrompt, "debug-prompt", false, "print the prompt sent to the backend on stderr")
}

func printSources(w io.Writer, sources []jobModel.Source) error {
	if styledTable {
		_, err := fmt.Fprintln(w, report.RenderTable(sources))
		return err
	}
	return report.WritePageTable(w, sources)
}

// useBackend switches the generator, dropping settings that belonged to the
// previous backend.
func useBackend(cfg *config.AppConfig, name string) {
	cfg.Generator = config.GeneratorConfig{
		Type:        name,
		TimeoutSecs: cfg.Generator.TimeoutSecs,
		Trim:        cfg.Generator.Trim,
	}
	config.ApplyDefaults(cfg)
}
