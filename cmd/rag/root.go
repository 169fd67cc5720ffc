package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	configPath string
	docsDir    string
	pageFile   string

	appCfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "rag",
	Short: "Incremental page index and question answering over a folder of documents",
	Long: `rag keeps a page file of embedded chunks in sync with a folder of documents
and answers questions from it.

The page file is only rebuilt when a document is deleted. New and modified
documents are appended, unchanged folders are a no-op.

Examples:
  rag init
  rag index
  rag ask "How do I reset the device?" -k 3
  rag search "warranty period" --docs ./manuals
  rag serve
  rag mcp`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "rag.yaml", "config file, missing file means defaults")
	rootCmd.PersistentFlags().StringVar(&docsDir, "docs", "", "folder of documents to index (overrides source.dir)")
	rootCmd.PersistentFlags().StringVar(&pageFile, "page-file", "", "page file location (overrides index.path)")

	rootCmd.AddCommand(initCmd, indexCmd, askCmd, searchCmd, serveCmd, mcpCmd)
}

func loadConfig(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	logger_i.Init()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", configPath, err)
	}
	if cmd.Flags().Changed("docs") {
		cfg.Source.Dir = docsDir
	}
	if cmd.Flags().Changed("page-file") {
		cfg.Index.Path = pageFile
	}
	logger_i.Configure(cfg.Log)
	appCfg = cfg
	return nil
}
