package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriserin/ftrun/internal/config"
	"github.com/chriserin/ftrun/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize ftrun in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunInit(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func RunInit(w io.Writer) error {
	cfg := config.DefaultConfig()
	featuresDir := cfg.Paths[0]

	// features/ directory
	_, err := os.Stat(featuresDir)
	dirExists := err == nil
	if err := os.MkdirAll(featuresDir, 0o755); err != nil {
		return fmt.Errorf("creating %s directory: %w", featuresDir, err)
	}
	if dirExists {
		fmt.Fprintf(w, "%s/ already exists\n", featuresDir)
	} else {
		fmt.Fprintf(w, "%s/ created\n", featuresDir)
	}

	// config
	if _, err := os.Stat(config.DefaultPath); err == nil {
		fmt.Fprintf(w, "%s already exists\n", config.DefaultPath)
	} else {
		if err := os.WriteFile(config.DefaultPath, []byte(config.Sample), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", config.DefaultPath, err)
		}
		fmt.Fprintf(w, "%s created\n", config.DefaultPath)
	}

	// database
	dbPath := filepath.ToSlash(cfg.Database)
	_, err = os.Stat(dbPath)
	dbExists := err == nil
	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	sqlDB.Close()
	if dbExists {
		fmt.Fprintf(w, "%s already exists\n", dbPath)
	} else {
		fmt.Fprintf(w, "%s created\n", dbPath)
	}

	// gitignore
	msgs, err := ensureGitignore(dbPath)
	if err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}

	return nil
}

// ensureGitignore adds the database and its WAL side files to .gitignore.
func ensureGitignore(dbPath string) ([]string, error) {
	entry := dbPath + "*"

	data, err := os.ReadFile(".gitignore")
	if os.IsNotExist(err) {
		if err := os.WriteFile(".gitignore", []byte(entry+"\n"), 0o644); err != nil {
			return nil, err
		}
		return []string{".gitignore created", entry + " added to .gitignore"}, nil
	}
	if err != nil {
		return nil, err
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == entry {
			return []string{entry + " already in .gitignore"}, nil
		}
	}

	content := string(data)
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	if err := os.WriteFile(".gitignore", []byte(content), 0o644); err != nil {
		return nil, err
	}
	return []string{entry + " added to .gitignore"}, nil
}
