// Command zipdiff-construct is the stubbed interface edge to the
// out-of-scope seed constructor: it copies a directory of pre-built *.zip
// files into an initial corpus directory unchanged. It does not generate
// the a1..c5 ambiguity-class fixtures itself; those are produced elsewhere
// and handed to this command as input.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var srcDir, dstDir string

	cmd := &cobra.Command{
		Use:   "zipdiff-construct",
		Short: "Copy pre-built ZIP fixtures into an initial corpus directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return copyZips(srcDir, dstDir)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&srcDir, "src-dir", "", "directory of pre-built .zip files (required)")
	flags.StringVar(&dstDir, "dst-dir", "", "destination corpus directory (required)")
	cmd.MarkFlagRequired("src-dir")
	cmd.MarkFlagRequired("dst-dir")

	return cmd
}

func copyZips(srcDir, dstDir string) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("read source directory: %w", err)
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	copied := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".zip" {
			continue
		}
		if err := copyFile(filepath.Join(srcDir, e.Name()), filepath.Join(dstDir, e.Name())); err != nil {
			return fmt.Errorf("copy %s: %w", e.Name(), err)
		}
		copied++
	}
	fmt.Printf("copied %d fixture(s) into %s\n", copied, dstDir)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
