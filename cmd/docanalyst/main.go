package main

import (
	"context"
	"fmt"
	"os"

	"docanalyst/internal/cli"
	"docanalyst/internal/ocr/tesseract"
)

func main() {
	opts := cli.Options{NewOCR: tesseract.NewEngine}
	if err := cli.Execute(context.Background(), opts, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
