package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/zcc135820/reqpipe/internal/config"
)

// DoUpload sends a local file to the backend and prints the stored location.
func DoUpload(ctx context.Context, cfg *config.Config, filePath string, out io.Writer) error {
	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.api.File.Upload(ctx, filePath)
	if err != nil {
		return fmt.Errorf("upload %s: %s", filePath, describe(err))
	}
	return printJSON(out, res)
}

// DoDownload fetches path from the backend into the download directory.
func DoDownload(ctx context.Context, cfg *config.Config, path, filename string, out io.Writer) error {
	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	saved, err := s.api.File.Download(ctx, path, filename)
	if err != nil {
		return fmt.Errorf("download %s: %s", path, describe(err))
	}
	_, err = fmt.Fprintf(out, "Saved %s\n", saved)
	return err
}
