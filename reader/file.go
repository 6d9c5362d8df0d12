package reader

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"cotreport/logger"
)

// FileSource reads archives from local disk. Locations are either plain
// paths or file:// URLs.
type FileSource struct{}

func (FileSource) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := location
	if strings.HasPrefix(strings.ToLower(location), "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("parse file location: %w", err)
		}
		path = u.Path
		if u.Host != "" && u.Host != "localhost" {
			path = u.Host + u.Path
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archive file: %w", err)
	}

	logger.GetLogger().WithComponent("reader").WithFields(logger.Fields{
		"path":  path,
		"bytes": len(data),
	}).Debug("archive read from disk")

	return data, nil
}
