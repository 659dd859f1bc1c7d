// Command mapbundle runs one export pass: it loads manifest fragments from
// local files and/or remote URLs, resolves per-map dependencies, and writes
// the resulting serverdata/httpshare bundle plus logs.zip under the output
// directory's data/ subdirectory.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/chomenor/mapbundle/internal/cliutil"
	"github.com/chomenor/mapbundle/internal/export"
	"github.com/chomenor/mapbundle/internal/manifest"
	"github.com/chomenor/mapbundle/internal/progress"
	"github.com/chomenor/mapbundle/internal/remote"
)

func main() {
	var (
		fragments  = pflag.StringArrayP("manifest", "m", nil, "local manifest fragment file (repeatable)")
		remoteURLs = pflag.StringArray("remote-manifest", nil, "remote manifest fragment URL (repeatable)")
		remoteAuth = pflag.String("remote-token", "", "bearer token presented to --remote-manifest URLs")
		signingKey = pflag.String("remote-signing-key", "", "HMAC key validating --remote-token before use")
		output     = pflag.StringP("output", "o", "", "output base directory (required)")
		localDirs  = pflag.StringArrayP("local-dir", "l", nil, "local resource directory searched before the cache (repeatable)")
		watchAddr  = pflag.String("watch", "", "address to serve the optional progress WebSocket on, e.g. :8089")
	)
	pflag.Parse()

	if *output == "" || len(*fragments) == 0 && len(*remoteURLs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: mapbundle --output DIR --manifest FILE [--manifest FILE...] [--remote-manifest URL...]")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	runID := cliutil.NewRunID()
	started := time.Now()
	fmt.Printf("mapbundle run %s starting at %s\n", runID, cliutil.FormatTimestamp(started))

	man := manifest.New()
	if err := loadFragments(man, *fragments, *remoteURLs, *remoteAuth, *signingKey); err != nil {
		fmt.Fprintf(os.Stderr, "error loading manifest: %v\n", err)
		os.Exit(1)
	}

	var hub *progress.Hub
	if *watchAddr != "" {
		hub = progress.NewHub()
		stop := make(chan struct{})
		go hub.Run(stop)
		go func() {
			if err := http.ListenAndServe(*watchAddr, hub); err != nil {
				fmt.Fprintf(os.Stderr, "progress listener on %s stopped: %v\n", *watchAddr, err)
			}
		}()
		fmt.Printf("progress listener on %s\n", *watchAddr)
	}

	if err := export.RunExport(man, *output, *localDirs, hub); err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}

	totalBytes, mapCount := summarize(filepath.Join(*output, "data"))
	fmt.Println(cliutil.SummaryLine(runID, started, mapCount, totalBytes))
}

// loadFragments loads every local fragment file in order, then fetches and
// imports every remote fragment URL. A remote fetch failure is logged and
// skipped rather than aborting the run, matching the original's tolerance
// for a single bad acquisition.
func loadFragments(man *manifest.Manifest, localPaths, remoteURLs []string, token, signingKey string) error {
	for _, path := range localPaths {
		if err := man.LoadFragment(path); err != nil {
			return err
		}
	}

	var validator *remote.TokenValidator
	if signingKey != "" {
		validator = &remote.TokenValidator{SigningKey: []byte(signingKey)}
	}

	for _, url := range remoteURLs {
		data, err := remote.FetchManifestFragment(remote.Source{URL: url, Token: token}, validator)
		if err != nil {
			fmt.Fprintf(os.Stderr, "remote manifest fragment '%s' skipped: %v\n", url, err)
			continue
		}
		ext := filepath.Ext(url)
		if idx := strings.IndexAny(ext, "?#"); idx >= 0 {
			ext = ext[:idx]
		}
		if err := man.ImportFragmentData(ext, data); err != nil {
			fmt.Fprintf(os.Stderr, "remote manifest fragment '%s' skipped: %v\n", url, err)
		}
	}
	return nil
}

// summarize walks the written data directory for a rough byte count and map
// count (approximated by the number of distinct bsp resource pk3s written,
// since per-map records themselves live inside mapinfo.pk3), for the
// closing summary line.
func summarize(dataDir string) (totalBytes int64, mapCount int) {
	filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		totalBytes += info.Size()
		if strings.HasPrefix(filepath.Base(path), "bsp_") {
			mapCount++
		}
		return nil
	})
	return totalBytes, mapCount
}
