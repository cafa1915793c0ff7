// Command vaultctl is a cobra CLI front-end for the engine: a stand-in for
// a graphical UI, issuing the same ingest/search/delete/list calls a real
// overlay would, against the same on-disk vault.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/InfinitIQFlow/AltDump/internal/blobstore"
	"github.com/InfinitIQFlow/AltDump/internal/config"
	"github.com/InfinitIQFlow/AltDump/internal/embedding"
	"github.com/InfinitIQFlow/AltDump/internal/engine"
	"github.com/InfinitIQFlow/AltDump/internal/itemstore"
	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/semanticindex"
	"github.com/InfinitIQFlow/AltDump/internal/vaultlog"
)

// openEngine wires the content store, item index, and semantic index plus
// an embedder directly against cfg.VaultDir. vaultctl never starts the
// enrichment pipeline or the sweep scheduler; those belong to vaultd. A
// CLI invocation that needs them running should point at a vault a live
// vaultd already owns.
func openEngine(cfg config.Config) (*engine.Engine, func(), error) {
	blobs, err := blobstore.NewFSStore(cfg.VaultDir)
	if err != nil {
		return nil, nil, err
	}
	items, err := itemstore.NewSQLiteStore(filepath.Join(cfg.VaultDir, "items.db"))
	if err != nil {
		return nil, nil, err
	}
	index, err := semanticindex.NewFlatIndex(filepath.Join(cfg.VaultDir, "embeddings.gob"))
	if err != nil {
		items.Close()
		return nil, nil, err
	}
	embedder := embedding.NewHTTPEmbedder(cfg.Embedding)
	rules := model.NewExtensionRules(cfg.ExtensionRules.Allow, cfg.ExtensionRules.Deny)

	eng := engine.New(blobs, items, index, embedder, nil, rules)
	return eng, func() { items.Close() }, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vaultctl",
		Short: "Inspect and drive an AltDump vault from the command line",
	}
	root.AddCommand(newIngestTextCmd())
	root.AddCommand(newIngestLinkCmd())
	root.AddCommand(newIngestFileCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newDeleteCmd())
	return root
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "vaultctl: load config:", err)
		os.Exit(1)
	}
	vaultlog.Configure(cfg.LogPath, cfg.LogLevel)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
