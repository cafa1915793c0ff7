// Command vaultd is the background daemon: it wires the engine together,
// starts the enrichment worker pool and the maintenance sweep, and blocks
// until signalled to shut down. The overlay's OS-level keyboard hook and
// drag/drop surface are external collaborators; this binary boots the
// engine side of the contract and leaves hooking the actual input devices
// to the host application.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/InfinitIQFlow/AltDump/internal/blobstore"
	"github.com/InfinitIQFlow/AltDump/internal/config"
	"github.com/InfinitIQFlow/AltDump/internal/embedding"
	"github.com/InfinitIQFlow/AltDump/internal/engine"
	"github.com/InfinitIQFlow/AltDump/internal/enrichment"
	"github.com/InfinitIQFlow/AltDump/internal/itemstore"
	"github.com/InfinitIQFlow/AltDump/internal/model"
	"github.com/InfinitIQFlow/AltDump/internal/overlay"
	"github.com/InfinitIQFlow/AltDump/internal/semanticindex"
	"github.com/InfinitIQFlow/AltDump/internal/sweep"
	"github.com/InfinitIQFlow/AltDump/internal/vaultlog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		vaultlog.Log.WithError(err).Fatal("vaultd: failed to load configuration")
	}
	vaultlog.Configure(cfg.LogPath, cfg.LogLevel)

	blobs, err := blobstore.NewFSStore(cfg.VaultDir)
	if err != nil {
		vaultlog.Log.WithError(err).Fatal("vaultd: failed to open content store")
	}
	items, err := itemstore.NewSQLiteStore(filepath.Join(cfg.VaultDir, "items.db"))
	if err != nil {
		vaultlog.Log.WithError(err).Fatal("vaultd: failed to open item index")
	}
	defer items.Close()

	index, err := semanticindex.NewFlatIndex(filepath.Join(cfg.VaultDir, "embeddings.gob"))
	if err != nil {
		vaultlog.Log.WithError(err).Fatal("vaultd: failed to open semantic index")
	}

	embedder := embedding.NewHTTPEmbedder(cfg.Embedding)
	rules := model.NewExtensionRules(cfg.ExtensionRules.Allow, cfg.ExtensionRules.Deny)

	pipeline := enrichment.New(cfg, blobs, items, index, embedder)
	eng := engine.New(blobs, items, index, embedder, pipeline, rules)
	ctrl := overlay.New(cfg.Overlay, rules, eng)
	wireOverlayLogging(ctrl)

	sweeper := sweep.New(blobs, items, index, embedder, cfg.SweepCron)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline.Start(ctx)
	go sweeper.Run(ctx)

	vaultlog.Log.WithField("vault_dir", cfg.VaultDir).Info("vaultd: ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	vaultlog.Log.Info("vaultd: shutting down")
	cancel()
	pipeline.Stop()
}

// wireOverlayLogging gives the controller's state transitions a visible
// trail even without a real UI surface attached.
func wireOverlayLogging(ctrl *overlay.Controller) {
	ctrl.OnShow(func(reopenInTextMode bool) {
		vaultlog.Log.WithField("reopen_in_text_mode", reopenInTextMode).Debug("overlay: show")
	})
	ctrl.OnHide(func() {
		vaultlog.Log.Debug("overlay: hide")
	})
	ctrl.OnConfirmation(func(item model.Item) {
		vaultlog.Log.WithField("item_id", item.ID).Info("overlay: saved")
	})
	ctrl.OnError(func(reason string) {
		vaultlog.Log.WithField("reason", reason).Warn("overlay: save failed")
	})
}
