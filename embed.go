package headlessblog

import "embed"

// EmbeddedAssets contains the assets the engine ships with: site.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
