package folio

import "embed"

// EmbeddedAssets contains the static assets shipped with the site:
// site.js, site.css and the default favicon.svg.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
