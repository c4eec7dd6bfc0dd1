package web

import "embed"

// Content holds the embedded viewer (index.html, app.js, styles.css), served
// at the root of the HTTP API.
//
//go:embed index.html app.js styles.css
var Content embed.FS
