// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 klog authors

// Package web provides the embedded HTML templates for the web UI.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// Templates parses and returns the embedded page templates, addressable by
// file name (index.html, list.html, modify.html, new.html).
func Templates() *template.Template {
	return template.Must(template.ParseFS(embeddedFiles, "templates/*.html"))
}
