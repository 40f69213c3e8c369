package goatdash

import "embed"

// Templates are the HTML templates.
//
//go:embed tpl/*
var Templates embed.FS

// Static are the static files for the frontend.
//
//go:embed public/*
var Static embed.FS
