// Package main hosts the renderctl CLI.
//
// The Cobra command tree is a thin operator surface over the clipforge web
// API: submitting render jobs, watching their progress, listing and
// canceling them, and pulling finished outputs. All state lives server-side;
// renderctl only speaks HTTP.
package main
