//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Stage shortcuts run the freshly built CLI with the project config.

// Fetch downloads annual report archives submitted between from and to
// (YYYY-MM-DD) and unpacks them.
func Fetch(from, to string) error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "fetch", "--from", from, "--to", to, "--unpack")
}

// Unpack extracts CSVs from every archive in zips/.
func Unpack() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "unpack")
}

// Extract processes every CSV in csv/ and renders charts.
func Extract() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "extract", "--chart")
}

// Serve runs the web front end.
func Serve() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "serve")
}
