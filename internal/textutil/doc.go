// Package textutil provides filename sanitization and title derivation
// helpers shared by the downloader and the structuring stage.
package textutil
