// Package emit renders the surviving patches of a rebase as patch
// documents and writes them, with a quilt-style series file, to the
// output directory.
package emit
