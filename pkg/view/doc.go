// Package view holds the state of one open document: its text, the last analysis
// results, the dirty flag and the optional interactive step tree.
package view
