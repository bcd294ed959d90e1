// Package index loads the archive directory into an immutable path lookup.
package index
