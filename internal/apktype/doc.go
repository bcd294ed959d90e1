// Package apktype holds the value types and sentinel errors shared by the
// archive packages, kept separate to avoid import cycles.
package apktype
