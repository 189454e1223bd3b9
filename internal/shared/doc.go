// Package shared holds helpers used by more than one package.
// Its testutil subpackage provides a capturing slog handler and
// dataset fixtures shaped like the production CSV.
package shared
