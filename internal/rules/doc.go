// Package rules reads and edits the forwarding rules in realm's configuration.
//
// Each rule is an [[endpoints]] block:
//
//	[[endpoints]]
//	# 备注: office tunnel
//	listen = "0.0.0.0:9000"
//	remote = "5.6.7.8:9000"
//
// The file is parsed into a Document that keeps every line of the global
// section verbatim, knows the line range of each block, and decodes field
// values with a TOML parser. Rules are numbered from 1 in file order.
//
// # Operations
//
//	store := rules.NewStore(paths.ConfigFile, rules.WithReloader(controller))
//	list, err := store.List()                    // ErrNoConfig if absent
//	res, err := store.Append(ctx, rules.NewRule{...})
//	res, err := store.Delete(ctx, "2")
//
// Append only ever adds bytes at the end of the file. Delete writes a
// temporary file and renames it into place. Both hold an exclusive flock on
// <config>.lock while they run, so concurrent realm-ctl processes serialize.
//
// After a successful edit the Reloader is called. Its failure is recorded in
// MutationResult.ReloadErr; the edit is kept.
package rules
